package exec

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/logging"
	"github.com/mmrzaf/mockgen/internal/registry"
)

// Schemas resolves table definitions by domain.
type Schemas map[string]*domain.DomainSchema

func (s Schemas) Table(domainName, table string) (*domain.TableSchema, error) {
	d, ok := s[domainName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown domain %q", domain.ErrMissingSourceTable, domainName)
	}
	t := d.Table(table)
	if t == nil {
		return nil, fmt.Errorf("%w: %s.%s has no definition", domain.ErrMissingSourceTable, domainName, table)
	}
	return t, nil
}

// ProgressFunc is called after each table with the number of tables
// finished so far.
type ProgressFunc func(done, total int, ts domain.TableRunStats)

type Executor struct {
	rules     *registry.RuleRegistry
	synthetic *generators.Synthetic
	opts      TableOptions
	progress  ProgressFunc
	logger    *logging.Logger
}

func NewExecutor(reg *registry.RuleRegistry, synthetic *generators.Synthetic, opts TableOptions, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Executor{
		rules:     reg,
		synthetic: synthetic,
		opts:      opts,
		logger:    logger.WithComponent("executor"),
	}
}

func (e *Executor) OnProgress(fn ProgressFunc) {
	e.progress = fn
}

// Ordered returns the plan entries sorted by GenOrder. Ties keep their
// position in the plan.
func Ordered(tables []domain.TablePlan) []domain.TablePlan {
	out := append([]domain.TablePlan(nil), tables...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GenOrder < out[j].GenOrder
	})
	return out
}

// Execute generates every planned table in order. A table-fatal error is
// recorded and the run continues; only cancellation and mirror connection
// failures stop the run early.
func (e *Executor) Execute(ctx context.Context, schemas Schemas, plan *domain.Plan, state *State, mirrors ...Target) (*domain.RunStats, error) {
	start := time.Now()
	stats := &domain.RunStats{TableStats: make([]domain.TableRunStats, 0, len(plan.Tables))}

	for i, m := range mirrors {
		if err := m.Connect(); err != nil {
			for _, prev := range mirrors[:i] {
				prev.Close()
			}
			return nil, fmt.Errorf("%w: connect mirror: %v", domain.ErrSinkWrite, err)
		}
	}
	defer func() {
		for _, m := range mirrors {
			if err := m.Close(); err != nil {
				e.logger.Warnw("mirror.close_failed", map[string]any{"error": err.Error()})
			}
		}
	}()

	opts := e.opts
	if plan.ChunkSize > 0 {
		opts.ChunkSize = plan.ChunkSize
	}
	if plan.ChunkThreshold > 0 {
		opts.ChunkThreshold = plan.ChunkThreshold
	}
	gen := NewTableGenerator(NewDispatcher(e.rules, e.synthetic, state), state, opts, e.logger, mirrors...)

	ordered := Ordered(plan.Tables)
	e.logger.Infow("run.start", map[string]any{"plan": plan.Name, "tables": len(ordered), "seed": state.Seed})

	for i, tp := range ordered {
		if err := ctx.Err(); err != nil {
			stats.DurationSeconds = time.Since(start).Seconds()
			return stats, err
		}

		var (
			ts  domain.TableRunStats
			err error
		)
		schema, serr := schemas.Table(tp.Domain, tp.Table)
		if serr != nil {
			if rerr := state.Store.Remove(tp.Domain, tp.Table); rerr != nil {
				e.logger.Warnw("table.remove_failed", map[string]any{"domain": tp.Domain, "table": tp.Table, "error": rerr.Error()})
			}
			ts = domain.TableRunStats{Domain: tp.Domain, Table: tp.Table, Error: serr.Error()}
			err = &domain.TableError{Domain: tp.Domain, Table: tp.Table, Err: serr}
		} else {
			ts, err = gen.Generate(ctx, schema, tp)
		}

		stats.TableStats = append(stats.TableStats, ts)
		if e.progress != nil {
			e.progress(i+1, len(ordered), ts)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				stats.DurationSeconds = time.Since(start).Seconds()
				return stats, err
			}
			stats.TablesFailed++
			e.logger.Errorw("table.failed", map[string]any{"domain": tp.Domain, "table": tp.Table, "error": err.Error()})
			continue
		}
		stats.TablesGenerated++
		stats.TotalRows += ts.RowsGenerated
	}

	stats.DurationSeconds = time.Since(start).Seconds()
	e.logger.Infow("run.done", map[string]any{
		"tables_generated": stats.TablesGenerated,
		"tables_failed":    stats.TablesFailed,
		"total_rows":       stats.TotalRows,
		"seconds":          stats.DurationSeconds,
	})
	return stats, nil
}
