package exec

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/logging"
	"github.com/mmrzaf/mockgen/internal/rules"
)

const (
	DefaultChunkSize      int64 = 5000
	DefaultChunkThreshold int64 = 5000
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseFlushing   Phase = "flushing"
	PhaseDone       Phase = "done"
)

type TableOptions struct {
	// Tables with at least ChunkThreshold rows are written ChunkSize rows at
	// a time; smaller tables are written in one pass.
	ChunkSize      int64
	ChunkThreshold int64
}

func (o TableOptions) withDefaults() TableOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkThreshold <= 0 {
		o.ChunkThreshold = DefaultChunkThreshold
	}
	return o
}

// Target is a database that receives a copy of every flushed chunk. CSV
// output stays authoritative; a target never feeds lookups or pools.
type Target interface {
	Connect() error
	Close() error
	CreateTableIfNotExists(table string, columns []domain.ColumnSpec) error
	TruncateTable(table string) error
	InsertBatch(table string, columns []string, rows [][]interface{}) error
}

// MirrorTable is the table name a target uses for domain.table.
func MirrorTable(domainName, table string) string {
	return domainName + "_" + table
}

// mirrorRows converts CSV cells for a database insert. Empty cells become NULL.
func mirrorRows(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		vals := make([]interface{}, len(row))
		for j, cell := range row {
			if cell != "" {
				vals[j] = cell
			}
		}
		out[i] = vals
	}
	return out
}

type TableGenerator struct {
	dispatcher *Dispatcher
	state      *State
	opts       TableOptions
	mirrors    []Target
	logger     *logging.Logger
}

func NewTableGenerator(dispatcher *Dispatcher, state *State, opts TableOptions, logger *logging.Logger, mirrors ...Target) *TableGenerator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &TableGenerator{
		dispatcher: dispatcher,
		state:      state,
		opts:       opts.withDefaults(),
		mirrors:    mirrors,
		logger:     logger.WithComponent("table"),
	}
}

// tableRun tracks one table through Idle -> Generating -> Flushing -> Done.
type tableRun struct {
	tc       TableContext
	cols     []Column
	order    []int
	header   []string
	phase    Phase
	warnings int64
	warned   map[string]bool
	logger   *logging.Logger
}

func (r *tableRun) enter(p Phase) {
	r.phase = p
	r.logger.Debugw("table.phase", map[string]any{"phase": string(p)})
}

// Generate writes plan.Rows rows for one table. A returned error is
// table-fatal and always a *domain.TableError; per-column failures only
// count as warnings.
func (g *TableGenerator) Generate(ctx context.Context, schema *domain.TableSchema, plan domain.TablePlan) (domain.TableRunStats, error) {
	start := time.Now()
	stats := domain.TableRunStats{Domain: plan.Domain, Table: plan.Table}
	fail := func(err error) (domain.TableRunStats, error) {
		stats.DurationSeconds = time.Since(start).Seconds()
		stats.Error = err.Error()
		return stats, &domain.TableError{Domain: plan.Domain, Table: plan.Table, Err: err}
	}

	// Prior output must not feed later tables if this one fails early.
	if err := g.state.Store.Remove(plan.Domain, plan.Table); err != nil {
		return fail(fmt.Errorf("%w: remove stale output: %v", domain.ErrSinkWrite, err))
	}
	seed := g.state.TableSeed(plan.Domain, plan.Table)
	generators.SeedFaker(seed ^ 0xfa4e)

	run := &tableRun{
		tc: TableContext{
			Domain: plan.Domain,
			Table:  plan.Table,
			Rows:   plan.Rows,
			Rand:   rand.New(rand.NewSource(seed)),
		},
		cols:   g.dispatcher.Compile(plan.Domain, schema),
		phase:  PhaseIdle,
		warned: make(map[string]bool),
		logger: g.logger.With(map[string]any{"domain": plan.Domain, "table": plan.Table}),
	}
	g.logStructure(run)

	order, header, err := outputOrder(schema, plan.ColumnOrder)
	if err != nil {
		return fail(err)
	}
	run.order, run.header = order, header

	if err := g.preflight(run); err != nil {
		return fail(err)
	}

	w, err := g.state.Store.Create(plan.Domain, plan.Table)
	if err != nil {
		return fail(err)
	}
	defer w.Close()
	stats.OutputPath = w.Path()

	outSpecs := make([]domain.ColumnSpec, len(order))
	for i, idx := range order {
		outSpecs[i] = schema.Columns[idx]
	}
	mirrorName := MirrorTable(plan.Domain, plan.Table)
	for _, m := range g.mirrors {
		if err := m.CreateTableIfNotExists(mirrorName, outSpecs); err != nil {
			return fail(fmt.Errorf("%w: mirror: %v", domain.ErrSinkWrite, err))
		}
		if err := m.TruncateTable(mirrorName); err != nil {
			return fail(fmt.Errorf("%w: mirror: %v", domain.ErrSinkWrite, err))
		}
	}

	chunk := plan.Rows
	if plan.Rows >= g.opts.ChunkThreshold {
		chunk = g.opts.ChunkSize
	}

	// The header goes out even for zero rows so the table exists for
	// later lookups.
	if err := w.WriteHeader(header); err != nil {
		return fail(err)
	}

	for written := int64(0); written < plan.Rows; {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		n := chunk
		if rest := plan.Rows - written; rest < n {
			n = rest
		}

		run.enter(PhaseGenerating)
		t0 := time.Now()
		batch := make([][]string, 0, n)
		for i := int64(0); i < n; i++ {
			batch = append(batch, g.generateRow(run, written+i))
		}

		run.enter(PhaseFlushing)
		if err := w.WriteRows(batch); err != nil {
			return fail(err)
		}
		for _, m := range g.mirrors {
			if err := m.InsertBatch(mirrorName, header, mirrorRows(batch)); err != nil {
				return fail(fmt.Errorf("%w: mirror: %v", domain.ErrSinkWrite, err))
			}
		}
		stats.Chunks++
		written += n
		stats.RowsGenerated = written
		run.logger.Infow("table.chunk", map[string]any{
			"from":        written - n + 1,
			"to":          written,
			"duration_ms": time.Since(t0).Milliseconds(),
		})
	}

	if err := w.Close(); err != nil {
		return fail(err)
	}
	run.enter(PhaseDone)

	stats.Warnings = run.warnings
	stats.DurationSeconds = time.Since(start).Seconds()
	run.logger.Infow("table.done", map[string]any{
		"rows":     stats.RowsGenerated,
		"chunks":   stats.Chunks,
		"warnings": stats.Warnings,
		"path":     stats.OutputPath,
		"seconds":  stats.DurationSeconds,
	})
	return stats, nil
}

// generateRow evaluates every column in schema order and projects the row
// into output order.
func (g *TableGenerator) generateRow(run *tableRun, index int64) []string {
	row := NewRowContext(index, len(run.cols))
	for i := range run.cols {
		col := &run.cols[i]
		v, err := g.dispatcher.Evaluate(&run.tc, col, row)
		if err != nil {
			run.warnings++
			fields := map[string]any{"column": col.Spec.Name, "row": index, "rule": col.Expr.Text, "error": err.Error()}
			if !run.warned[col.Spec.Name] {
				run.warned[col.Spec.Name] = true
				run.logger.Warnw("column.failed", fields)
			} else {
				run.logger.Debugw("column.failed", fields)
			}
			v = nil
		}
		row.Set(col.Spec.Name, v)
	}

	out := make([]string, len(run.order))
	for i, idx := range run.order {
		v, _ := row.Get(run.cols[idx].Spec.Name)
		out[i] = domain.FormatValue(v)
	}
	return out
}

// preflight rejects 1:1 foreign keys whose pool is smaller than the table.
// A missing source table is left to per-row degradation.
func (g *TableGenerator) preflight(run *tableRun) error {
	for _, col := range run.cols {
		if col.Expr.Kind != rules.KindForeignKey || col.Expr.Cardinality != rules.OneToOne || col.Err != nil {
			continue
		}
		t := col.Expr.Target
		d := t.Domain
		if d == "" {
			d = run.tc.Domain
		}
		size, err := g.state.Pools.Size(d, t.Table, t.Column)
		if err != nil {
			if errors.Is(err, domain.ErrMissingSourceTable) || errors.Is(err, domain.ErrMissingColumn) {
				run.logger.Warnw("fk.source_missing", map[string]any{"column": col.Spec.Name, "target": t.String(), "error": err.Error()})
				continue
			}
			return err
		}
		if int64(size) < run.tc.Rows {
			return fmt.Errorf("%w: %s needs %d values, %s has %d",
				domain.ErrInsufficientCandidates, col.Spec.Name, run.tc.Rows, t.String(), size)
		}
	}
	return nil
}

func (g *TableGenerator) logStructure(run *tableRun) {
	if !g.logger.Enabled(logging.LevelDebug) {
		return
	}
	for _, col := range run.cols {
		rule := col.Expr.Text
		if rule == "" {
			rule = "-"
		}
		run.logger.Debug("[GEN] %s | %s(%d) | %s [%s]", col.Spec.Name, col.Spec.Type, col.Spec.Length, rule, col.Expr.Kind)
	}
}

// outputOrder maps an optional column order onto schema indexes. Without an
// override the declaration order is used.
func outputOrder(schema *domain.TableSchema, override []string) ([]int, []string, error) {
	if len(override) == 0 {
		order := make([]int, len(schema.Columns))
		for i := range order {
			order[i] = i
		}
		return order, schema.ColumnNames(), nil
	}

	index := make(map[string]int, len(schema.Columns))
	for i, c := range schema.Columns {
		index[c.Name] = i
	}
	order := make([]int, 0, len(override))
	header := make([]string, 0, len(override))
	var unknown []string
	for _, name := range override {
		name = strings.TrimSpace(name)
		i, ok := index[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		order = append(order, i)
		header = append(header, name)
	}
	if len(unknown) > 0 {
		return nil, nil, fmt.Errorf("%w: column_order names %s", domain.ErrMissingColumn, strings.Join(unknown, ", "))
	}
	return order, header, nil
}
