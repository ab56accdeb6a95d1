package app

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/entity"
	"github.com/mmrzaf/mockgen/internal/exec"
	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/hashing"
	"github.com/mmrzaf/mockgen/internal/infra/repos/runs"
	"github.com/mmrzaf/mockgen/internal/infra/repos/schemas"
	"github.com/mmrzaf/mockgen/internal/infra/targets"
	"github.com/mmrzaf/mockgen/internal/infra/targets/csvfile"
	"github.com/mmrzaf/mockgen/internal/logging"
	"github.com/mmrzaf/mockgen/internal/registry"
	"github.com/mmrzaf/mockgen/internal/timeutil"
	"github.com/mmrzaf/mockgen/internal/validation"
)

// RunOptions are the per-run settings outside the plan. Zero values fall
// back to the plan, then to defaults.
type RunOptions struct {
	OutputDir      string
	Seed           *int64
	ChunkSize      int64
	ChunkThreshold int64
	ReuseCap       int

	DateFloor   string
	DateCeiling string
	OpenEnded   string

	Mirror *domain.MirrorConfig
}

type RunService struct {
	schemaRepo schemas.Repository
	runRepo    runs.Repository
	rules      *registry.RuleRegistry
	synthetic  *generators.Synthetic
	validator  *validation.Validator
	now        func() time.Time
	logger     *logging.Logger
}

func NewRunService(
	schemaRepo schemas.Repository,
	runRepo runs.Repository,
	rules *registry.RuleRegistry,
	synthetic *generators.Synthetic,
	logger *logging.Logger,
) *RunService {
	if logger == nil {
		logger = logging.Discard()
	}
	if synthetic == nil {
		synthetic = &generators.Synthetic{}
	}
	return &RunService{
		schemaRepo: schemaRepo,
		runRepo:    runRepo,
		rules:      rules,
		synthetic:  synthetic,
		validator:  validation.NewValidator(rules, synthetic),
		now:        time.Now,
		logger:     logger.WithComponent("run"),
	}
}

// ValidatePlan loads the definitions and checks the plan against them.
func (s *RunService) ValidatePlan(plan *domain.Plan) (*validation.Report, map[string]*domain.DomainSchema, error) {
	all, err := s.schemaRepo.LoadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	return s.validator.ValidatePlan(plan, all), all, nil
}

// Run generates every table of the plan and records the run. Table failures
// make the run partial; the returned error is reserved for runs that could
// not start or were cut short.
func (s *RunService) Run(ctx context.Context, plan *domain.Plan, opts RunOptions) (*domain.Run, error) {
	report, all, err := s.ValidatePlan(plan)
	if err != nil {
		return nil, err
	}
	for _, w := range report.Warnings() {
		s.logger.Warnw("plan.warning", map[string]any{"where": w.Where, "message": w.Message})
	}
	if err := report.Err(); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}

	now := s.now()
	entityCfg, err := entityConfig(opts, now)
	if err != nil {
		return nil, err
	}

	seed := generateSeed()
	if opts.Seed != nil {
		seed = *opts.Seed
	} else if plan.Seed != nil {
		seed = *plan.Seed
	}
	reuseCap := opts.ReuseCap
	if reuseCap <= 0 {
		reuseCap = 2
	}

	planned := plannedSchemas(plan, all)
	configHash, err := hashing.HashRunConfig(plan, planned, hashing.RunSettings{
		Seed:      seed,
		ReuseCap:  reuseCap,
		DateFloor: entity.Format(entityCfg.Floor),
		DateCeil:  entity.Format(entityCfg.Ceiling),
		OpenEnded: entity.Format(entityCfg.OpenEnded),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to hash run config: %w", err)
	}

	var mirrors []exec.Target
	if opts.Mirror != nil {
		m, err := targets.New(opts.Mirror)
		if err != nil {
			return nil, err
		}
		mirrors = append(mirrors, m)
		redacted := targets.RedactMirror(opts.Mirror)
		s.logger.Infow("mirror.enabled", map[string]any{"kind": redacted.Kind, "dsn": redacted.DSN})
	}

	run := &domain.Run{
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		OutputDir:   opts.OutputDir,
		Seed:        seed,
		ConfigHash:  configHash,
		Status:      domain.RunStatusRunning,
		StartedAt:   now,
		TablesTotal: len(plan.Tables),
	}
	if err := s.runRepo.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.Info("Starting run %s: plan=%s, tables=%d, seed=%d, output=%s", run.ID, plan.Name, len(plan.Tables), seed, opts.OutputDir)

	state := exec.NewState(csvfile.NewStore(opts.OutputDir), seed, exec.StateOptions{ReuseCap: reuseCap, Entity: entityCfg}, s.logger)
	executor := exec.NewExecutor(s.rules, s.synthetic, exec.TableOptions{
		ChunkSize:      opts.ChunkSize,
		ChunkThreshold: opts.ChunkThreshold,
	}, s.logger)

	executor.OnProgress(s.progress(run))

	stats, execErr := executor.Execute(ctx, exec.Schemas(all), plan, state, mirrors...)
	s.finish(run, stats, execErr)
	if execErr != nil {
		return run, execErr
	}
	return run, nil
}

// progress records table completion on the run. Rows of failed tables are
// left out so the running total matches the final stats.
func (s *RunService) progress(run *domain.Run) exec.ProgressFunc {
	var rows int64
	return func(done, total int, ts domain.TableRunStats) {
		if ts.Error == "" {
			rows += ts.RowsGenerated
		}
		if err := s.runRepo.UpdateProgress(run.ID, done, total, rows, ts.Domain+"."+ts.Table); err != nil {
			s.logger.Warnw("run.progress_failed", map[string]any{"run": run.ID, "error": err.Error()})
		}
	}
}

func (s *RunService) finish(run *domain.Run, stats *domain.RunStats, execErr error) {
	completed := s.now()
	run.CompletedAt = &completed

	if stats != nil {
		statsJSON, _ := json.Marshal(stats)
		run.Stats = statsJSON
		run.TablesDone = len(stats.TableStats)
		run.RowsGenerated = stats.TotalRows
	}
	run.CurrentTable = ""

	switch {
	case execErr != nil:
		run.Status = domain.RunStatusFailed
		run.Error = execErr.Error()
		if errors.Is(execErr, context.Canceled) {
			run.Error = "canceled"
		}
	case stats.TablesFailed == 0:
		run.Status = domain.RunStatusSuccess
	case stats.TablesGenerated == 0:
		run.Status = domain.RunStatusFailed
		run.Error = fmt.Sprintf("all %d tables failed", stats.TablesFailed)
	default:
		run.Status = domain.RunStatusPartial
		run.Error = fmt.Sprintf("%d of %d tables failed", stats.TablesFailed, stats.TablesFailed+stats.TablesGenerated)
	}

	if err := s.runRepo.Update(run); err != nil {
		s.logger.Error("Failed to update run %s: %v", run.ID, err)
	}

	if stats != nil {
		s.logger.Info("Run %s %s: %d tables, %d failed, %d total rows, %.2fs",
			run.ID, run.Status, stats.TablesGenerated, stats.TablesFailed, stats.TotalRows, stats.DurationSeconds)
	}
}

func (s *RunService) GetRun(id string) (*domain.Run, error) {
	return s.runRepo.Get(id)
}

func (s *RunService) ListRuns(limit int, status string) ([]*domain.Run, error) {
	return s.runRepo.List(limit, status)
}

func entityConfig(opts RunOptions, now time.Time) (entity.Config, error) {
	cfg := entity.DefaultConfig()
	for _, f := range []struct {
		name  string
		value string
		dst   *time.Time
	}{
		{"date floor", opts.DateFloor, &cfg.Floor},
		{"date ceiling", opts.DateCeiling, &cfg.Ceiling},
		{"open-ended date", opts.OpenEnded, &cfg.OpenEnded},
	} {
		if f.value == "" {
			continue
		}
		t, err := timeutil.ParseDate(f.value, now)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q: %w", f.name, f.value, err)
		}
		*f.dst = t
	}
	if cfg.Ceiling.Before(cfg.Floor) {
		return cfg, fmt.Errorf("date ceiling %s is before floor %s", entity.Format(cfg.Ceiling), entity.Format(cfg.Floor))
	}
	return cfg, nil
}

// plannedSchemas keeps only the domains the plan touches so unrelated
// definition edits do not change the config hash.
func plannedSchemas(plan *domain.Plan, all map[string]*domain.DomainSchema) map[string]*domain.DomainSchema {
	out := make(map[string]*domain.DomainSchema)
	for _, tp := range plan.Tables {
		if ds, ok := all[tp.Domain]; ok {
			out[tp.Domain] = ds
		}
	}
	return out
}

func generateSeed() int64 {
	var b [8]byte
	rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}
