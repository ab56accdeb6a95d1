package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/mmrzaf/mockgen/internal/app"
	"github.com/mmrzaf/mockgen/internal/config"
	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/domainrules"
	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/infra/repos/runs"
	"github.com/mmrzaf/mockgen/internal/infra/repos/schemas"
	"github.com/mmrzaf/mockgen/internal/logging"
	"github.com/mmrzaf/mockgen/internal/registry"
	"github.com/mmrzaf/mockgen/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfg            *config.Config
	definitionsDir string
	runsDBPath     string
	logLevel       string
)

func main() {
	cfg = config.Load()

	rootCmd := &cobra.Command{
		Use:          "mockgen",
		Short:        "Rule-driven relational mock data generator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&definitionsDir, "definitions-dir", cfg.DefinitionsDir, "Table definitions directory")
	rootCmd.PersistentFlags().StringVar(&runsDBPath, "runs-db", cfg.RunsDBPath, "Runs database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level")

	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(mirrorCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRules builds a fresh registry. Domain rules keep counters, so every
// run gets its own instance.
func newRules(now time.Time) (*registry.RuleRegistry, error) {
	reg := registry.DefaultRuleRegistry(now)
	if err := domainrules.Register(reg, now); err != nil {
		return nil, err
	}
	return reg, nil
}

func newValidator() (*validation.Validator, error) {
	reg, err := newRules(time.Now())
	if err != nil {
		return nil, err
	}
	return validation.NewValidator(reg, &generators.Synthetic{}), nil
}

func printIssues(report *validation.Report) {
	for _, issue := range report.Issues {
		fmt.Println(issue.String())
	}
}

func isPath(arg string) bool {
	if strings.ContainsRune(arg, os.PathSeparator) || strings.Contains(arg, "/") {
		return true
	}
	for _, ext := range []string{".csv", ".yaml", ".yml", ".json"} {
		if strings.HasSuffix(arg, ext) {
			return true
		}
	}
	return false
}

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect table definitions",
	}

	var format string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List domains",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := schemas.NewFileRepository(definitionsDir)
			list, err := repo.List()
			if err != nil {
				return err
			}

			if format == "json" {
				data, _ := json.MarshalIndent(list, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DOMAIN\tTABLES\tCOLUMNS")
			for _, ds := range list {
				cols := 0
				for _, t := range ds.Tables {
					cols += len(t.Columns)
				}
				fmt.Fprintf(w, "%s\t%d\t%d\n", ds.Domain, len(ds.Tables), cols)
			}
			w.Flush()
			return nil
		},
	}
	listCmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <domain> [table]",
		Short: "Show a domain or one of its tables",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := schemas.NewFileRepository(definitionsDir)
			ds, err := repo.Get(args[0])
			if err != nil {
				return err
			}

			var out interface{} = ds
			if len(args) == 2 {
				t := ds.Table(args[1])
				if t == nil {
					return fmt.Errorf("%w: %s.%s", domain.ErrMissingSourceTable, args[0], args[1])
				}
				out = t
			}
			data, _ := yaml.Marshal(out)
			fmt.Println(string(data))
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate <domain|path>",
		Short: "Validate a domain's definitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := schemas.NewFileRepository(definitionsDir)
			var ds *domain.DomainSchema
			var err error

			if isPath(args[0]) {
				ds, err = repo.GetByPath(args[0])
			} else {
				ds, err = repo.Get(args[0])
			}
			if err != nil {
				return err
			}

			validator, err := newValidator()
			if err != nil {
				return err
			}
			report := validator.ValidateSchema(ds)
			printIssues(report)
			if err := report.Err(); err != nil {
				fmt.Printf("Validation failed: %v\n", err)
				return err
			}

			fmt.Printf("Domain '%s' is valid (%d warnings)\n", ds.Domain, len(report.Warnings()))
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd, validateCmd)
	return cmd
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect generation plans",
	}

	planPath := func(args []string) string {
		if len(args) == 1 {
			return args[0]
		}
		return cfg.PlanPath
	}

	showCmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Show a plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := schemas.LoadPlan(planPath(args))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "PLAN\t%s\n\n", plan.Name)
			fmt.Fprintln(w, "ORDER\tTABLE\tROWS")
			for _, tp := range plan.Tables {
				fmt.Fprintf(w, "%d\t%s\t%d\n", tp.GenOrder, tp.Key(), tp.Rows)
			}
			w.Flush()
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a plan against the definitions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := schemas.LoadPlan(planPath(args))
			if err != nil {
				return err
			}
			all, err := schemas.NewFileRepository(definitionsDir).LoadAll()
			if err != nil {
				return err
			}

			validator, err := newValidator()
			if err != nil {
				return err
			}
			report := validator.ValidatePlan(plan, all)
			printIssues(report)
			if err := report.Err(); err != nil {
				fmt.Printf("Validation failed: %v\n", err)
				return err
			}

			if order, err := validation.DependencyOrder(plan, all); err == nil {
				fmt.Printf("Suggested order: %s\n", strings.Join(order, ", "))
			} else {
				fmt.Printf("No dependency order: %v\n", err)
			}
			fmt.Printf("Plan '%s' is valid (%d warnings)\n", plan.Name, len(report.Warnings()))
			return nil
		},
	}

	cmd.AddCommand(showCmd, validateCmd)
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	var (
		planPath       string
		tableName      string
		rows           int64
		outputDir      string
		seed           int64
		hasSeed        bool
		chunkSize      int64
		chunkThreshold int64
		reuseCap       int
		dateFloor      string
		dateCeiling    string
		openEnded      string
		mirrorKind     string
		mirrorDSN      string
		mirrorSchema   string
		mirrorDatabase string
	)

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Generate the tables of a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger(logLevel)

			var plan *domain.Plan
			if tableName != "" {
				parts := strings.SplitN(tableName, ".", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid table %q, expected domain.table", tableName)
				}
				if rows < 0 {
					return fmt.Errorf("invalid rows value: %d", rows)
				}
				plan = schemas.PlanFor(parts[0], parts[1], rows)
			} else {
				var err error
				if plan, err = schemas.LoadPlan(planPath); err != nil {
					return err
				}
			}

			runRepo := runs.NewSQLiteRepository(runsDBPath)
			if err := runRepo.Init(); err != nil {
				return err
			}
			defer runRepo.Close()

			now := time.Now()
			reg, err := newRules(now)
			if err != nil {
				return err
			}
			runService := app.NewRunService(schemas.NewFileRepository(definitionsDir), runRepo, reg, &generators.Synthetic{}, logger)

			opts := app.RunOptions{
				OutputDir:      outputDir,
				ChunkSize:      chunkSize,
				ChunkThreshold: chunkThreshold,
				ReuseCap:       reuseCap,
				DateFloor:      dateFloor,
				DateCeiling:    dateCeiling,
				OpenEnded:      openEnded,
			}
			if hasSeed {
				opts.Seed = &seed
			}
			if mirrorKind != "" {
				opts.Mirror = &domain.MirrorConfig{
					Kind:     mirrorKind,
					DSN:      mirrorDSN,
					Schema:   mirrorSchema,
					Database: mirrorDatabase,
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run, err := runService.Run(ctx, plan, opts)
			if run == nil {
				return err
			}

			fmt.Printf("Run %s: %s\n", run.ID, run.Status)
			if run.Stats != nil {
				var stats domain.RunStats
				if json.Unmarshal(run.Stats, &stats) == nil {
					w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "TABLE\tROWS\tWARNINGS\tSECONDS\tERROR")
					for _, ts := range stats.TableStats {
						fmt.Fprintf(w, "%s.%s\t%d\t%d\t%.2f\t%s\n",
							ts.Domain, ts.Table, ts.RowsGenerated, ts.Warnings, ts.DurationSeconds, ts.Error)
					}
					w.Flush()
					fmt.Printf("Total rows: %d\n", stats.TotalRows)
					fmt.Printf("Duration: %.2fs\n", stats.DurationSeconds)
				}
			}
			if err != nil {
				return err
			}
			if run.Status != domain.RunStatusSuccess {
				return fmt.Errorf("run %s: %s", run.Status, run.Error)
			}
			return nil
		},
	}

	startCmd.Flags().StringVar(&planPath, "plan", cfg.PlanPath, "Plan file path")
	startCmd.Flags().StringVar(&tableName, "table", "", "Generate a single table (domain.table) instead of a plan")
	startCmd.Flags().Int64Var(&rows, "rows", 100, "Rows for --table")
	startCmd.Flags().StringVarP(&outputDir, "output-dir", "o", cfg.OutputDir, "Output directory")
	startCmd.Flags().Int64VarP(&seed, "seed", "s", 0, "Seed for RNG")
	startCmd.Flags().Int64Var(&chunkSize, "chunk-size", cfg.ChunkSize, "Rows per chunk")
	startCmd.Flags().Int64Var(&chunkThreshold, "chunk-threshold", cfg.ChunkThreshold, "Row count from which tables are chunked")
	startCmd.Flags().IntVar(&reuseCap, "reuse-cap", cfg.ReuseCap, "Times a foreign key value may be drawn before its pool resets")
	startCmd.Flags().StringVar(&dateFloor, "date-floor", cfg.DateFloor, "Earliest entity start date")
	startCmd.Flags().StringVar(&dateCeiling, "date-ceiling", cfg.DateCeiling, "Latest entity start date")
	startCmd.Flags().StringVar(&openEnded, "open-ended", cfg.OpenEnded, "End date of current entity records")
	startCmd.Flags().StringVar(&mirrorKind, "mirror-kind", cfg.MirrorKind, "Mirror database kind (sqlite|postgres|elasticsearch)")
	startCmd.Flags().StringVar(&mirrorDSN, "mirror-dsn", cfg.MirrorDSN, "Mirror database DSN")
	startCmd.Flags().StringVar(&mirrorSchema, "mirror-schema", cfg.MirrorSchema, "Mirror schema")
	startCmd.Flags().StringVar(&mirrorDatabase, "mirror-database", cfg.MirrorDatabase, "Mirror database name")
	startCmd.PreRun = func(cmd *cobra.Command, args []string) {
		hasSeed = cmd.Flags().Changed("seed")
	}

	var limit int
	var status string
	var format string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepo := runs.NewSQLiteRepository(runsDBPath)
			if err := runRepo.Init(); err != nil {
				return err
			}
			defer runRepo.Close()

			list, err := runRepo.List(limit, status)
			if err != nil {
				return err
			}

			if format == "json" {
				data, _ := json.MarshalIndent(list, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPLAN\tSTATUS\tTABLES\tROWS\tSEED\tSTARTED")
			for _, r := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\t%s\t%s\n",
					r.ID[:8], r.PlanName, r.Status, r.TablesDone, r.TablesTotal, r.RowsGenerated,
					strconv.FormatInt(r.Seed, 10), r.StartedAt.Format("2006-01-02 15:04"))
			}
			w.Flush()
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Limit results")
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status")
	listCmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <run_id>",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepo := runs.NewSQLiteRepository(runsDBPath)
			if err := runRepo.Init(); err != nil {
				return err
			}
			defer runRepo.Close()

			run, err := runRepo.Get(args[0])
			if err != nil {
				return err
			}

			data, _ := yaml.Marshal(run)
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.AddCommand(startCmd, listCmd, showCmd)
	return cmd
}

func mirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror database tools",
	}

	var kind, dsn, schema, database string

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check that a mirror database is reachable and writable",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" {
				return fmt.Errorf("--kind is required")
			}
			check, err := app.CheckMirror(&domain.MirrorConfig{Kind: kind, DSN: dsn, Schema: schema, Database: database})
			data, _ := json.MarshalIndent(check, "", "  ")
			fmt.Println(string(data))
			return err
		},
	}
	checkCmd.Flags().StringVar(&kind, "kind", cfg.MirrorKind, "Mirror database kind (sqlite|postgres|elasticsearch)")
	checkCmd.Flags().StringVar(&dsn, "dsn", cfg.MirrorDSN, "Mirror database DSN")
	checkCmd.Flags().StringVar(&schema, "schema", cfg.MirrorSchema, "Mirror schema")
	checkCmd.Flags().StringVar(&database, "database", cfg.MirrorDatabase, "Mirror database name")

	cmd.AddCommand(checkCmd)
	return cmd
}
