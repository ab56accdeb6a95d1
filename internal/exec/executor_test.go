package exec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/infra/targets/csvfile"
	"github.com/mmrzaf/mockgen/internal/registry"
)

var testNow = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func newExecutor(opts TableOptions) *Executor {
	return NewExecutor(registry.DefaultRuleRegistry(testNow), &generators.Synthetic{Now: func() time.Time { return testNow }}, opts, nil)
}

func newRunState(t *testing.T, seed int64) *State {
	t.Helper()
	return NewState(csvfile.NewStore(t.TempDir()), seed, StateOptions{}, nil)
}

func col(name, typ string, length int, rule string) domain.ColumnSpec {
	return domain.ColumnSpec{Name: name, Type: typ, Length: length, Rule: rule}
}

func testSchemas() Schemas {
	return Schemas{
		"shop": &domain.DomainSchema{
			Domain: "shop",
			Tables: []domain.TableSchema{
				{Name: "customer", Columns: []domain.ColumnSpec{
					col("ID", "int", 6, "sequence(100000)"),
					col("SEGMENT", "varchar", 1, "choice('A', 'B', 'C')"),
					col("SCORE", "int", 3, "uniform_int(1, 100)"),
					col("TOKEN", "varchar", 36, "uuid4"),
				}},
				{Name: "orders", Columns: []domain.ColumnSpec{
					col("ORDER_ID", "int", 8, "sequence(1)"),
					col("CUSTOMER", "int", 6, "foreign_key(customer.ID)"),
					col("CUSTOMER_COPY", "int", 6, "copy(CUSTOMER)"),
					col("NOTE", "varchar", 10, "null"),
				}},
				{Name: "profile", Columns: []domain.ColumnSpec{
					col("CUSTOMER", "int", 6, "foreign_key(customer.ID, 1:1)"),
					col("SEGMENT", "varchar", 1, "lookup_parent_value('customer', 'ID', 'SEGMENT', CUSTOMER)"),
				}},
				{Name: "orphan", Columns: []domain.ColumnSpec{
					col("REF", "int", 6, "foreign_key(nowhere.ID)"),
					col("FLAG", "varchar", 1, "default('Y')"),
				}},
			},
		},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestExecute_ChunkedOutputMatchesWholeTable(t *testing.T) {
	plan := &domain.Plan{Name: "p", Tables: []domain.TablePlan{{Domain: "shop", Table: "customer", Rows: 23}}}
	schemas := testSchemas()
	customer := schemas["shop"].Table("customer")
	customer.Columns = append(customer.Columns,
		col("LABEL", "varchar", 12, ""),
		col("CONTACT", "varchar", 40, "faker.name()"),
	)

	whole := newRunState(t, 11)
	if _, err := newExecutor(TableOptions{ChunkThreshold: 1000}).Execute(context.Background(), schemas, plan, whole); err != nil {
		t.Fatal(err)
	}
	chunked := newRunState(t, 11)
	stats, err := newExecutor(TableOptions{ChunkSize: 5, ChunkThreshold: 10}).Execute(context.Background(), schemas, plan, chunked)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TableStats[0].Chunks != 5 {
		t.Fatalf("expected 5 chunks, got %d", stats.TableStats[0].Chunks)
	}

	a := readFile(t, whole.Store.Path("shop", "customer"))
	b := readFile(t, chunked.Store.Path("shop", "customer"))
	if a != b {
		t.Fatalf("chunked output differs from whole output:\n%s\n---\n%s", a, b)
	}
	if strings.Count(b, "ID,SEGMENT,SCORE,TOKEN,LABEL,CONTACT") != 1 {
		t.Fatal("header must be written exactly once")
	}
	if lines := strings.Count(b, "\n"); lines != 24 {
		t.Fatalf("expected header plus 23 rows, got %d lines", lines)
	}
}

func TestExecute_ForeignKeysCopyAndLookup(t *testing.T) {
	state := newRunState(t, 5)
	plan := &domain.Plan{Tables: []domain.TablePlan{
		{Domain: "shop", Table: "profile", Rows: 10, GenOrder: 3},
		{Domain: "shop", Table: "orders", Rows: 40, GenOrder: 2},
		{Domain: "shop", Table: "customer", Rows: 10, GenOrder: 1},
	}}
	stats, err := newExecutor(TableOptions{}).Execute(context.Background(), testSchemas(), plan, state)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TablesGenerated != 3 || stats.TablesFailed != 0 || stats.TotalRows != 60 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.TableStats[0].Table != "customer" || stats.TableStats[2].Table != "profile" {
		t.Fatal("tables must run in gen_order")
	}

	_, customers, err := state.Store.ReadTable("shop", "customer")
	if err != nil {
		t.Fatal(err)
	}
	segment := make(map[string]string)
	for _, r := range customers {
		segment[r[0]] = r[1]
	}

	_, orders, err := state.Store.ReadTable("shop", "orders")
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range orders {
		if _, ok := segment[r[1]]; !ok {
			t.Fatalf("order %d references unknown customer %q", i, r[1])
		}
		if r[2] != r[1] {
			t.Fatalf("order %d: copy %q differs from source %q", i, r[2], r[1])
		}
		if r[3] != "" {
			t.Fatalf("order %d: null rule must be empty, got %q", i, r[3])
		}
	}

	_, profiles, err := state.Store.ReadTable("shop", "profile")
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for i, r := range profiles {
		if seen[r[0]] {
			t.Fatalf("1:1 key %q used twice", r[0])
		}
		seen[r[0]] = true
		if r[1] != segment[r[0]] {
			t.Fatalf("profile %d: lookup gave %q, parent has %q", i, r[1], segment[r[0]])
		}
	}
}

func TestExecute_MissingSourceDegradesPerRow(t *testing.T) {
	state := newRunState(t, 1)
	plan := &domain.Plan{Tables: []domain.TablePlan{{Domain: "shop", Table: "orphan", Rows: 4}}}
	stats, err := newExecutor(TableOptions{}).Execute(context.Background(), testSchemas(), plan, state)
	if err != nil {
		t.Fatal(err)
	}
	ts := stats.TableStats[0]
	if ts.Error != "" || ts.RowsGenerated != 4 || ts.Warnings != 4 {
		t.Fatalf("expected 4 rows with 4 warnings, got %+v", ts)
	}
	_, rows, err := state.Store.ReadTable("shop", "orphan")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r[0] != "" || r[1] != "Y" {
			t.Fatalf("unexpected row %v", r)
		}
	}
}

func TestExecute_InsufficientOneToOneIsTableFatal(t *testing.T) {
	state := newRunState(t, 2)
	plan := &domain.Plan{Tables: []domain.TablePlan{
		{Domain: "shop", Table: "customer", Rows: 3, GenOrder: 1},
		{Domain: "shop", Table: "profile", Rows: 5, GenOrder: 2},
		{Domain: "shop", Table: "orders", Rows: 2, GenOrder: 3},
		{Domain: "shop", Table: "missing", Rows: 2, GenOrder: 4},
	}}
	stats, err := newExecutor(TableOptions{}).Execute(context.Background(), testSchemas(), plan, state)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TablesGenerated != 2 || stats.TablesFailed != 2 {
		t.Fatalf("expected 2 generated and 2 failed, got %+v", stats)
	}
	if !strings.Contains(stats.TableStats[1].Error, domain.ErrInsufficientCandidates.Error()) {
		t.Fatalf("unexpected profile error %q", stats.TableStats[1].Error)
	}
	if stats.TableStats[2].RowsGenerated != 2 {
		t.Fatal("run must continue after a failed table")
	}
}

func TestExecute_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := &domain.Plan{Tables: []domain.TablePlan{{Domain: "shop", Table: "customer", Rows: 3}}}
	_, err := newExecutor(TableOptions{}).Execute(ctx, testSchemas(), plan, newRunState(t, 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOrdered_StableOnTies(t *testing.T) {
	in := []domain.TablePlan{
		{Table: "c", GenOrder: 2},
		{Table: "a", GenOrder: 1},
		{Table: "d", GenOrder: 2},
		{Table: "b", GenOrder: 1},
	}
	var got []string
	for _, p := range Ordered(in) {
		got = append(got, p.Table)
	}
	if strings.Join(got, "") != "abcd" {
		t.Fatalf("unexpected order %v", got)
	}
	if in[0].Table != "c" {
		t.Fatal("input must not be reordered")
	}
}

func TestExecute_ReportsProgress(t *testing.T) {
	plan := &domain.Plan{Tables: []domain.TablePlan{
		{Domain: "shop", Table: "customer", Rows: 2, GenOrder: 1},
		{Domain: "shop", Table: "missing", Rows: 2, GenOrder: 2},
	}}
	var done []int
	e := newExecutor(TableOptions{})
	e.OnProgress(func(d, total int, ts domain.TableRunStats) {
		if total != 2 {
			t.Fatalf("unexpected total %d", total)
		}
		done = append(done, d)
	})
	if _, err := e.Execute(context.Background(), testSchemas(), plan, newRunState(t, 1)); err != nil {
		t.Fatal(err)
	}
	if len(done) != 2 || done[1] != 2 {
		t.Fatalf("expected progress for both tables, got %v", done)
	}
}

func TestExecute_FailedTableDropsStaleOutput(t *testing.T) {
	state := newRunState(t, 8)
	for _, table := range []string{"customer", "ghost"} {
		path := state.Store.Path("shop", table)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("ID,SEGMENT,SCORE,TOKEN\n999999,A,1,x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	plan := &domain.Plan{Tables: []domain.TablePlan{
		{Domain: "shop", Table: "customer", Rows: 5, GenOrder: 1, ColumnOrder: []string{"ID", "NOPE"}},
		{Domain: "shop", Table: "ghost", Rows: 1, GenOrder: 2},
		{Domain: "shop", Table: "orders", Rows: 4, GenOrder: 3},
	}}
	stats, err := newExecutor(TableOptions{}).Execute(context.Background(), testSchemas(), plan, state)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TablesFailed != 2 || stats.TablesGenerated != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	for _, table := range []string{"customer", "ghost"} {
		if _, err := os.Stat(state.Store.Path("shop", table)); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("stale %s output must be removed, got %v", table, err)
		}
	}

	_, orders, err := state.Store.ReadTable("shop", "orders")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range orders {
		if r[1] != "" {
			t.Fatalf("foreign key must not come from stale output, got %q", r[1])
		}
	}
}
