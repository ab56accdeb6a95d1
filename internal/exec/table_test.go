package exec

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/registry"
)

type recordingTarget struct {
	created   []string
	truncated []string
	rows      [][]interface{}
	columns   []string
	connected bool
	closed    bool
}

func (r *recordingTarget) Connect() error { r.connected = true; return nil }
func (r *recordingTarget) Close() error   { r.closed = true; return nil }

func (r *recordingTarget) CreateTableIfNotExists(table string, columns []domain.ColumnSpec) error {
	r.created = append(r.created, table)
	return nil
}

func (r *recordingTarget) TruncateTable(table string) error {
	r.truncated = append(r.truncated, table)
	return nil
}

func (r *recordingTarget) InsertBatch(table string, columns []string, rows [][]interface{}) error {
	r.columns = columns
	r.rows = append(r.rows, rows...)
	return nil
}

func newTableGenerator(state *State, opts TableOptions, mirrors ...Target) *TableGenerator {
	e := newExecutor(opts)
	return NewTableGenerator(NewDispatcher(e.rules, e.synthetic, state), state, e.opts, nil, mirrors...)
}

func TestGenerate_ColumnOrderOverride(t *testing.T) {
	state := newRunState(t, 3)
	schema := testSchemas()["shop"].Table("customer")
	plan := domain.TablePlan{Domain: "shop", Table: "customer", Rows: 4, ColumnOrder: []string{"TOKEN", "ID"}}

	if _, err := newTableGenerator(state, TableOptions{}).Generate(context.Background(), schema, plan); err != nil {
		t.Fatal(err)
	}
	header, rows, err := state.Store.ReadTable("shop", "customer")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(header, ",") != "TOKEN,ID" {
		t.Fatalf("unexpected header %v", header)
	}
	if rows[0][1] != "100000" || rows[3][1] != "100003" {
		t.Fatalf("sequence must follow the absolute row index, got %v", rows)
	}
}

func TestGenerate_UnknownOrderColumnIsTableFatal(t *testing.T) {
	state := newRunState(t, 3)
	schema := testSchemas()["shop"].Table("customer")
	plan := domain.TablePlan{Domain: "shop", Table: "customer", Rows: 1, ColumnOrder: []string{"ID", "NOPE"}}

	_, err := newTableGenerator(state, TableOptions{}).Generate(context.Background(), schema, plan)
	var te *domain.TableError
	if !errors.As(err, &te) || !errors.Is(err, domain.ErrMissingColumn) {
		t.Fatalf("expected table error wrapping ErrMissingColumn, got %v", err)
	}
}

func TestGenerate_CopyBeforeSourceWarns(t *testing.T) {
	state := newRunState(t, 3)
	schema := &domain.TableSchema{Name: "t", Columns: []domain.ColumnSpec{
		col("B", "varchar", 4, "copy(A)"),
		col("A", "varchar", 4, "default('x')"),
		col("C", "varchar", 4, "bad_rule(1)"),
	}}
	stats, err := newTableGenerator(state, TableOptions{}).Generate(context.Background(), schema, domain.TablePlan{Domain: "d", Table: "t", Rows: 3})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Warnings != 6 {
		t.Fatalf("expected 6 warnings, got %d", stats.Warnings)
	}
	_, rows, _ := state.Store.ReadTable("d", "t")
	for _, r := range rows {
		if r[0] != "" || r[1] != "x" || r[2] != "" {
			t.Fatalf("unexpected row %v", r)
		}
	}
}

func TestGenerate_ZeroRowsWritesHeader(t *testing.T) {
	state := newRunState(t, 3)
	schema := testSchemas()["shop"].Table("customer")
	stats, err := newTableGenerator(state, TableOptions{}).Generate(context.Background(), schema, domain.TablePlan{Domain: "shop", Table: "customer"})
	if err != nil {
		t.Fatal(err)
	}
	header, rows, err := state.Store.ReadTable("shop", "customer")
	if err != nil {
		t.Fatal(err)
	}
	if len(header) != 4 || len(rows) != 0 || stats.Chunks != 0 {
		t.Fatalf("expected header only, got %v %v %+v", header, rows, stats)
	}
}

func TestGenerate_MirrorsReceiveChunks(t *testing.T) {
	state := newRunState(t, 4)
	mirror := &recordingTarget{}
	schema := testSchemas()["shop"].Table("orders")
	plan := domain.TablePlan{Domain: "shop", Table: "orders", Rows: 7}

	stats, err := newTableGenerator(state, TableOptions{ChunkSize: 3, ChunkThreshold: 5}, mirror).Generate(context.Background(), schema, plan)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Chunks != 3 {
		t.Fatalf("expected 3 chunks, got %d", stats.Chunks)
	}
	if len(mirror.created) != 1 || mirror.created[0] != "shop_orders" || len(mirror.truncated) != 1 {
		t.Fatalf("unexpected mirror setup %+v", mirror)
	}
	if len(mirror.rows) != 7 || len(mirror.columns) != 4 {
		t.Fatalf("expected 7 mirrored rows of 4 columns, got %d/%d", len(mirror.rows), len(mirror.columns))
	}
	for _, r := range mirror.rows {
		if r[3] != nil {
			t.Fatalf("empty cells must mirror as NULL, got %#v", r[3])
		}
	}
}

func TestGenerate_PanickingRuleOnlyFailsItsColumn(t *testing.T) {
	state := newRunState(t, 3)
	reg := registry.DefaultRuleRegistry(testNow)
	reg.Register(registry.Common, "explode", func(*registry.Call) (interface{}, error) {
		panic("boom")
	})
	gen := NewTableGenerator(NewDispatcher(reg, nil, state), state, TableOptions{}, nil)

	schema := &domain.TableSchema{Name: "t", Columns: []domain.ColumnSpec{
		col("ID", "int", 4, "sequence(1)"),
		col("BAD", "varchar", 4, "explode"),
		col("WIDE", "int", 19, "uniform_int(0, 9223372036854775807)"),
		col("FLAG", "varchar", 1, "default('Y')"),
	}}
	stats, err := gen.Generate(context.Background(), schema, domain.TablePlan{Domain: "d", Table: "t", Rows: 4})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Warnings != 4 || stats.RowsGenerated != 4 {
		t.Fatalf("expected one warning per row for the panicking column, got %+v", stats)
	}
	_, rows, _ := state.Store.ReadTable("d", "t")
	for _, r := range rows {
		if r[0] == "" || r[1] != "" || r[2] == "" || r[3] != "Y" {
			t.Fatalf("unexpected row %v", r)
		}
	}
}
