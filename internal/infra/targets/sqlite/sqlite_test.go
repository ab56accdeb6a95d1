package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/mmrzaf/mockgen/internal/domain"
)

func TestSQLiteTarget_CreateTruncateInsert(t *testing.T) {
	tgt := NewSQLiteTarget(filepath.Join(t.TempDir(), "mirror.db"))
	if err := tgt.Connect(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tgt.Close() })

	cols := []domain.ColumnSpec{{Name: "MATNR", Type: "int"}, {Name: "ORDER", Type: "varchar"}}
	for i := 0; i < 2; i++ {
		if err := tgt.CreateTableIfNotExists("material_mara", cols); err != nil {
			t.Fatal(err)
		}
	}
	rows := [][]interface{}{{"000123", "a"}, {"000124", nil}}
	if err := tgt.InsertBatch("material_mara", []string{"MATNR", "ORDER"}, rows); err != nil {
		t.Fatal(err)
	}

	var matnr string
	var nulls int
	if err := tgt.DB().QueryRow(`SELECT "MATNR" FROM "material_mara" ORDER BY "MATNR" LIMIT 1`).Scan(&matnr); err != nil {
		t.Fatal(err)
	}
	if matnr != "000123" {
		t.Fatalf("leading zeros must survive, got %q", matnr)
	}
	if err := tgt.DB().QueryRow(`SELECT COUNT(*) FROM "material_mara" WHERE "ORDER" IS NULL`).Scan(&nulls); err != nil {
		t.Fatal(err)
	}
	if nulls != 1 {
		t.Fatalf("expected one NULL, got %d", nulls)
	}

	if err := tgt.TruncateTable("material_mara"); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := tgt.DB().QueryRow(`SELECT COUNT(*) FROM "material_mara"`).Scan(&n); err != nil || n != 0 {
		t.Fatalf("expected empty table after truncate, got %d (%v)", n, err)
	}
	if v, err := tgt.ServerVersion(); err != nil || v == "" {
		t.Fatalf("expected a version, got %q (%v)", v, err)
	}
}
