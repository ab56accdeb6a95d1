package postgres

import "testing"

func TestBuildInsert_NumbersPlaceholdersAcrossRows(t *testing.T) {
	query, args := buildInsert(`INSERT INTO "public"."t" ("A", "B") VALUES `, 2, [][]interface{}{{"1", nil}, {"2"}})
	want := `INSERT INTO "public"."t" ("A", "B") VALUES ($1, $2), ($3, $4)`
	if query != want {
		t.Fatalf("unexpected query:\n%s\nwant:\n%s", query, want)
	}
	if len(args) != 4 || args[0] != "1" || args[1] != nil || args[2] != "2" || args[3] != nil {
		t.Fatalf("unexpected args %#v", args)
	}
}

func TestQualified_QuotesIdentifiers(t *testing.T) {
	tgt := NewPostgresTarget("", "")
	if got := tgt.qualified(`material_"mara`); got != `"public"."material_""mara"` {
		t.Fatalf("unexpected qualified name %s", got)
	}
}
