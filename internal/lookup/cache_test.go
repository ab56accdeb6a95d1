package lookup

import (
	"fmt"
	"testing"

	"github.com/mmrzaf/mockgen/internal/domain"
)

type fakeSource struct {
	tables map[string][][]string
	reads  int
}

func (f *fakeSource) ReadTable(d, table string) ([]string, [][]string, error) {
	f.reads++
	t, ok := f.tables[d+"."+table]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s.%s", domain.ErrMissingSourceTable, d, table)
	}
	return t[0], t[1:], nil
}

func TestLookup_FirstWinsAndCached(t *testing.T) {
	src := &fakeSource{tables: map[string][][]string{
		"material.smara": {
			{"PRODUCT", "MTART", "PLANT"},
			{"001N00001", "HAWA", "US32"},
			{"002S00002", "FERT", "CA32"},
			{"001N00001", "DIEN", "CA32"},
		},
	}}
	c := New(src, nil)

	v, ok := c.Lookup("material", "smara", "PRODUCT", "MTART", "001N00001")
	if !ok || v != "HAWA" {
		t.Fatalf("expected first-seen row HAWA, got %q/%v", v, ok)
	}
	v, ok = c.Lookup("material", "smara", "PRODUCT", "PLANT", "002S00002")
	if !ok || v != "CA32" {
		t.Fatalf("unexpected value %q/%v", v, ok)
	}
	if src.reads != 1 {
		t.Fatalf("expected one read for the same index, got %d", src.reads)
	}

	row, ok := c.Row("material", "smara", "PRODUCT", "001N00001")
	if !ok || row["PLANT"] != "US32" {
		t.Fatalf("unexpected row %#v", row)
	}
}

func TestLookup_MissingYieldsNotFound(t *testing.T) {
	src := &fakeSource{tables: map[string][][]string{
		"d.t": {{"K", "V"}, {"1", "one"}},
	}}
	c := New(src, nil)

	if _, ok := c.Lookup("d", "absent", "K", "V", "1"); ok {
		t.Fatal("missing table must be not found")
	}
	if _, ok := c.Lookup("d", "t", "K", "V", "2"); ok {
		t.Fatal("missing key must be not found")
	}
	if _, ok := c.Lookup("d", "t", "K", "NOPE", "1"); ok {
		t.Fatal("missing value column must be not found")
	}
	if _, ok := c.Lookup("d", "t", "NOPE", "V", "1"); ok {
		t.Fatal("missing key column must be not found")
	}
}
