package registry

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/mmrzaf/mockgen/internal/entity"
	"github.com/mmrzaf/mockgen/internal/lookup"
)

type tableSource map[string][][]string

func (s tableSource) ReadTable(d, table string) ([]string, [][]string, error) {
	t, ok := s[d+"."+table]
	if !ok {
		return nil, nil, errors.New("missing")
	}
	return t[0], t[1:], nil
}

func TestResolve_DomainThenCommon(t *testing.T) {
	r := DefaultRuleRegistry(time.Now())
	r.Register("vendor", "default", func(*Call) (interface{}, error) { return "vendor", nil })

	rule, err := r.Resolve("vendor", "default")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := rule.Fn(&Call{}); v != "vendor" {
		t.Fatalf("domain rule should shadow the built-in, got %v", v)
	}

	rule, err = r.Resolve("customer", "default")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := rule.Fn(&Call{Args: []interface{}{"x"}}); v != "x" {
		t.Fatalf("expected built-in passthrough, got %v", v)
	}

	if _, err := r.Resolve("customer", "nope"); !errors.Is(err, ErrUnknownRule) {
		t.Fatalf("expected ErrUnknownRule, got %v", err)
	}
	if got := r.Domains(); len(got) != 1 || got[0] != "vendor" {
		t.Fatalf("unexpected domains %v", got)
	}
}

func TestRegister_RowIndexFlagAndArity(t *testing.T) {
	r := DefaultRuleRegistry(time.Now())

	seq, _ := r.Resolve("any", "sequence")
	if !seq.WantsRowIndex {
		t.Fatal("sequence must request the row index")
	}
	choice, _ := r.Resolve("any", "choice")
	if choice.WantsRowIndex {
		t.Fatal("choice must not request the row index")
	}
	if err := choice.CheckArity(0); err == nil {
		t.Fatal("choice with no values should fail arity")
	}
	lookupRule, _ := r.Resolve("any", "lookup_parent_value")
	if err := lookupRule.CheckArity(3); err == nil {
		t.Fatal("lookup_parent_value needs four arguments")
	}
}

func TestLookupParentValue(t *testing.T) {
	cache := lookup.New(tableSource{
		"customer.but000": {{"PARTNER", "COUNTRY"}, {"100", "USA"}, {"101", "CANADA"}},
	}, nil)
	c := &Call{Domain: "customer", Lookups: cache, Args: []interface{}{"but000", "PARTNER", "COUNTRY", "101"}}

	v, err := LookupParentValue(c)
	if err != nil || v != "CANADA" {
		t.Fatalf("unexpected %v %v", v, err)
	}
	c.Args[3] = "999"
	if v, err := LookupParentValue(c); err != nil || v != nil {
		t.Fatalf("missing key should be nil, got %v %v", v, err)
	}
}

func TestEntityDates_ShareOneSightingPerRow(t *testing.T) {
	state := entity.NewState(entity.DefaultConfig(), rand.New(rand.NewSource(5)))
	call := func(row int64) *Call {
		return &Call{Domain: "employee", Table: "pa0001", Row: row, Entities: state, Args: []interface{}{"00000042"}}
	}

	end0, _ := EntityEndDate(call(0))
	start0, _ := EntityStartDate(call(0))
	if end0 != "4712-12-31" {
		t.Fatalf("first sighting must be open-ended, got %v", end0)
	}

	start1, _ := EntityStartDate(call(1))
	end1, _ := EntityEndDate(call(1))
	s0, _ := time.Parse("2006-01-02", start0.(string))
	e1, _ := time.Parse("2006-01-02", end1.(string))
	s1, _ := time.Parse("2006-01-02", start1.(string))
	if !e1.Equal(s0.AddDate(0, 0, -1)) {
		t.Fatalf("second end %s should be the day before first start %s", end1, start0)
	}
	if s1.After(e1) {
		t.Fatalf("start %s after end %s", start1, end1)
	}
}
