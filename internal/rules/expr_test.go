package rules

import (
	"errors"
	"testing"
)

func TestParse_Classification(t *testing.T) {
	cases := []struct {
		text string
		kind Kind
	}{
		{"", KindTypeDefault},
		{"   ", KindTypeDefault},
		{"null", KindNone},
		{"faker.name()", KindSynthetic},
		{"foreign_key(but000.PARTNER)", KindForeignKey},
		{"foreign_key(but000.PARTNER, 1:1)", KindForeignKey},
		{"copy(PARTNER)", KindCopy},
		{"copy_value_from_column(LIFNR)", KindCopy},
		{"get_city1(STREET)", KindCustom},
		{"get_street", KindCustom},
		{"get_street(", KindCustom},
	}
	for _, c := range cases {
		e := Parse(c.text)
		if e.Kind != c.kind {
			t.Fatalf("%q: expected kind %v, got %v", c.text, c.kind, e.Kind)
		}
	}
}

func TestParse_ForeignKeyForms(t *testing.T) {
	e := Parse("foreign_key(but000.PARTNER, 1:1)")
	if e.Target != (Target{Table: "but000", Column: "PARTNER"}) || e.Cardinality != OneToOne {
		t.Fatalf("unexpected fk: %#v", e)
	}

	e = Parse("foreign_key(vendor.lfa1.LIFNR)")
	if e.Target.Domain != "vendor" || e.Target.Table != "lfa1" || e.Cardinality != OneToMany {
		t.Fatalf("unexpected cross-domain fk: %#v", e)
	}

	e = Parse("foreign_key('pa0000', 'PERNR')")
	if e.Kind != KindForeignKey || e.Target.Table != "pa0000" || e.Target.Column != "PERNR" {
		t.Fatalf("unexpected legacy fk: %#v", e)
	}

	e = Parse("foreign_key(nodot)")
	if e.Err == nil || !errors.Is(e.Err, ErrMalformed) {
		t.Fatalf("expected malformed fk, got %#v", e)
	}

	e = Parse("foreign_key(a.b, 2:3)")
	if e.Err == nil {
		t.Fatal("expected bad cardinality to be rejected")
	}
}

func TestParse_ArgumentsKeepQuotedCommas(t *testing.T) {
	e := Parse(`email_from_name_company(NAME_ORG1, "a, b", 'x', 42)`)
	if e.Err != nil {
		t.Fatal(e.Err)
	}
	want := []Arg{Ref("NAME_ORG1"), Literal("a, b"), Literal("x"), Literal("42")}
	if len(e.Args) != len(want) {
		t.Fatalf("expected %d args, got %#v", len(want), e.Args)
	}
	for i := range want {
		if e.Args[i] != want[i] {
			t.Fatalf("arg %d: expected %#v, got %#v", i, want[i], e.Args[i])
		}
	}
}

func TestParse_MalformedNeverPanics(t *testing.T) {
	for _, text := range []string{"(", ")", "f(\"open", "9lives()", "a b c", "f(x))"} {
		e := Parse(text)
		if e.Kind != KindCustom {
			t.Fatalf("%q: expected custom kind, got %v", text, e.Kind)
		}
		if e.Err == nil && text != "f(x))" {
			t.Fatalf("%q: expected parse error", text)
		}
	}
}

func TestParse_CopyWithLiteralIsCustom(t *testing.T) {
	e := Parse("copy('x')")
	if e.Kind != KindCustom || e.Name != "copy" {
		t.Fatalf("expected literal copy to stay a custom call, got %#v", e)
	}
}
