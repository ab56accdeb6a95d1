// Package rules parses column rule text into a typed expression once per
// column, so rows never re-parse strings.
package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindTypeDefault Kind = iota
	KindNone
	KindSynthetic
	KindForeignKey
	KindCustom
	KindCopy
)

func (k Kind) String() string {
	switch k {
	case KindTypeDefault:
		return "base"
	case KindNone:
		return "none"
	case KindSynthetic:
		return "faker"
	case KindForeignKey:
		return "fk"
	case KindCustom:
		return "custom"
	case KindCopy:
		return "copy"
	default:
		return "unknown"
	}
}

type Cardinality string

const (
	OneToMany Cardinality = "1:N"
	OneToOne  Cardinality = "1:1"
)

// Arg is a literal or a back-reference to a column of the current row.
type Arg struct {
	Value string
	IsRef bool
}

func Literal(v string) Arg { return Arg{Value: v} }
func Ref(col string) Arg   { return Arg{Value: col, IsRef: true} }

// Target names the materialized column a foreign key draws from. An empty
// Domain means the domain of the table being generated.
type Target struct {
	Domain string
	Table  string
	Column string
}

func (t Target) String() string {
	if t.Domain == "" {
		return t.Table + "." + t.Column
	}
	return t.Domain + "." + t.Table + "." + t.Column
}

type Expr struct {
	Kind Kind
	Text string

	// KindSynthetic: call text after the "faker." prefix.
	Call string

	// KindForeignKey.
	Target      Target
	Cardinality Cardinality

	// KindCustom.
	Name string
	Args []Arg

	// KindCopy.
	Source string

	// Err is set for text that could not be parsed; evaluating such a rule
	// yields an empty value and a warning.
	Err error
}

const syntheticPrefix = "faker."

var ErrMalformed = errors.New("malformed rule")

// Parse classifies rule text. It never fails; malformed text becomes a
// KindCustom expression carrying Err.
func Parse(text string) Expr {
	raw := strings.TrimSpace(text)
	e := Expr{Text: raw}

	switch strings.ToLower(raw) {
	case "", "nan":
		e.Kind = KindTypeDefault
		return e
	case "null", "none":
		e.Kind = KindNone
		return e
	}

	if strings.HasPrefix(raw, syntheticPrefix) {
		e.Kind = KindSynthetic
		e.Call = strings.TrimSpace(raw[len(syntheticPrefix):])
		if e.Call == "" {
			e.Err = fmt.Errorf("%w: empty synthetic call", ErrMalformed)
		}
		return e
	}

	name, tokens, err := SplitCall(raw)
	e.Kind = KindCustom
	e.Name = name
	if err != nil {
		e.Err = err
		return e
	}

	switch name {
	case "foreign_key":
		if fk, ok := parseForeignKey(tokens); ok {
			fk.Text = raw
			return fk
		}
		e.Err = fmt.Errorf("%w: foreign_key expects table.column[, 1:1|1:N]", ErrMalformed)
		return e
	case "copy", "copy_value_from_column":
		if len(tokens) == 1 {
			if a := ParseArg(tokens[0]); a.IsRef {
				e.Kind = KindCopy
				e.Name = ""
				e.Source = a.Value
				return e
			}
		}
	}

	e.Args = make([]Arg, 0, len(tokens))
	for _, tok := range tokens {
		e.Args = append(e.Args, ParseArg(tok))
	}
	return e
}

// SplitCall splits "name(a, 'b, c', d)" into the name and raw argument tokens.
// A bare identifier is a call without arguments.
func SplitCall(text string) (string, []string, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open < 0 {
		if !isIdent(text) {
			return "", nil, fmt.Errorf("%w: %q", ErrMalformed, text)
		}
		return text, nil, nil
	}
	name := strings.TrimSpace(text[:open])
	if !isIdent(name) {
		return "", nil, fmt.Errorf("%w: bad function name in %q", ErrMalformed, text)
	}
	if !strings.HasSuffix(text, ")") {
		return name, nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrMalformed, text)
	}
	body := text[open+1 : len(text)-1]
	tokens, err := splitArgs(body)
	if err != nil {
		return name, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return name, tokens, nil
}

func splitArgs(body string) ([]string, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	for _, r := range body {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			cur.WriteRune(r)
		case r == ',':
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	out = append(out, strings.TrimSpace(cur.String()))
	return out, nil
}

// ParseArg turns one token into a literal (quoted text or number) or a
// back-reference (anything else).
func ParseArg(tok string) Arg {
	tok = strings.TrimSpace(tok)
	if s, ok := Unquote(tok); ok {
		return Literal(s)
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil {
		return Literal(tok)
	}
	return Ref(tok)
}

// Unquote strips matching single or double quotes.
func Unquote(tok string) (string, bool) {
	if len(tok) >= 2 {
		first, last := tok[0], tok[len(tok)-1]
		if (first == '\'' || first == '"') && first == last {
			return tok[1 : len(tok)-1], true
		}
	}
	return tok, false
}

func parseForeignKey(tokens []string) (Expr, bool) {
	e := Expr{Kind: KindForeignKey, Cardinality: OneToMany}
	plain := make([]string, len(tokens))
	for i, tok := range tokens {
		plain[i], _ = Unquote(strings.TrimSpace(tok))
	}

	switch {
	case len(plain) >= 1 && strings.Contains(plain[0], "."):
		parts := strings.Split(plain[0], ".")
		switch len(parts) {
		case 2:
			e.Target = Target{Table: parts[0], Column: parts[1]}
		case 3:
			e.Target = Target{Domain: parts[0], Table: parts[1], Column: parts[2]}
		default:
			return e, false
		}
		if len(plain) > 2 {
			return e, false
		}
		if len(plain) == 2 {
			c, ok := parseCardinality(plain[1])
			if !ok {
				return e, false
			}
			e.Cardinality = c
		}
	case len(plain) == 2:
		e.Target = Target{Table: plain[0], Column: plain[1]}
	default:
		return e, false
	}

	if e.Target.Table == "" || e.Target.Column == "" {
		return e, false
	}
	return e, true
}

func parseCardinality(s string) (Cardinality, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1:1":
		return OneToOne, true
	case "1:N", "":
		return OneToMany, true
	default:
		return "", false
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
