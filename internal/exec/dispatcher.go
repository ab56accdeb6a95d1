package exec

import (
	"fmt"
	"math/rand"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/registry"
	"github.com/mmrzaf/mockgen/internal/rules"
)

// Column is a column spec with its rule parsed and, for custom rules,
// resolved against the registry. Err holds a compile failure that every row
// reports instead of evaluating.
type Column struct {
	Spec domain.ColumnSpec
	Expr rules.Expr
	Rule registry.Rule
	Err  error
}

// TableContext is what the dispatcher needs to know about the table being
// generated.
type TableContext struct {
	Domain string
	Table  string
	Rows   int64
	Rand   *rand.Rand
}

type Dispatcher struct {
	rules     *registry.RuleRegistry
	synthetic *generators.Synthetic
	state     *State
}

func NewDispatcher(reg *registry.RuleRegistry, synthetic *generators.Synthetic, state *State) *Dispatcher {
	if synthetic == nil {
		synthetic = &generators.Synthetic{}
	}
	return &Dispatcher{rules: reg, synthetic: synthetic, state: state}
}

// Compile parses every rule of the table once.
func (d *Dispatcher) Compile(domainName string, schema *domain.TableSchema) []Column {
	cols := make([]Column, len(schema.Columns))
	for i, spec := range schema.Columns {
		col := Column{Spec: spec, Expr: rules.Parse(spec.Rule)}
		col.Err = col.Expr.Err
		switch col.Expr.Kind {
		case rules.KindSynthetic:
			if col.Err == nil && !d.synthetic.Has(col.Expr.Call) {
				col.Err = fmt.Errorf("%w: %s", generators.ErrUnknownProvider, col.Expr.Call)
			}
		case rules.KindCustom:
			if col.Err != nil {
				break
			}
			rule, err := d.rules.Resolve(domainName, col.Expr.Name)
			if err != nil {
				col.Err = err
				break
			}
			if err := rule.CheckArity(len(col.Expr.Args)); err != nil {
				col.Err = err
				break
			}
			col.Rule = rule
		}
		cols[i] = col
	}
	return cols
}

// Evaluate produces the value of one column for the current row. Errors are
// recoverable: the caller logs them and writes an empty value. A panicking
// rule is reported as a resolution failure for that column only.
func (d *Dispatcher) Evaluate(tc *TableContext, col *Column, row *RowContext) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = fmt.Errorf("%w: %s: panic: %v", domain.ErrRuleResolution, col.Expr.Text, r)
		}
	}()
	return d.evaluate(tc, col, row)
}

func (d *Dispatcher) evaluate(tc *TableContext, col *Column, row *RowContext) (interface{}, error) {
	if col.Err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrRuleResolution, col.Expr.Text, col.Err)
	}

	switch col.Expr.Kind {
	case rules.KindNone:
		return nil, nil

	case rules.KindTypeDefault:
		return generators.TypeDefault(tc.Rand, col.Spec.Type, col.Spec.Length), nil

	case rules.KindSynthetic:
		v, err := d.synthetic.Call(tc.Rand, col.Expr.Call)
		if err != nil {
			return nil, fmt.Errorf("%w: faker.%s: %v", domain.ErrRuleResolution, col.Expr.Call, err)
		}
		return domain.Truncate(v, col.Spec.Length), nil

	case rules.KindForeignKey:
		t := col.Expr.Target
		targetDomain := t.Domain
		if targetDomain == "" {
			targetDomain = tc.Domain
		}
		if col.Expr.Cardinality == rules.OneToOne {
			return d.state.Pools.At(targetDomain, t.Table, t.Column, row.Index)
		}
		return d.state.Pools.Acquire(targetDomain, t.Table, t.Column)

	case rules.KindCopy:
		v, ok := row.Get(col.Expr.Source)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not generated before %s", domain.ErrMissingColumn, col.Expr.Source, col.Spec.Name)
		}
		return v, nil

	case rules.KindCustom:
		call := &registry.Call{
			Domain:   tc.Domain,
			Table:    tc.Table,
			Column:   col.Spec.Name,
			Args:     d.resolveArgs(col.Expr.Args, row),
			Row:      registry.NoRow,
			Rand:     tc.Rand,
			Lookups:  d.state.Lookups,
			Entities: d.state.Entities,
		}
		if col.Rule.WantsRowIndex {
			call.Row = row.Index
		}
		v, err := col.Rule.Fn(call)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrRuleResolution, col.Expr.Name, err)
		}
		return v, nil
	}

	return nil, fmt.Errorf("%w: unhandled rule kind %s", domain.ErrRuleResolution, col.Expr.Kind)
}

// resolveArgs turns literals into strings and back-references into the
// current row's values. A reference to a column not yet generated is "".
func (d *Dispatcher) resolveArgs(args []rules.Arg, row *RowContext) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		if !a.IsRef {
			out[i] = a.Value
			continue
		}
		if v, ok := row.Get(a.Value); ok && v != nil {
			out[i] = v
		} else {
			out[i] = ""
		}
	}
	return out
}
