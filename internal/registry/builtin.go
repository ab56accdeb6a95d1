package registry

import (
	"errors"
	"time"

	"github.com/mmrzaf/mockgen/internal/entity"
	"github.com/mmrzaf/mockgen/internal/generators"
)

// DefaultRuleRegistry returns a registry holding the built-in rules. now
// fixes current_datetime for the run.
func DefaultRuleRegistry(now time.Time) *RuleRegistry {
	r := NewRuleRegistry()
	RegisterBuiltins(r, now)
	return r
}

func RegisterBuiltins(r *RuleRegistry, now time.Time) {
	r.RegisterGenerator(Common, "default", &generators.ConstGenerator{})
	r.RegisterGenerator(Common, "copy_value", &generators.ConstGenerator{})
	r.RegisterGenerator(Common, "default_value", &generators.ConstGenerator{})
	r.RegisterGenerator(Common, "choice", &generators.ChoiceGenerator{})
	r.RegisterGenerator(Common, "weighted_choice", &generators.WeightedChoiceGenerator{})
	r.RegisterGenerator(Common, "uniform_int", &generators.UniformIntGenerator{})
	r.RegisterGenerator(Common, "uniform_float", &generators.UniformFloatGenerator{})
	r.RegisterGenerator(Common, "normal", &generators.NormalGenerator{})
	r.RegisterGenerator(Common, "lognormal", &generators.LognormalGenerator{})
	r.RegisterGenerator(Common, "uuid4", &generators.UUID4Generator{})
	r.RegisterGenerator(Common, "sequence", &generators.SequenceGenerator{}, WithRowIndex())
	r.RegisterGenerator(Common, "time_series", &generators.TimeSeriesGenerator{Now: func() time.Time { return now }}, WithRowIndex())
	r.RegisterGenerator(Common, "current_datetime", &generators.CurrentDatetimeGenerator{At: now})

	r.Register(Common, "random_date_between", randomDateBetween(now), WithArity(0, 2))
	r.Register(Common, "lookup_parent_value", LookupParentValue, WithArity(4, 5))
	r.Register(Common, "entity_start_date", EntityStartDate, WithRowIndex(), WithArity(1, 1))
	r.Register(Common, "entity_end_date", EntityEndDate, WithRowIndex(), WithArity(1, 1))
}

// randomDateBetween falls back to the entity floor and ceiling when bounds
// are omitted, so one pair of settings governs every generated date.
func randomDateBetween(now time.Time) Func {
	return func(c *Call) (interface{}, error) {
		cfg := entity.DefaultConfig()
		if c.Entities != nil {
			cfg = c.Entities.Config()
		}
		g := &generators.RandomDateGenerator{
			Floor:   cfg.Floor,
			Ceiling: cfg.Ceiling,
			Now:     func() time.Time { return now },
		}
		return g.Generate(c.Rand, c.Context())
	}
}

// LookupParentValue(table, key_column, value_column, key[, domain]) reads a
// column from the first parent row whose key matches. Not found is nil.
func LookupParentValue(c *Call) (interface{}, error) {
	if c.Lookups == nil {
		return nil, errors.New("lookup cache not configured")
	}
	d := c.Domain
	if s := c.String(4); s != "" {
		d = s
	}
	v, ok := c.Lookups.Lookup(d, c.String(0), c.String(1), c.String(2), c.String(3))
	if !ok {
		return nil, nil
	}
	return v, nil
}

func EntityScope(c *Call) string {
	return c.Domain + "." + c.Table
}

func sight(c *Call) (entity.Interval, error) {
	if c.Entities == nil {
		return entity.Interval{}, errors.New("entity state not configured")
	}
	id := c.String(0)
	if id == "" {
		return entity.Interval{}, errors.New("entity id is empty")
	}
	return c.Entities.Sight(EntityScope(c), id, c.Row), nil
}

// EntityStartDate returns the start of the interval assigned to this row's
// sighting of the entity id.
func EntityStartDate(c *Call) (interface{}, error) {
	iv, err := sight(c)
	if err != nil {
		return nil, err
	}
	return entity.Format(iv.Start), nil
}

func EntityEndDate(c *Call) (interface{}, error) {
	iv, err := sight(c)
	if err != nil {
		return nil, err
	}
	return entity.Format(iv.End), nil
}
