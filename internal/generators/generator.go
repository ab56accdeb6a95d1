// Package generators holds the value producers behind the built-in rules and
// the type-default fallback. Every producer draws from the caller's rng so a
// seeded run is reproducible.
package generators

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/mmrzaf/mockgen/internal/domain"
)

type Generator interface {
	Generate(rng *rand.Rand, ctx Context) (interface{}, error)
	// Validate checks the argument count before any row is produced.
	Validate(argc int) error
}

// Context carries the resolved positional arguments of one rule call.
type Context struct {
	RowIndex int64
	Args     []interface{}
}

func (c Context) Arg(i int) interface{} {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

func (c Context) String(i int) string {
	return domain.FormatValue(c.Arg(i))
}

func (c Context) Float(i int) (float64, error) {
	v := c.Arg(i)
	if v == nil {
		return 0, fmt.Errorf("argument %d is missing", i+1)
	}
	return toFloat64(v)
}

func (c Context) Int(i int) (int64, error) {
	v := c.Arg(i)
	if v == nil {
		return 0, fmt.Errorf("argument %d is missing", i+1)
	}
	return toInt64(v)
}

func arity(name string, argc, min, max int) error {
	if argc < min || (max >= 0 && argc > max) {
		if max < 0 {
			return fmt.Errorf("%s expects at least %d arguments, got %d", name, min, argc)
		}
		if min == max {
			return fmt.Errorf("%s expects %d arguments, got %d", name, min, argc)
		}
		return fmt.Errorf("%s expects %d to %d arguments, got %d", name, min, max, argc)
	}
	return nil
}

func toFloat64(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func toInt64(v interface{}) (int64, error) {
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		return int64(val), nil
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", val)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}
