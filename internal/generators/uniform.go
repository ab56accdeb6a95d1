package generators

import (
	"fmt"
	"math/rand"
)

// UniformIntGenerator draws from [min, max], both ends included.
type UniformIntGenerator struct{}

func (g *UniformIntGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	min, err := ctx.Int(0)
	if err != nil {
		return nil, fmt.Errorf("min: %w", err)
	}
	max, err := ctx.Int(1)
	if err != nil {
		return nil, fmt.Errorf("max: %w", err)
	}

	if max < min {
		return nil, fmt.Errorf("max (%d) must not be less than min (%d)", max, min)
	}

	return IntBetween(rng, min, max), nil
}

// IntBetween draws from [lo, hi]. lo must not exceed hi. Ranges wider than
// math.MaxInt64 are drawn by rejection over the full 64-bit space.
func IntBetween(rng *rand.Rand, lo, hi int64) int64 {
	if span := hi - lo + 1; span > 0 {
		return lo + rng.Int63n(span)
	}
	for {
		v := int64(rng.Uint64())
		if v >= lo && v <= hi {
			return v
		}
	}
}

func (g *UniformIntGenerator) Validate(argc int) error {
	return arity("uniform_int", argc, 2, 2)
}

// UniformFloatGenerator draws from [min, max) with an optional rounding
// precision as third argument.
type UniformFloatGenerator struct{}

func (g *UniformFloatGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	min, err := ctx.Float(0)
	if err != nil {
		return nil, fmt.Errorf("min: %w", err)
	}
	max, err := ctx.Float(1)
	if err != nil {
		return nil, fmt.Errorf("max: %w", err)
	}
	v := min + rng.Float64()*(max-min)
	if len(ctx.Args) > 2 {
		digits, err := ctx.Int(2)
		if err != nil {
			return nil, fmt.Errorf("precision: %w", err)
		}
		v = Round(v, int(digits))
	}
	return v, nil
}

func (g *UniformFloatGenerator) Validate(argc int) error {
	return arity("uniform_float", argc, 2, 3)
}
