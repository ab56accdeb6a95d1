package generators

import (
	"fmt"
	"math"
	"math/rand"
)

type NormalGenerator struct{}

func (g *NormalGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	mean, err := ctx.Float(0)
	if err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}
	std, err := ctx.Float(1)
	if err != nil {
		return nil, fmt.Errorf("std: %w", err)
	}
	return Round(rng.NormFloat64()*std+mean, 2), nil
}

func (g *NormalGenerator) Validate(argc int) error {
	return arity("normal", argc, 2, 2)
}

// LognormalGenerator samples exp(N(mu, sigma)). Optional third and fourth
// arguments clip the result to [lo, hi], the way gross weights are bounded.
type LognormalGenerator struct{}

func (g *LognormalGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	mu, err := ctx.Float(0)
	if err != nil {
		return nil, fmt.Errorf("mu: %w", err)
	}
	sigma, err := ctx.Float(1)
	if err != nil {
		return nil, fmt.Errorf("sigma: %w", err)
	}
	v := Lognormal(rng, mu, sigma)
	if len(ctx.Args) == 4 {
		lo, err := ctx.Float(2)
		if err != nil {
			return nil, fmt.Errorf("lo: %w", err)
		}
		hi, err := ctx.Float(3)
		if err != nil {
			return nil, fmt.Errorf("hi: %w", err)
		}
		v = math.Min(math.Max(v, lo), hi)
	}
	return Round(v, 2), nil
}

func (g *LognormalGenerator) Validate(argc int) error {
	if argc != 2 && argc != 4 {
		return fmt.Errorf("lognormal expects 2 or 4 arguments, got %d", argc)
	}
	return nil
}

func Lognormal(rng *rand.Rand, mu, sigma float64) float64 {
	return math.Exp(rng.NormFloat64()*sigma + mu)
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
