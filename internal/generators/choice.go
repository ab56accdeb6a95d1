package generators

import (
	"errors"
	"fmt"
	"math/rand"
)

// ChoiceGenerator picks one of its arguments uniformly.
type ChoiceGenerator struct{}

func (g *ChoiceGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	if len(ctx.Args) == 0 {
		return nil, errors.New("choice requires at least one value")
	}
	return ctx.Args[rng.Intn(len(ctx.Args))], nil
}

func (g *ChoiceGenerator) Validate(argc int) error {
	return arity("choice", argc, 1, -1)
}

// WeightedChoiceGenerator takes value, weight pairs:
// weighted_choice('letters', 0.63, 'digits', 0.36).
type WeightedChoiceGenerator struct{}

func (g *WeightedChoiceGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	if len(ctx.Args) == 0 || len(ctx.Args)%2 != 0 {
		return nil, errors.New("weighted_choice requires value, weight pairs")
	}

	n := len(ctx.Args) / 2
	weights := make([]float64, n)
	totalWeight := 0.0
	for i := 0; i < n; i++ {
		w, err := ctx.Float(2*i + 1)
		if err != nil {
			return nil, fmt.Errorf("weight %d: %w", i+1, err)
		}
		if w < 0 {
			return nil, fmt.Errorf("negative weight: %v", w)
		}
		weights[i] = w
		totalWeight += w
	}

	if totalWeight == 0 {
		return nil, errors.New("total weight is zero")
	}

	r := rng.Float64() * totalWeight
	cumWeight := 0.0
	for i, w := range weights {
		cumWeight += w
		if r < cumWeight {
			return ctx.Args[2*i], nil
		}
	}

	return ctx.Args[2*(n-1)], nil
}

func (g *WeightedChoiceGenerator) Validate(argc int) error {
	if argc == 0 || argc%2 != 0 {
		return fmt.Errorf("weighted_choice expects value, weight pairs, got %d arguments", argc)
	}
	return nil
}
