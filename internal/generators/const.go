package generators

import (
	"math/rand"
)

// ConstGenerator passes its single argument through unchanged. It backs the
// "default" and "copy_value" rules, whose argument is usually a column
// back-reference.
type ConstGenerator struct{}

func (g *ConstGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	return ctx.Arg(0), nil
}

func (g *ConstGenerator) Validate(argc int) error {
	return arity("default", argc, 1, 1)
}
