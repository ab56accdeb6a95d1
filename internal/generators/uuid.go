package generators

import (
	"math/rand"

	"github.com/google/uuid"
)

// UUID4Generator builds version 4 UUIDs from the run rng rather than
// crypto/rand so seeded runs repeat.
type UUID4Generator struct{}

func (g *UUID4Generator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	uuidBytes := make([]byte, 16)
	rng.Read(uuidBytes)
	uuidBytes[6] = (uuidBytes[6] & 0x0f) | 0x40
	uuidBytes[8] = (uuidBytes[8] & 0x3f) | 0x80
	u, err := uuid.FromBytes(uuidBytes)
	if err != nil {
		return nil, err
	}
	return u.String(), nil
}

func (g *UUID4Generator) Validate(argc int) error {
	return arity("uuid4", argc, 0, 0)
}
