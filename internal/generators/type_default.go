package generators

import (
	"math/rand"
	"strings"

	"github.com/go-faker/faker/v4"
	"github.com/mmrzaf/mockgen/internal/domain"
)

const Unknown = "UNKNOWN"

// TypeDefault produces a value from the declared type alone: a word for
// varchar columns, a number with exactly length digits for int columns,
// and "UNKNOWN" for anything else.
func TypeDefault(rng *rand.Rand, declaredType string, length int) string {
	t := strings.ToLower(declaredType)
	switch {
	case strings.Contains(t, "varchar"):
		return domain.Truncate(faker.Word(), length)
	case strings.Contains(t, "int"):
		if length <= 1 {
			return Digits(rng, 1)
		}
		return Digits(rng, length)
	default:
		return Unknown
	}
}
