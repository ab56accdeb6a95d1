package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/mmrzaf/mockgen/internal/domain"
)

type runConfigHashPayload struct {
	SchemaHash string                 `json:"schema_hash"`
	Plan       map[string]interface{} `json:"plan"`
	Seed       int64                  `json:"seed"`
	ReuseCap   int                    `json:"reuse_cap"`
	DateFloor  string                 `json:"date_floor"`
	DateCeil   string                 `json:"date_ceiling"`
	OpenEnded  string                 `json:"open_ended"`
}

// RunSettings are the run inputs outside plan and schemas that change the
// generated data.
type RunSettings struct {
	Seed      int64
	ReuseCap  int
	DateFloor string
	DateCeil  string
	OpenEnded string
}

// HashRunConfig identifies a run's inputs: two runs with equal hashes
// produce identical output.
func HashRunConfig(plan *domain.Plan, schemas map[string]*domain.DomainSchema, s RunSettings) (string, error) {
	sh, err := HashSchemas(schemas)
	if err != nil {
		return "", err
	}

	p := runConfigHashPayload{
		SchemaHash: sh,
		Plan:       canonicalizePlan(plan),
		Seed:       s.Seed,
		ReuseCap:   s.ReuseCap,
		DateFloor:  s.DateFloor,
		DateCeil:   s.DateCeil,
		OpenEnded:  s.OpenEnded,
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
