package exec

import (
	"hash/fnv"
	"math/rand"

	"github.com/mmrzaf/mockgen/internal/entity"
	"github.com/mmrzaf/mockgen/internal/infra/targets/csvfile"
	"github.com/mmrzaf/mockgen/internal/logging"
	"github.com/mmrzaf/mockgen/internal/lookup"
	"github.com/mmrzaf/mockgen/internal/refpool"
)

// State is everything a run shares across tables: foreign-key pools, parent
// lookup indexes and entity histories, all reading the materialized output
// in Store. Build one per run.
type State struct {
	Seed     int64
	Store    *csvfile.Store
	Pools    *refpool.Pools
	Lookups  *lookup.Cache
	Entities *entity.State
}

type StateOptions struct {
	ReuseCap int
	Entity   entity.Config
}

func NewState(store *csvfile.Store, seed int64, opts StateOptions, logger *logging.Logger) *State {
	if logger == nil {
		logger = logging.Discard()
	}
	return &State{
		Seed:     seed,
		Store:    store,
		Pools:    refpool.New(store, rand.New(rand.NewSource(seed^0x5eed)), opts.ReuseCap, logger),
		Lookups:  lookup.New(store, logger),
		Entities: entity.NewState(opts.Entity, rand.New(rand.NewSource(seed^0xe17))),
	}
}

// TableSeed derives the seed of one table from the run seed and the table
// key so reordering the plan does not reshuffle other tables.
func (s *State) TableSeed(domainName, table string) int64 {
	h := fnv.New64a()
	h.Write([]byte(domainName + "." + table))
	return s.Seed ^ int64(h.Sum64())
}
