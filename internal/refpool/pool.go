// Package refpool serves foreign-key values drawn from already materialized
// tables. A value is handed out at most cap times before the pool's usage
// ledger is cleared.
package refpool

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/logging"
)

const DefaultReuseCap = 2

// Source yields the distinct non-empty values of a materialized column.
type Source interface {
	DistinctValues(domainName, table, column string) ([]string, error)
}

type pool struct {
	candidates []string
	used       map[string]int
	resets     int
}

type Pools struct {
	mu     sync.Mutex
	src    Source
	rng    *rand.Rand
	cap    int
	pools  map[string]*pool
	logger *logging.Logger
}

func New(src Source, rng *rand.Rand, reuseCap int, logger *logging.Logger) *Pools {
	if reuseCap <= 0 {
		reuseCap = DefaultReuseCap
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pools{
		src:    src,
		rng:    rng,
		cap:    reuseCap,
		pools:  make(map[string]*pool),
		logger: logger.WithComponent("refpool"),
	}
}

func Key(domainName, table, column string) string {
	return domainName + "." + table + "." + column
}

// load must be called with mu held. Failed loads are not cached so a table
// materialized later in the run is picked up.
func (p *Pools) load(domainName, table, column string) (*pool, error) {
	key := Key(domainName, table, column)
	if pl, ok := p.pools[key]; ok {
		return pl, nil
	}
	values, err := p.src.DistinctValues(domainName, table, column)
	if err != nil {
		return nil, err
	}
	pl := &pool{candidates: values, used: make(map[string]int)}
	p.pools[key] = pl
	p.logger.Debugw("pool.loaded", map[string]any{"key": key, "candidates": len(values)})
	return pl, nil
}

// Acquire returns a random candidate whose usage is below the reuse cap.
// After 2*len(candidates) misses the ledger is reset and a fresh draw is served.
func (p *Pools) Acquire(domainName, table, column string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pl, err := p.load(domainName, table, column)
	if err != nil {
		return "", err
	}
	n := len(pl.candidates)
	if n == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrEmptyCandidatePool, Key(domainName, table, column))
	}

	for attempt := 0; attempt < 2*n; attempt++ {
		v := pl.candidates[p.rng.Intn(n)]
		if pl.used[v] < p.cap {
			pl.used[v]++
			return v, nil
		}
	}

	pl.resets++
	p.logger.Infow("pool.reset", map[string]any{"key": Key(domainName, table, column), "resets": pl.resets})
	pl.used = make(map[string]int, n)
	v := pl.candidates[p.rng.Intn(n)]
	pl.used[v] = 1
	return v, nil
}

// At returns the candidate at a positional index, for 1:1 relationships.
func (p *Pools) At(domainName, table, column string, index int64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pl, err := p.load(domainName, table, column)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= int64(len(pl.candidates)) {
		return "", fmt.Errorf("%w: %s has %d candidates, row %d requested",
			domain.ErrInsufficientCandidates, Key(domainName, table, column), len(pl.candidates), index)
	}
	return pl.candidates[index], nil
}

// Size returns the number of distinct candidates for a column.
func (p *Pools) Size(domainName, table, column string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pl, err := p.load(domainName, table, column)
	if err != nil {
		return 0, err
	}
	return len(pl.candidates), nil
}

// Resets reports how many times the ledger for a key has been cleared.
func (p *Pools) Resets(domainName, table, column string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pl, ok := p.pools[Key(domainName, table, column)]; ok {
		return pl.resets
	}
	return 0
}

// Usage returns how often value has been served since the last reset.
func (p *Pools) Usage(domainName, table, column, value string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pl, ok := p.pools[Key(domainName, table, column)]; ok {
		return pl.used[value]
	}
	return 0
}
