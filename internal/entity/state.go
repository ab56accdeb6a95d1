// Package entity keeps cross-row history for recurring business identifiers
// and assigns each sighting a validity interval.
//
// Rows for one identifier are produced newest first. The first sighting is
// open-ended; each later sighting closes the day before the previous start.
// Intervals are computed completely when the sighting happens, so rows that
// were already emitted never need to be revisited.
package entity

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mmrzaf/mockgen/internal/domain"
)

type Config struct {
	Floor     time.Time
	Ceiling   time.Time
	OpenEnded time.Time
}

func DefaultConfig() Config {
	return Config{
		Floor:     time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
		Ceiling:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		OpenEnded: time.Date(4712, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

type Interval struct {
	Start   time.Time
	End     time.Time
	Version int
}

// Active reports whether the interval is the open-ended current record.
func (iv Interval) Active() bool {
	return iv.Version == 0
}

type History struct {
	Starts []time.Time
	Ends   []time.Time

	lastRow      int64
	lastInterval Interval
}

type State struct {
	mu      sync.Mutex
	cfg     Config
	rng     *rand.Rand
	history map[string]*History
}

func NewState(cfg Config, rng *rand.Rand) *State {
	def := DefaultConfig()
	if cfg.Floor.IsZero() {
		cfg.Floor = def.Floor
	}
	if cfg.Ceiling.IsZero() {
		cfg.Ceiling = def.Ceiling
	}
	if cfg.OpenEnded.IsZero() {
		cfg.OpenEnded = def.OpenEnded
	}
	if cfg.Ceiling.Before(cfg.Floor) {
		cfg.Ceiling = cfg.Floor
	}
	return &State{
		cfg:     cfg,
		rng:     rng,
		history: make(map[string]*History),
	}
}

func (s *State) Config() Config {
	return s.cfg
}

func key(scope, id string) string {
	return scope + "\x00" + id
}

// Sight records that id appears in row and returns its interval. Repeated
// sightings from the same row return the same interval, which lets a start
// and an end column share one versioning step.
func (s *State) Sight(scope, id string, row int64) Interval {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(scope, id)
	h, ok := s.history[k]
	if !ok {
		iv := Interval{
			Start: s.draw(s.cfg.Floor, s.cfg.Ceiling),
			End:   s.cfg.OpenEnded,
		}
		s.history[k] = &History{
			Starts:       []time.Time{iv.Start},
			Ends:         []time.Time{iv.End},
			lastRow:      row,
			lastInterval: iv,
		}
		return iv
	}
	if h.lastRow == row {
		return h.lastInterval
	}

	prevStart := h.Starts[len(h.Starts)-1]
	end := prevStart.AddDate(0, 0, -1)
	start := end
	if !end.Before(s.cfg.Floor) {
		start = s.draw(s.cfg.Floor, end)
	}
	iv := Interval{Start: start, End: end, Version: len(h.Starts)}
	h.Starts = append(h.Starts, start)
	h.Ends = append(h.Ends, end)
	h.lastRow = row
	h.lastInterval = iv
	return iv
}

// History returns a copy of the recorded intervals for id, or nil if unseen.
func (s *State) History(scope, id string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.history[key(scope, id)]
	if !ok {
		return nil
	}
	return &History{
		Starts: append([]time.Time(nil), h.Starts...),
		Ends:   append([]time.Time(nil), h.Ends...),
	}
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// draw returns a uniformly random day in [lo, hi].
func (s *State) draw(lo, hi time.Time) time.Time {
	days := int(hi.Sub(lo).Hours() / 24)
	if days <= 0 {
		return lo
	}
	return lo.AddDate(0, 0, s.rng.Intn(days+1))
}

// Format renders interval bounds the way output columns carry dates.
func Format(t time.Time) string {
	return t.Format(domain.DateLayout)
}
