package entity

import (
	"math/rand"
	"testing"
	"time"
)

func newState(seed int64) *State {
	return NewState(DefaultConfig(), rand.New(rand.NewSource(seed)))
}

func TestSight_VersioningInvariant(t *testing.T) {
	s := newState(42)
	cfg := s.Config()

	ids := []string{"00000001", "00000002", "00000003"}
	var row int64
	for i := 0; i < 30; i++ {
		for _, id := range ids {
			s.Sight("employee.pa0001", id, row)
			row++
		}
	}

	for _, id := range ids {
		h := s.History("employee.pa0001", id)
		if h == nil || len(h.Starts) != 30 {
			t.Fatalf("%s: expected 30 sightings", id)
		}
		if !h.Ends[0].Equal(cfg.OpenEnded) {
			t.Fatalf("%s: first end must be the open-ended sentinel, got %s", id, Format(h.Ends[0]))
		}
		for i := 0; i < len(h.Starts); i++ {
			if h.Starts[i].After(h.Ends[i]) {
				t.Fatalf("%s v%d: start %s after end %s", id, i, Format(h.Starts[i]), Format(h.Ends[i]))
			}
			if i == 0 {
				continue
			}
			if !h.Starts[i].Before(h.Starts[i-1]) {
				t.Fatalf("%s v%d: starts not strictly decreasing", id, i)
			}
			if !h.Ends[i].Before(h.Starts[i-1]) {
				t.Fatalf("%s v%d: interval overlaps its successor", id, i)
			}
		}
	}
}

func TestSight_SameRowIsIdempotent(t *testing.T) {
	s := newState(1)

	a := s.Sight("d.t", "X", 0)
	b := s.Sight("d.t", "X", 0)
	if a != b {
		t.Fatalf("same row should yield the same interval: %+v vs %+v", a, b)
	}
	if !a.Active() {
		t.Fatal("first sighting should be active")
	}

	c := s.Sight("d.t", "X", 1)
	if c.Active() || c.Version != 1 {
		t.Fatalf("second row should be version 1, got %+v", c)
	}
	if !c.End.Equal(a.Start.AddDate(0, 0, -1)) {
		t.Fatalf("end should be the day before the previous start: %s vs %s", Format(c.End), Format(a.Start))
	}
}

func TestSight_ScopesAreIndependent(t *testing.T) {
	s := newState(3)
	s.Sight("employee.pa0001", "1", 0)
	iv := s.Sight("employee.pa0002", "1", 1)
	if !iv.Active() {
		t.Fatal("same id in another scope starts its own history")
	}
	if s.Len() != 2 {
		t.Fatalf("expected two histories, got %d", s.Len())
	}
}

func TestSight_CollapsesBelowFloor(t *testing.T) {
	floor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewState(Config{Floor: floor, Ceiling: floor.AddDate(0, 0, 2)}, rand.New(rand.NewSource(9)))

	var prev Interval
	for i := int64(0); i < 6; i++ {
		iv := s.Sight("d.t", "id", i)
		if i > 0 && !iv.Start.Before(prev.Start) {
			t.Fatalf("row %d: start %s not before %s", i, Format(iv.Start), Format(prev.Start))
		}
		prev = iv
	}
}
