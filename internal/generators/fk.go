package generators

import (
	"sync"
)

// KeyLedger remembers generated identifiers in issue order and hands each
// one out at most once per consumer. Dependent tables use it to take a 1:1
// copy of keys that were generated in this run but not yet written to disk.
type KeyLedger struct {
	mu       sync.Mutex
	issued   []string
	seen     map[string]struct{}
	consumed map[string]int
}

func NewKeyLedger() *KeyLedger {
	return &KeyLedger{
		seen:     make(map[string]struct{}),
		consumed: make(map[string]int),
	}
}

// Issue records key and reports false if it was already issued.
func (l *KeyLedger) Issue(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[key]; ok {
		return false
	}
	l.seen[key] = struct{}{}
	l.issued = append(l.issued, key)
	return true
}

func (l *KeyLedger) Has(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[key]
	return ok
}

// Next returns the first key consumer has not taken yet, or "" when every
// issued key is taken.
func (l *KeyLedger) Next(consumer string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.consumed[consumer]
	if i >= len(l.issued) {
		return ""
	}
	l.consumed[consumer] = i + 1
	return l.issued[i]
}

func (l *KeyLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.issued)
}
