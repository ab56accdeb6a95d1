// Package lookup indexes materialized parent tables by a key column so child
// rules can read parent attributes in O(1).
package lookup

import (
	"errors"
	"sync"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/logging"
)

type Source interface {
	ReadTable(domainName, table string) ([]string, [][]string, error)
}

type index struct {
	columns map[string]int
	rows    map[string][]string
}

type Cache struct {
	mu      sync.Mutex
	src     Source
	indexes map[string]*index
	logger  *logging.Logger
}

func New(src Source, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Cache{
		src:     src,
		indexes: make(map[string]*index),
		logger:  logger.WithComponent("lookup"),
	}
}

func Key(domainName, table, keyColumn string) string {
	return domainName + "." + table + "." + keyColumn
}

// build must be called with mu held. A missing table or key column yields an
// empty index that stays cached for the run.
func (c *Cache) build(domainName, table, keyColumn string) *index {
	key := Key(domainName, table, keyColumn)
	if idx, ok := c.indexes[key]; ok {
		return idx
	}

	idx := &index{columns: map[string]int{}, rows: map[string][]string{}}
	c.indexes[key] = idx

	header, rows, err := c.src.ReadTable(domainName, table)
	if err != nil {
		fields := map[string]any{"key": key, "error": err.Error()}
		if errors.Is(err, domain.ErrMissingSourceTable) {
			c.logger.Warnw("lookup.source_missing", fields)
		} else {
			c.logger.Errorw("lookup.load_failed", fields)
		}
		return idx
	}
	for i, h := range header {
		idx.columns[h] = i
	}
	kc, ok := idx.columns[keyColumn]
	if !ok {
		c.logger.Warnw("lookup.key_column_missing", map[string]any{"key": key})
		return idx
	}
	for _, row := range rows {
		if kc >= len(row) {
			continue
		}
		k := row[kc]
		if _, dup := idx.rows[k]; dup {
			continue
		}
		idx.rows[k] = row
	}
	c.logger.Debugw("lookup.built", map[string]any{"key": key, "rows": len(idx.rows)})
	return idx
}

// Lookup returns valueColumn of the first row whose keyColumn equals key.
func (c *Cache) Lookup(domainName, table, keyColumn, valueColumn, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.build(domainName, table, keyColumn)
	row, ok := idx.rows[key]
	if !ok {
		return "", false
	}
	vc, ok := idx.columns[valueColumn]
	if !ok || vc >= len(row) {
		return "", false
	}
	return row[vc], true
}

// Row returns a copy of the first matching row as column -> value.
func (c *Cache) Row(domainName, table, keyColumn, key string) (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.build(domainName, table, keyColumn)
	row, ok := idx.rows[key]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(idx.columns))
	for name, i := range idx.columns {
		if i < len(row) {
			out[name] = row[i]
		}
	}
	return out, true
}
