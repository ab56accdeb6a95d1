package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/mmrzaf/mockgen/internal/domain"
)

// HashSchemas hashes the definitions of the given domains. Rule text is
// hashed verbatim; table and domain order does not matter.
func HashSchemas(schemas map[string]*domain.DomainSchema) (string, error) {
	data, err := json.Marshal(canonicalizeSchemas(schemas))
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

func canonicalizeSchemas(schemas map[string]*domain.DomainSchema) []map[string]interface{} {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		ds := schemas[name]
		tables := make([]map[string]interface{}, len(ds.Tables))
		for i, t := range ds.Tables {
			columns := make([]map[string]interface{}, len(t.Columns))
			for j, col := range t.Columns {
				columns[j] = map[string]interface{}{
					"name":   col.Name,
					"type":   col.Type,
					"length": col.Length,
					"rule":   col.Rule,
				}
			}
			tables[i] = map[string]interface{}{
				"name":    t.Name,
				"columns": columns,
			}
		}
		sort.SliceStable(tables, func(i, j int) bool {
			return tables[i]["name"].(string) < tables[j]["name"].(string)
		})
		result = append(result, map[string]interface{}{
			"domain": name,
			"tables": tables,
		})
	}
	return result
}

// canonicalizePlan keeps everything that changes the output. Plan id and
// name are labels only.
func canonicalizePlan(plan *domain.Plan) map[string]interface{} {
	tables := make([]map[string]interface{}, len(plan.Tables))
	for i, tp := range plan.Tables {
		t := map[string]interface{}{
			"domain":    tp.Domain,
			"table":     tp.Table,
			"rows":      tp.Rows,
			"gen_order": tp.GenOrder,
		}
		if len(tp.ColumnOrder) > 0 {
			t["column_order"] = tp.ColumnOrder
		}
		tables[i] = t
	}
	return map[string]interface{}{
		"chunk_size":      plan.ChunkSize,
		"chunk_threshold": plan.ChunkThreshold,
		"tables":          tables,
	}
}
