package schemas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmrzaf/mockgen/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadPlan reads a run plan from YAML or JSON. The plan id defaults to the
// file name.
func LoadPlan(path string) (*domain.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan domain.Plan
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &plan)
	} else {
		err = yaml.Unmarshal(data, &plan)
	}
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", path, err)
	}

	if plan.ID == "" {
		plan.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if plan.Name == "" {
		plan.Name = plan.ID
	}
	for i := range plan.Tables {
		tp := &plan.Tables[i]
		tp.Domain = strings.TrimSpace(tp.Domain)
		tp.Table = strings.TrimSpace(tp.Table)
	}
	return &plan, nil
}

// PlanFor builds a single-table plan, used when a run names one table on
// the command line.
func PlanFor(domainName, table string, rows int64) *domain.Plan {
	return &domain.Plan{
		ID:     domainName + "." + table,
		Name:   domainName + "." + table,
		Tables: []domain.TablePlan{{Domain: domainName, Table: table, Rows: rows, GenOrder: 1}},
	}
}
