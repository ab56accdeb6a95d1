package domain

import (
	"encoding/json"
	"time"
)

// ColumnSpec is one column of a table definition. Rule is the raw rule text.
type ColumnSpec struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Length int    `json:"length" yaml:"length"`
	Rule   string `json:"rule,omitempty" yaml:"rule,omitempty"`
}

type TableSchema struct {
	Name    string       `json:"name" yaml:"name"`
	Columns []ColumnSpec `json:"columns" yaml:"columns"`
}

// ColumnNames returns the column names in declaration order.
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

type DomainSchema struct {
	Domain string        `json:"domain" yaml:"domain"`
	Tables []TableSchema `json:"tables" yaml:"tables"`
}

func (d *DomainSchema) Table(name string) *TableSchema {
	for i := range d.Tables {
		if d.Tables[i].Name == name {
			return &d.Tables[i]
		}
	}
	return nil
}

// TablePlan is one entry of the generation order.
type TablePlan struct {
	Domain      string   `json:"domain" yaml:"domain"`
	Table       string   `json:"table" yaml:"table"`
	Rows        int64    `json:"rows" yaml:"rows"`
	GenOrder    int      `json:"gen_order" yaml:"gen_order"`
	ColumnOrder []string `json:"column_order,omitempty" yaml:"column_order,omitempty"`
}

func (p TablePlan) Key() string {
	return p.Domain + "." + p.Table
}

type Plan struct {
	ID             string      `json:"id" yaml:"id"`
	Name           string      `json:"name" yaml:"name"`
	Seed           *int64      `json:"seed,omitempty" yaml:"seed,omitempty"`
	ChunkSize      int64       `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	ChunkThreshold int64       `json:"chunk_threshold,omitempty" yaml:"chunk_threshold,omitempty"`
	Tables         []TablePlan `json:"tables" yaml:"tables"`
}

// Run is a persisted record of one generation run.
type Run struct {
	ID          string          `json:"id"`
	PlanID      string          `json:"plan_id"`
	PlanName    string          `json:"plan_name"`
	OutputDir   string          `json:"output_dir"`
	Seed        int64           `json:"seed"`
	ConfigHash  string          `json:"config_hash"`
	Status      RunStatus       `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Stats       json.RawMessage `json:"stats,omitempty"`
	Error       string          `json:"error,omitempty"`

	TablesDone    int    `json:"tables_done"`
	TablesTotal   int    `json:"tables_total"`
	RowsGenerated int64  `json:"rows_generated"`
	CurrentTable  string `json:"current_table,omitempty"`
}

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	// RunStatusPartial means at least one table failed and the run moved on.
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

type RunStats struct {
	TablesGenerated int             `json:"tables_generated"`
	TablesFailed    int             `json:"tables_failed"`
	TotalRows       int64           `json:"total_rows"`
	DurationSeconds float64         `json:"duration_seconds"`
	TableStats      []TableRunStats `json:"table_stats"`
}

type TableRunStats struct {
	Domain          string  `json:"domain"`
	Table           string  `json:"table"`
	RowsGenerated   int64   `json:"rows_generated"`
	Chunks          int     `json:"chunks"`
	Warnings        int64   `json:"warnings"`
	DurationSeconds float64 `json:"duration_seconds"`
	OutputPath      string  `json:"output_path,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// MirrorConfig describes an optional database that receives a copy of every generated chunk.
type MirrorConfig struct {
	Kind     string `json:"kind" yaml:"kind"`
	DSN      string `json:"dsn" yaml:"dsn"`
	Schema   string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
}

// MirrorCheck is the result of probing a mirror database.
type MirrorCheck struct {
	Kind         string             `json:"kind"`
	DSN          string             `json:"dsn"`
	OK           bool               `json:"ok"`
	LatencyMS    int64              `json:"latency_ms"`
	ServerVer    string             `json:"server_version,omitempty"`
	Capabilities MirrorCapabilities `json:"capabilities"`
	CheckedAt    time.Time          `json:"checked_at"`
	Error        string             `json:"error,omitempty"`
}

type MirrorCapabilities struct {
	CanCreate   bool `json:"can_create"`
	CanInsert   bool `json:"can_insert"`
	CanTruncate bool `json:"can_truncate"`
}

const (
	MirrorKindSQLite        = "sqlite"
	MirrorKindPostgres      = "postgres"
	MirrorKindElasticsearch = "elasticsearch"
)
