package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mmrzaf/mockgen/internal/domain"
)

var ErrNotFound = errors.New("run not found")

type SQLiteRepository struct {
	dbPath string
	db     *sql.DB
}

func NewSQLiteRepository(dbPath string) *SQLiteRepository {
	return &SQLiteRepository{dbPath: dbPath}
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Init() error {
	if dir := filepath.Dir(r.dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create runs db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", r.dbPath)
	if err != nil {
		return err
	}
	r.db = db

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		plan_name TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		seed INTEGER NOT NULL,
		config_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		stats TEXT,
		error TEXT,
		tables_done INTEGER NOT NULL DEFAULT 0,
		tables_total INTEGER NOT NULL DEFAULT 0,
		rows_generated INTEGER NOT NULL DEFAULT 0,
		current_table TEXT
	)`

	_, err = r.db.Exec(createTableSQL)
	return err
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (r *SQLiteRepository) Create(run *domain.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	var completedAt interface{}
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.Format(time.RFC3339)
	}

	query := `
		INSERT INTO runs (
			id, plan_id, plan_name, output_dir,
			seed, config_hash, status, started_at, completed_at, stats, error,
			tables_done, tables_total, rows_generated, current_table
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID, run.PlanID, run.PlanName, run.OutputDir,
		run.Seed, run.ConfigHash, run.Status,
		run.StartedAt.Format(time.RFC3339), completedAt,
		nullableJSON(run.Stats), run.Error,
		run.TablesDone, run.TablesTotal, run.RowsGenerated, run.CurrentTable,
	)
	return err
}

func (r *SQLiteRepository) Update(run *domain.Run) error {
	var completedAt interface{}
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.Format(time.RFC3339)
	}

	query := `
		UPDATE runs SET
			status = ?, completed_at = ?, stats = ?, error = ?,
			tables_done = ?, tables_total = ?, rows_generated = ?, current_table = ?
		WHERE id = ?
	`

	res, err := r.db.Exec(query, run.Status, completedAt, nullableJSON(run.Stats), run.Error,
		run.TablesDone, run.TablesTotal, run.RowsGenerated, run.CurrentTable, run.ID)
	if err != nil {
		return err
	}
	return expectOne(res, run.ID)
}

func (r *SQLiteRepository) UpdateProgress(id string, tablesDone, tablesTotal int, rowsGenerated int64, currentTable string) error {
	res, err := r.db.Exec(`
		UPDATE runs SET tables_done = ?, tables_total = ?, rows_generated = ?, current_table = ?
		WHERE id = ?`, tablesDone, tablesTotal, rowsGenerated, currentTable, id)
	if err != nil {
		return err
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

const selectRun = `
		SELECT id, plan_id, plan_name, output_dir,
		       seed, config_hash, status, started_at, completed_at, stats, error,
		       tables_done, tables_total, rows_generated, current_table
		FROM runs`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s rowScanner) (*domain.Run, error) {
	var run domain.Run
	var startedAtStr string
	var completedAtStr sql.NullString
	var statsStr sql.NullString
	var errorStr sql.NullString
	var currentStr sql.NullString

	err := s.Scan(
		&run.ID, &run.PlanID, &run.PlanName, &run.OutputDir,
		&run.Seed, &run.ConfigHash, &run.Status,
		&startedAtStr, &completedAtStr, &statsStr, &errorStr,
		&run.TablesDone, &run.TablesTotal, &run.RowsGenerated, &currentStr,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, _ = time.Parse(time.RFC3339, startedAtStr)
	if completedAtStr.Valid {
		t, _ := time.Parse(time.RFC3339, completedAtStr.String)
		run.CompletedAt = &t
	}
	if statsStr.Valid {
		run.Stats = json.RawMessage(statsStr.String)
	}
	if errorStr.Valid {
		run.Error = errorStr.String
	}
	if currentStr.Valid {
		run.CurrentTable = currentStr.String
	}
	return &run, nil
}

func (r *SQLiteRepository) Get(id string) (*domain.Run, error) {
	run, err := scanRun(r.db.QueryRow(selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

func (r *SQLiteRepository) List(limit int, status string) ([]*domain.Run, error) {
	query := selectRun

	args := make([]interface{}, 0)
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}

	query += " ORDER BY started_at DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
