package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mmrzaf/mockgen/internal/domain"
)

// SQLiteTarget mirrors generated tables into a SQLite file. Every column is
// TEXT so cells keep the exact bytes written to CSV.
type SQLiteTarget struct {
	path string
	db   *sql.DB
}

func NewSQLiteTarget(path string) *SQLiteTarget {
	return &SQLiteTarget{path: path}
}

func (t *SQLiteTarget) Connect() error {
	db, err := sql.Open("sqlite3", t.path)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	t.db = db
	return nil
}

func (t *SQLiteTarget) Close() error {
	if t.db != nil {
		err := t.db.Close()
		t.db = nil
		return err
	}
	return nil
}

// DB exposes the handle for checks and tests.
func (t *SQLiteTarget) DB() *sql.DB {
	return t.db
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (t *SQLiteTarget) CreateTableIfNotExists(table string, columns []domain.ColumnSpec) error {
	columnDefs := make([]string, len(columns))
	for i, col := range columns {
		columnDefs[i] = fmt.Sprintf("%s TEXT", quote(col.Name))
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quote(table), strings.Join(columnDefs, ", "))

	_, err := t.db.Exec(createSQL)
	return err
}

func (t *SQLiteTarget) TruncateTable(table string) error {
	_, err := t.db.Exec(fmt.Sprintf("DELETE FROM %s", quote(table)))
	return err
}

func (t *SQLiteTarget) InsertBatch(table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	quotedCols := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quotedCols[i] = quote(col)
		placeholders[i] = "?"
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(quotedCols, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (t *SQLiteTarget) ServerVersion() (string, error) {
	var version string
	if err := t.db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}
