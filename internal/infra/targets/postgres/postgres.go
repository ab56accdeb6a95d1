package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mmrzaf/mockgen/internal/domain"
)

// maxParams is the PostgreSQL bind parameter limit per statement.
const maxParams = 65535

// PostgresTarget mirrors generated tables into a PostgreSQL schema. Columns
// are TEXT so cells keep the exact bytes written to CSV.
type PostgresTarget struct {
	dsn    string
	schema string
	db     *sql.DB
}

func NewPostgresTarget(dsn, schema string) *PostgresTarget {
	if schema == "" {
		schema = "public"
	}
	return &PostgresTarget{
		dsn:    dsn,
		schema: schema,
	}
}

func (t *PostgresTarget) Connect() error {
	db, err := sql.Open("postgres", t.dsn)
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

func (t *PostgresTarget) Close() error {
	if t.db != nil {
		err := t.db.Close()
		t.db = nil
		return err
	}
	return nil
}

func (t *PostgresTarget) qualified(table string) string {
	return pq.QuoteIdentifier(t.schema) + "." + pq.QuoteIdentifier(table)
}

func (t *PostgresTarget) CreateTableIfNotExists(table string, columns []domain.ColumnSpec) error {
	columnDefs := make([]string, len(columns))
	for i, col := range columns {
		columnDefs[i] = fmt.Sprintf("%s TEXT", pq.QuoteIdentifier(col.Name))
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		t.qualified(table), strings.Join(columnDefs, ", "))

	_, err := t.db.Exec(createSQL)
	return err
}

func (t *PostgresTarget) TruncateTable(table string) error {
	_, err := t.db.Exec(fmt.Sprintf("TRUNCATE TABLE %s", t.qualified(table)))
	return err
}

// InsertBatch writes rows with multi-row INSERTs inside one transaction,
// split so no statement exceeds the bind parameter limit.
func (t *PostgresTarget) InsertBatch(table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 || len(columns) == 0 {
		return nil
	}

	quotedCols := make([]string, len(columns))
	for i, col := range columns {
		quotedCols[i] = pq.QuoteIdentifier(col)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", t.qualified(table), strings.Join(quotedCols, ", "))

	tx, err := t.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	perStmt := maxParams / len(columns)
	for start := 0; start < len(rows); start += perStmt {
		end := start + perStmt
		if end > len(rows) {
			end = len(rows)
		}
		query, args := buildInsert(prefix, len(columns), rows[start:end])
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func buildInsert(prefix string, width int, rows [][]interface{}) (string, []interface{}) {
	placeholders := make([]string, len(rows))
	args := make([]interface{}, 0, len(rows)*width)

	for i, row := range rows {
		rowPlaceholders := make([]string, width)
		for j := 0; j < width; j++ {
			rowPlaceholders[j] = fmt.Sprintf("$%d", i*width+j+1)
			if j < len(row) {
				args = append(args, row[j])
			} else {
				args = append(args, nil)
			}
		}
		placeholders[i] = "(" + strings.Join(rowPlaceholders, ", ") + ")"
	}
	return prefix + strings.Join(placeholders, ", "), args
}

func (t *PostgresTarget) ServerVersion() (string, error) {
	var version string
	if err := t.db.QueryRow("SHOW server_version").Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}
