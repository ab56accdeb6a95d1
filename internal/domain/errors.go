package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSourceTable     = errors.New("source table missing")
	ErrMissingColumn          = errors.New("column missing")
	ErrEmptyCandidatePool     = errors.New("empty candidate pool")
	ErrRuleResolution         = errors.New("rule resolution failed")
	ErrInsufficientCandidates = errors.New("insufficient candidates for 1:1 foreign key")
	ErrSinkWrite              = errors.New("sink write failed")
)

// TableError is a table-fatal failure. The run continues with the next table.
type TableError struct {
	Domain string
	Table  string
	Err    error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %s.%s: %v", e.Domain, e.Table, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}
