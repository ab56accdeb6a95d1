package runs

import "github.com/mmrzaf/mockgen/internal/domain"

// Repository stores run metadata and progress.
type Repository interface {
	Init() error
	Close() error
	Create(run *domain.Run) error
	Update(run *domain.Run) error
	Get(id string) (*domain.Run, error)
	List(limit int, status string) ([]*domain.Run, error)
	UpdateProgress(id string, tablesDone, tablesTotal int, rowsGenerated int64, currentTable string) error
}
