package ports

import (
	"context"

	"go.trai.ch/drainage/internal/core/domain"
)

// HistoryStore keeps the final reports of past executions.
//
//go:generate mockgen -source=history.go -destination=mocks/mock_history.go -package=mocks
type HistoryStore interface {
	// Record stores a finished report.
	Record(ctx context.Context, pipeline string, report *domain.Report) error

	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Close releases the underlying database.
	Close() error
}
