package ports

import (
	"context"

	"go.trai.ch/drainage/internal/core/domain"
)

// ProgressFunc receives fractional progress from a running algorithm, in percent.
type ProgressFunc func(percent float64)

// ProcessingEngine runs geospatial algorithms on behalf of pipeline stages.
//
//go:generate mockgen -source=engine.go -destination=mocks/mock_engine.go -package=mocks
type ProcessingEngine interface {
	// Run invokes algorithm with named parameters. progress may be nil.
	// The returned error preserves the engine's own failure text.
	Run(ctx context.Context, algorithm string, params map[string]any, progress ProgressFunc) (domain.ProcessingResult, error)
}
