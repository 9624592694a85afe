// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/drainage/internal/core/domain"

// ConfigLoader defines the interface for loading pipeline definitions.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the pipeline file at path. A directory is searched for the
	// default file names.
	Load(path string) (*domain.Pipeline, error)
}
