package ports

import (
	"context"

	"go.trai.ch/drainage/internal/core/domain"
)

// LayerStore holds the layers known to one pipeline execution, addressed by name.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type LayerStore interface {
	// Load opens the file at path and registers it under name.
	Load(ctx context.Context, path, name string) (domain.LayerHandle, error)

	// Register records a layer produced elsewhere, replacing any layer of the same name.
	Register(handle domain.LayerHandle) (domain.LayerHandle, error)

	// Get returns the layer registered under name.
	Get(name string) (domain.LayerHandle, error)

	// Write copies the layer to destination and returns the handle of the copy.
	Write(ctx context.Context, handle domain.LayerHandle, destination string) (domain.LayerHandle, error)
}
