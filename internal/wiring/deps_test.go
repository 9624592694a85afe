package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/require"
	"go.trai.ch/drainage/internal/app"
	_ "go.trai.ch/drainage/internal/wiring"
)

// TestWiring_ResolvesComponents builds the whole node graph the way main does.
func TestWiring_ResolvesComponents(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
	require.Same(t, components.Logger, components.App.Logger())
}
