// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/drainage/internal/adapters/config"
	_ "go.trai.ch/drainage/internal/adapters/engine"
	_ "go.trai.ch/drainage/internal/adapters/fs"
	_ "go.trai.ch/drainage/internal/adapters/logger"
	_ "go.trai.ch/drainage/internal/adapters/store"
	_ "go.trai.ch/drainage/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/drainage/internal/app"
	_ "go.trai.ch/drainage/internal/engine/scheduler"
)
