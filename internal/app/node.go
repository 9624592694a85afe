package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/drainage/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/drainage/internal/adapters/engine"    //nolint:depguard // Wired in app layer
	"go.trai.ch/drainage/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/drainage/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/drainage/internal/adapters/store"     //nolint:depguard // Wired in app layer
	"go.trai.ch/drainage/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/drainage/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components needed by the
// CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			scheduler.NodeID,
			telemetry.TracerNodeID,
			store.NodeID,
			fs.ResolverNodeID,
			logger.NodeID,
			engine.QGISNodeID,
			engine.DryRunNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[*telemetry.OTelTracer](ctx)
	if err != nil {
		return nil, err
	}

	layers, err := graft.Dep[ports.LayerStore](ctx)
	if err != nil {
		return nil, err
	}

	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	qgis, err := graft.Dep[*engine.QGIS](ctx)
	if err != nil {
		return nil, err
	}

	dryRun, err := graft.Dep[*engine.DryRun](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, sched, tracer, layers, resolver, log, map[string]ports.ProcessingEngine{
		EngineQGIS:   qgis,
		EngineDryRun: dryRun,
	}), nil
}
