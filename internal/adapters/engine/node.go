package engine

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/drainage/internal/adapters/fs"
)

const (
	QGISNodeID   graft.ID = "adapter.engine.qgis"
	DryRunNodeID graft.ID = "adapter.engine.dryrun"
)

func init() {
	graft.Register(graft.Node[*QGIS]{
		ID:        QGISNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.VerifierNodeID},
		Run: func(ctx context.Context) (*QGIS, error) {
			verifier, err := graft.Dep[*fs.Verifier](ctx)
			if err != nil {
				return nil, err
			}
			return NewQGIS(DefaultBinary, verifier), nil
		},
	})

	graft.Register(graft.Node[*DryRun]{
		ID:        DryRunNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*DryRun, error) {
			return NewDryRun(), nil
		},
	})
}
