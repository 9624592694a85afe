package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
)

// TracerNodeID is the graft node of the task tracer.
const TracerNodeID graft.ID = "adapter.telemetry"

// InstrumentationName names the tracer in exported spans.
const InstrumentationName = "go.trai.ch/drainage"

func init() {
	graft.Register(graft.Node[*OTelTracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*OTelTracer, error) {
			return NewOTelTracer(InstrumentationName), nil
		},
	})
}
