package stages

import (
	"slices"
	"strings"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/zerr"
)

// New constructs the stage declared by spec.
func New(spec domain.StageSpec, env *Env) (domain.Work, error) {
	var (
		w   domain.Work
		err error
	)
	switch spec.Type {
	case domain.StageLoadLayer:
		w, err = NewLoadLayer(env, spec.Path, spec.Layer)
	case domain.StageMergeLayers:
		w, err = NewMergeLayers(env, spec.Layers, spec.Output, spec.CRS)
	case domain.StageFindTouching:
		w, err = NewFindTouching(env, spec.Input, spec.Overlay, spec.Output)
	case domain.StageRasterizeVector:
		w, err = NewRasterizeVector(env, spec.Layers, spec.Reference, gridFor(spec, env), spec.Output, spec.Burn)
	case domain.StageBuildMosaic:
		w, err = NewBuildMosaic(env, spec.Inputs, spec.Output)
	case domain.StageClipMosaic:
		w, err = NewClipMosaic(env, spec.Input, spec.Mask, spec.Output)
	case domain.StageFillDepressions:
		w, err = NewFillDepressions(env, spec.Input, spec.Output, spec.MinSlope)
	case domain.StageAccumulateFlow:
		w, err = NewAccumulateFlow(env, spec.Input, spec.Output, spec.Method)
	default:
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrUnknownStageType, "cannot build stage"),
			"stage", spec.ID), "type", spec.Type)
	}
	if err != nil {
		return nil, zerr.With(err, "task", spec.ID)
	}
	return w, nil
}

// gridFor returns the stage's explicit grid in the pipeline CRS when the
// stage does not name one.
func gridFor(spec domain.StageSpec, env *Env) *domain.RasterDescriptor {
	if spec.Grid == nil || spec.Grid.CRS != "" {
		return spec.Grid
	}
	g := *spec.Grid
	g.CRS = env.CRS
	return &g
}

// Plan is a pipeline compiled into an executable graph.
type Plan struct {
	Graph *domain.Graph
	// Persist lists the tasks whose output is written to the output directory.
	Persist []domain.TaskID
}

// Compile constructs every stage of p and registers it in a new graph. Stages
// are registered after their dependencies; file order breaks ties.
func Compile(p *domain.Pipeline, env *Env) (*Plan, error) {
	specs := make(map[string]domain.StageSpec, len(p.Stages))
	for _, s := range p.Stages {
		if _, dup := specs[s.ID]; dup {
			return nil, zerr.With(zerr.Wrap(domain.ErrTaskAlreadyExists, "duplicate stage"), "task", s.ID)
		}
		specs[s.ID] = s
	}

	order, err := registrationOrder(p.Stages, specs)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Graph: domain.NewGraph()}
	for _, s := range order {
		work, err := New(s, env)
		if err != nil {
			return nil, err
		}
		task := domain.NewTask(s.ID, s.Description, work, s.Dependencies()...)
		if err := plan.Graph.AddTask(task); err != nil {
			return nil, err
		}
		if s.Persist {
			plan.Persist = append(plan.Persist, task.ID)
		}
	}
	return plan, nil
}

func registrationOrder(stages []domain.StageSpec, specs map[string]domain.StageSpec) ([]domain.StageSpec, error) {
	for _, s := range stages {
		for _, d := range s.Dependencies() {
			if _, ok := specs[d.ID.String()]; !ok {
				return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrUnknownDependency, "invalid pipeline"),
					"task", s.ID), "dependency", d.ID.String())
			}
		}
		// A stage may only consume the output of a stage it waits to complete.
		for _, ref := range s.References() {
			if _, ok := specs[ref]; ok && !slices.Contains(s.DependsOn, ref) {
				return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrUnknownDependency, "stage output used without dependsOn"),
					"task", s.ID), "dependency", ref)
			}
		}
	}

	placed := make(map[string]bool, len(stages))
	order := make([]domain.StageSpec, 0, len(stages))
	for len(order) < len(stages) {
		progressed := false
		for _, s := range stages {
			if placed[s.ID] || !ready(s, placed) {
				continue
			}
			placed[s.ID] = true
			order = append(order, s)
			progressed = true
		}
		if !progressed {
			return nil, stuckCycle(stages, specs, placed)
		}
	}
	return order, nil
}

func ready(s domain.StageSpec, placed map[string]bool) bool {
	for _, d := range s.Dependencies() {
		if !placed[d.ID.String()] {
			return false
		}
	}
	return true
}

// stuckCycle follows unplaced dependencies from the first unplaced stage until
// a stage repeats. Every unplaced stage waits on another unplaced stage, so
// the walk always closes a cycle.
func stuckCycle(stages []domain.StageSpec, specs map[string]domain.StageSpec, placed map[string]bool) error {
	var cur string
	for _, s := range stages {
		if !placed[s.ID] {
			cur = s.ID
			break
		}
	}

	seen := map[string]int{}
	var path []string
	for {
		if at, ok := seen[cur]; ok {
			cycle := append(path[at:], cur)
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrCycleDetected, "invalid pipeline"),
				"cycle", strings.Join(cycle, " -> ")), "cycle_path", cycle)
		}
		seen[cur] = len(path)
		path = append(path, cur)
		for _, d := range specs[cur].Dependencies() {
			if !placed[d.ID.String()] {
				cur = d.ID.String()
				break
			}
		}
	}
}
