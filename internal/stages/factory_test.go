package stages_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/stages"
	"go.trai.ch/zerr"
)

func load(id string, deps ...string) domain.StageSpec {
	return domain.StageSpec{
		ID: id, Type: domain.StageLoadLayer, Path: id + ".shp", Layer: id, DependsOn: deps,
	}
}

func TestCompile_RegistersDependenciesFirst(t *testing.T) {
	t.Parallel()

	p := &domain.Pipeline{Stages: []domain.StageSpec{
		{
			ID: "merge", Type: domain.StageMergeLayers, Layers: []string{"a", "b"}, Output: "m",
			DependsOn: []string{"a", "b"}, Persist: true,
		},
		load("a"),
		load("b"),
	}}

	plan, err := stages.Compile(p, &stages.Env{})
	require.NoError(t, err)

	var ids []string
	for task := range plan.Graph.Tasks() {
		ids = append(ids, task.ID.String())
	}
	assert.Equal(t, []string{"a", "b", "merge"}, ids)
	assert.Equal(t, []domain.TaskID{domain.NewTaskID("merge")}, plan.Persist)
}

func TestCompile_StartDependency(t *testing.T) {
	t.Parallel()

	b := load("b")
	b.StartsAfter = []string{"a"}
	plan, err := stages.Compile(&domain.Pipeline{Stages: []domain.StageSpec{b, load("a")}}, &stages.Env{})
	require.NoError(t, err)

	task, ok := plan.Graph.GetTask(domain.NewTaskID("b"))
	require.True(t, ok)
	assert.Equal(t, []domain.Dependency{domain.OnStart("a")}, task.Dependencies)
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stages []domain.StageSpec
		want   error
	}{
		{"unknown dependency", []domain.StageSpec{load("a", "ghost")}, domain.ErrUnknownDependency},
		{"cycle", []domain.StageSpec{load("a", "c"), load("b", "a"), load("c", "b")}, domain.ErrCycleDetected},
		{"self dependency", []domain.StageSpec{load("a", "a")}, domain.ErrCycleDetected},
		{"duplicate", []domain.StageSpec{load("a"), load("a")}, domain.ErrTaskAlreadyExists},
		{"unknown type", []domain.StageSpec{{ID: "x", Type: "teleport"}}, domain.ErrUnknownStageType},
		{"invalid stage", []domain.StageSpec{{ID: "m", Type: domain.StageMergeLayers}}, domain.ErrInvalidConfiguration},
		{"output used without dependsOn", []domain.StageSpec{
			{ID: "mosaic", Type: domain.StageBuildMosaic, Inputs: []string{"n34.tif", "n35.tif"}, Output: "mosaic"},
			{ID: "fill", Type: domain.StageFillDepressions, Input: "mosaic", Output: "filled"},
		}, domain.ErrUnknownDependency},
		{"output used with startsAfter only", []domain.StageSpec{
			load("boundary"),
			{ID: "clip", Type: domain.StageClipMosaic, Input: "dem.tif", Mask: "boundary", Output: "clipped",
				StartsAfter: []string{"boundary"}},
		}, domain.ErrUnknownDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := stages.Compile(&domain.Pipeline{Stages: tt.stages}, &stages.Env{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompile_CyclePath(t *testing.T) {
	t.Parallel()

	_, err := stages.Compile(&domain.Pipeline{Stages: []domain.StageSpec{
		load("a", "b"), load("b", "a"), load("c"),
	}}, &stages.Env{})
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	path, ok := zErr.Metadata()["cycle_path"].([]string)
	require.True(t, ok)
	assert.Equal(t, path[0], path[len(path)-1])
	assert.True(t, slices.Contains(path, "a"))
	assert.True(t, slices.Contains(path, "b"))
}

func TestCompile_DeclaredReferenceAccepted(t *testing.T) {
	t.Parallel()

	plan, err := stages.Compile(&domain.Pipeline{Stages: []domain.StageSpec{
		{ID: "mosaic", Type: domain.StageBuildMosaic, Inputs: []string{"n34.tif", "n35.tif"}, Output: "mosaic"},
		{ID: "fill", Type: domain.StageFillDepressions, Input: "mosaic", Output: "filled", DependsOn: []string{"mosaic"}},
	}}, &stages.Env{})
	require.NoError(t, err)

	task, ok := plan.Graph.GetTask(domain.NewTaskID("fill"))
	require.True(t, ok)
	assert.Equal(t, []domain.Dependency{domain.OnCompletion("mosaic")}, task.Dependencies)
}

func TestCompile_UndeclaredReferenceNamesStage(t *testing.T) {
	t.Parallel()

	_, err := stages.Compile(&domain.Pipeline{Stages: []domain.StageSpec{
		load("roads"),
		load("rivers"),
		{ID: "merged", Type: domain.StageMergeLayers, Layers: []string{"roads", "rivers"}, Output: "network",
			DependsOn: []string{"roads"}},
	}}, &stages.Env{})
	require.ErrorIs(t, err, domain.ErrUnknownDependency)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "merged", zErr.Metadata()["task"])
	assert.Equal(t, "rivers", zErr.Metadata()["dependency"])
}
