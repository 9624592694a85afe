package commands_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/drainage/cmd/drainage/commands"
	"go.trai.ch/drainage/internal/adapters/engine"
	"go.trai.ch/drainage/internal/adapters/telemetry"
	"go.trai.ch/drainage/internal/app"
	"go.trai.ch/drainage/internal/build"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/drainage/internal/core/ports/mocks"
	"go.trai.ch/drainage/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type cliMocks struct {
	loader  *mocks.MockConfigLoader
	store   *mocks.MockLayerStore
	history *mocks.MockHistoryStore
}

func setupCLI(t *testing.T) (*commands.CLI, *cliMocks, *bytes.Buffer) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := &cliMocks{
		loader:  mocks.NewMockConfigLoader(ctrl),
		store:   mocks.NewMockLayerStore(ctrl),
		history: mocks.NewMockHistoryStore(ctrl),
	}
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	tracer := telemetry.NewOTelTracer("drainage-test")
	dryRun := engine.NewDryRun()

	a := app.New(m.loader, scheduler.NewScheduler(tracer, log), tracer, m.store,
		mocks.NewMockInputResolver(ctrl), log,
		map[string]ports.ProcessingEngine{app.EngineDryRun: dryRun}).
		WithOutput(io.Discard, io.Discard).
		WithHistoryOpener(func(string) (ports.HistoryStore, error) { return m.history, nil })

	out := new(bytes.Buffer)
	cli := commands.New(a)
	cli.SetOutput(out)
	return cli, m, out
}

func loadPipeline(root string) *domain.Pipeline {
	return &domain.Pipeline{
		Root: root,
		Stages: []domain.StageSpec{
			{ID: "dem", Type: domain.StageLoadLayer, Description: "Load DEM", Path: "dem.tif", Layer: "dem"},
		},
	}
}

func TestRun_Success(t *testing.T) {
	cli, m, _ := setupCLI(t)
	root := t.TempDir()

	m.loader.EXPECT().Load("pipelines/catchment.yaml").Return(loadPipeline(root), nil)
	m.store.EXPECT().Load(gomock.Any(), gomock.Any(), "dem").
		Return(domain.LayerHandle{Name: "dem", Kind: domain.LayerRaster}, nil)
	m.history.EXPECT().Record(gomock.Any(), root, gomock.Any()).Return(nil)
	m.history.EXPECT().Close().Return(nil)

	cli.SetArgs([]string{"run", "-c", "pipelines/catchment.yaml", "--engine", "dry-run", "-o", "linear", "-j", "2"})
	require.NoError(t, cli.Execute(context.Background()))
}

func TestRun_StageFailure(t *testing.T) {
	cli, m, _ := setupCLI(t)

	m.loader.EXPECT().Load(".").Return(loadPipeline(t.TempDir()), nil)
	m.store.EXPECT().Load(gomock.Any(), gomock.Any(), "dem").Return(domain.LayerHandle{}, domain.ErrLayerLoadFailed)

	cli.SetArgs([]string{"run", "--engine", "dry-run", "-o", "linear", "--no-history"})
	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPipelineFailed)
}

func TestRun_FailureSummary(t *testing.T) {
	cli, m, out := setupCLI(t)

	p := loadPipeline(t.TempDir())
	p.Stages = append(p.Stages, domain.StageSpec{
		ID: "filled", Type: domain.StageFillDepressions, Description: "Fill DEM", DependsOn: []string{"dem"},
		Input: "dem", Output: "filled",
	})
	m.loader.EXPECT().Load(".").Return(p, nil)
	m.store.EXPECT().Load(gomock.Any(), gomock.Any(), "dem").Return(domain.LayerHandle{}, domain.ErrLayerLoadFailed)

	cli.SetArgs([]string{"run", "--engine", "dry-run", "-o", "linear", "--no-history"})
	require.ErrorIs(t, cli.Execute(context.Background()), domain.ErrPipelineFailed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "pipeline failed: 2 failed, 0 canceled", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  ✗ dem: "), lines[1])
	assert.Contains(t, lines[1], "failed to load layer")
	assert.Equal(t, "  ✗ filled: upstream dependency failed: dem", lines[2])
}

func TestRun_RejectsArguments(t *testing.T) {
	cli, _, _ := setupCLI(t)
	cli.SetArgs([]string{"run", "dem"})
	assert.Error(t, cli.Execute(context.Background()))
}

func TestValidate_PrintsOrder(t *testing.T) {
	cli, m, out := setupCLI(t)

	p := loadPipeline(t.TempDir())
	p.Stages = append(p.Stages, domain.StageSpec{
		ID: "filled", Type: domain.StageFillDepressions, DependsOn: []string{"dem"},
		Input: "dem", Output: "filled",
	})
	m.loader.EXPECT().Load(".").Return(p, nil)

	cli.SetArgs([]string{"validate"})
	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "  1. Load DEM\n  2. filled\n", out.String())
}

func TestHistory_Table(t *testing.T) {
	cli, m, out := setupCLI(t)

	m.history.EXPECT().List(gomock.Any(), 3).Return([]domain.RunSummary{
		{ExecutionID: "run-2", Outcome: "failed", Tasks: 4, Failed: []string{"filled", "flow"}},
		{ExecutionID: "run-1", Outcome: "succeeded", Tasks: 4},
	}, nil)
	m.history.EXPECT().Close().Return(nil)

	cli.SetArgs([]string{"history", "--history", "runs.db", "-n", "3"})
	require.NoError(t, cli.Execute(context.Background()))

	text := out.String()
	assert.Contains(t, text, "EXECUTION")
	assert.Contains(t, text, "run-2")
	assert.Contains(t, text, "filled,flow")
	assert.Contains(t, text, "succeeded")
}

func TestHistory_Empty(t *testing.T) {
	cli, m, out := setupCLI(t)

	m.history.EXPECT().List(gomock.Any(), 20).Return(nil, nil)
	m.history.EXPECT().Close().Return(nil)

	cli.SetArgs([]string{"history", "--history", "runs.db"})
	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "no runs recorded\n", out.String())
}

func TestVersion(t *testing.T) {
	cli, _, out := setupCLI(t)
	cli.SetArgs([]string{"version"})
	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "drainage version "+build.Version+"\n", out.String())
}
