package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/drainage/internal/adapters/engine"
	"go.trai.ch/drainage/internal/adapters/fs"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/drainage/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// fakeQGIS writes an executable standing in for qgis_process.
func fakeQGIS(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qgis_process")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o700)) //nolint:gosec // test executable
	return path
}

const succeedingScript = `
echo "$@" > "$DRAINAGE_ARGS_FILE"
for arg in "$@"; do
  case "$arg" in OUTPUT=*) out="${arg#OUTPUT=}";; esac
done
printf '0...10...50...'
echo "GDAL warning: nodata" >&2
: > "$out"
printf '{"algorithm_details":{"id":"gdal:merge"},"results":{"OUTPUT":"%s"}}\n' "$out"
`

type progressLog struct {
	mu     sync.Mutex
	values []float64
}

func (p *progressLog) report(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, v)
}

func TestQGIS_RunSuccess(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	t.Setenv("DRAINAGE_ARGS_FILE", argsFile)
	out := filepath.Join(t.TempDir(), "mosaic.tif")

	ctrl := gomock.NewController(t)
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	}).MinTimes(1)
	ctx := ports.ContextWithSpan(context.Background(), span)

	q := engine.NewQGIS(fakeQGIS(t, succeedingScript), fs.NewVerifier())
	progress := &progressLog{}

	res, err := q.Run(ctx, "gdal:merge", map[string]any{
		"INPUT":     []string{"/data/a.tif", "/data/b.tif"},
		"PCT":       false,
		"DATA_TYPE": 5,
		"OUTPUT":    out,
	}, progress.report)
	require.NoError(t, err)

	path, ok := res.OutputPath("OUTPUT")
	require.True(t, ok)
	assert.Equal(t, out, path)
	assert.Equal(t, []float64{0, 10, 50, 100}, progress.values)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t,
		"--json run gdal:merge -- DATA_TYPE=5 INPUT=/data/a.tif INPUT=/data/b.tif OUTPUT="+out+" PCT=false\n",
		string(args))
}

func TestQGIS_RunNilProgressAndNoSpan(t *testing.T) {
	t.Setenv("DRAINAGE_ARGS_FILE", filepath.Join(t.TempDir(), "args"))
	out := filepath.Join(t.TempDir(), "out.gpkg")

	q := engine.NewQGIS(fakeQGIS(t, succeedingScript), fs.NewVerifier())

	_, err := q.Run(context.Background(), "native:mergevectorlayers", map[string]any{"OUTPUT": out}, nil)
	assert.NoError(t, err)
}

func TestQGIS_RunFailurePreservesEngineMessage(t *testing.T) {
	q := engine.NewQGIS(fakeQGIS(t, `
echo "Algorithm sagang:fillsinkswangliu not found" >&2
exit 2
`), nil)

	_, err := q.Run(context.Background(), "sagang:fillsinkswangliu", map[string]any{}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlgorithmFailed)
	assert.Contains(t, err.Error(), "Algorithm sagang:fillsinkswangliu not found")
}

func TestQGIS_RunMissingOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "never-written.tif")
	q := engine.NewQGIS(fakeQGIS(t, `printf '{"results":{"OUTPUT":"%s"}}' "`+out+`"`), fs.NewVerifier())

	_, err := q.Run(context.Background(), "gdal:merge", map[string]any{"OUTPUT": out}, nil)

	assert.ErrorIs(t, err, domain.ErrAlgorithmFailed)
}

func TestQGIS_RunInvalidJSON(t *testing.T) {
	q := engine.NewQGIS(fakeQGIS(t, `echo "not json"`), nil)

	_, err := q.Run(context.Background(), "gdal:merge", map[string]any{}, nil)

	assert.ErrorIs(t, err, domain.ErrAlgorithmFailed)
}

func TestQGIS_RunCanceled(t *testing.T) {
	q := engine.NewQGIS(fakeQGIS(t, "exec sleep 5\n"), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Run(ctx, "gdal:merge", map[string]any{}, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQGIS_BinaryNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	q := engine.NewQGIS("", nil)

	_, err := q.Run(context.Background(), "gdal:merge", map[string]any{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot find qgis_process")
}

func TestEncodeParams(t *testing.T) {
	args := engine.EncodeParams(map[string]any{
		"PREDICATE": []int{4},
		"BURN":      1.5,
		"LAYERS":    []any{"/a.gpkg", "/b.gpkg"},
		"EMPTY":     nil,
		"INPUT":     "/in.gpkg",
	})

	assert.Equal(t, []string{
		"BURN=1.5",
		"INPUT=/in.gpkg",
		"LAYERS=/a.gpkg",
		"LAYERS=/b.gpkg",
		"PREDICATE=4",
	}, args)
}

func TestResolveEnvironment(t *testing.T) {
	env := engine.ResolveEnvironment(
		[]string{"PATH=/usr/bin", "QT_QPA_PLATFORM=xcb"},
		map[string]string{"QT_QPA_PLATFORM": "offscreen", "QGIS_NO_OVERRIDE_IMPORT": "1"},
	)

	assert.Equal(t, []string{"PATH=/usr/bin", "QT_QPA_PLATFORM=xcb", "QGIS_NO_OVERRIDE_IMPORT=1"}, env)
}

func TestProgressWriter(t *testing.T) {
	progress := &progressLog{}
	w := engine.NewProgressWriter(progress.report)

	_, _ = w.Write([]byte("Version 3.34.1\n0...1"))
	_, _ = w.Write([]byte("0...20.."))
	_, _ = w.Write([]byte(".30...100 - done\n"))

	assert.Equal(t, []float64{0, 10, 20, 30}, progress.values)
}

func TestTailWriter(t *testing.T) {
	w := engine.NewTailWriter(nil, 2)

	_, _ = w.Write([]byte("one\ntwo\n"))
	_, _ = w.Write([]byte("\nthree\nfou"))
	_, _ = w.Write([]byte("r"))

	assert.Equal(t, "two\nthree\nfour", w.Tail())
}

func TestDryRun_TouchesOutputs(t *testing.T) {
	dir := t.TempDir()
	d := engine.NewDryRun()
	progress := &progressLog{}

	res, err := d.Run(context.Background(), "sagang:fillsinkswangliu", map[string]any{
		"ELEV":   "/data/dem.tif",
		"FILLED": filepath.Join(dir, "nested", "filled.tif"),
	}, progress.report)
	require.NoError(t, err)

	path, ok := res.OutputPath("FILLED")
	require.True(t, ok)
	assert.FileExists(t, path)
	assert.Equal(t, []float64{25, 50, 75, 100}, progress.values)
}

func TestDryRun_RasterProperties(t *testing.T) {
	d := engine.NewDryRun()

	res, err := d.Run(context.Background(), "native:rasterlayerproperties",
		map[string]any{"INPUT": "/dem.tif", "BAND": 1}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, res.Outputs["WIDTH_IN_PIXELS"], 1e-9)
	assert.InDelta(t, 100.0, res.Outputs["X_MAX"], 1e-9)
}

func TestDryRun_Canceled(t *testing.T) {
	d := engine.NewDryRun()
	d.Delay = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, "gdal:merge", map[string]any{}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
