package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/drainage/internal/adapters/fs"
	"go.trai.ch/drainage/internal/core/domain"
)

func touchAll(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("raster"), 0o600))
	}
}

func TestResolver_ResolveInputs_SortsWithinPattern(t *testing.T) {
	tmpDir := t.TempDir()
	touchAll(t, tmpDir, "dem_c.tif", "dem_a.tif", "dem_b.tif", "notes.txt")

	resolved, err := fs.NewResolver().ResolveInputs([]string{"dem_*.tif"}, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(tmpDir, "dem_a.tif"),
		filepath.Join(tmpDir, "dem_b.tif"),
		filepath.Join(tmpDir, "dem_c.tif"),
	}, resolved)
}

func TestResolver_ResolveInputs_KeepsPatternOrder(t *testing.T) {
	tmpDir := t.TempDir()
	touchAll(t, tmpDir, "base/a.tif", "base/b.tif", "patch/a.tif")

	resolved, err := fs.NewResolver().ResolveInputs([]string{"patch/*.tif", "base/*.tif"}, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(tmpDir, "patch", "a.tif"),
		filepath.Join(tmpDir, "base", "a.tif"),
		filepath.Join(tmpDir, "base", "b.tif"),
	}, resolved)
}

func TestResolver_ResolveInputs_Deduplication(t *testing.T) {
	tmpDir := t.TempDir()
	touchAll(t, tmpDir, "dem.tif", "slope.tif")

	resolved, err := fs.NewResolver().ResolveInputs([]string{"slope.tif", "*.tif", "slope.tif"}, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(tmpDir, "slope.tif"),
		filepath.Join(tmpDir, "dem.tif"),
	}, resolved)
}

func TestResolver_ResolveInputs_SkipsAuxiliaryFilesAndDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	touchAll(t, tmpDir, "tiles/t1.tif", "tiles/t1.tif.aux.xml", "tiles/t1.tif.ovr", "tiles/nested/t2.tif")

	resolved, err := fs.NewResolver().ResolveInputs([]string{"tiles/*"}, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tmpDir, "tiles", "t1.tif")}, resolved)
}

func TestResolver_ResolveInputs_AbsolutePattern(t *testing.T) {
	tmpDir := t.TempDir()
	touchAll(t, tmpDir, "dem_1.tif")

	resolved, err := fs.NewResolver().ResolveInputs([]string{filepath.Join(tmpDir, "dem_*.tif")}, "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tmpDir, "dem_1.tif")}, resolved)
}

func TestResolver_ResolveInputs_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	touchAll(t, tmpDir, "dem.tif.aux.xml", "only/dir/x.tif")

	tests := []struct {
		name     string
		patterns []string
		wantErr  error
		wantMsg  string
	}{
		{name: "malformed glob", patterns: []string{"["}, wantMsg: "failed to glob path"},
		{name: "no match", patterns: []string{"*.nonexistent"}, wantErr: domain.ErrInputNotFound},
		{name: "only auxiliary files", patterns: []string{"dem.tif*"}, wantErr: domain.ErrInputNotFound},
		{name: "only directories", patterns: []string{"only/*"}, wantErr: domain.ErrInputNotFound},
		{name: "second pattern empty", patterns: []string{"only/dir/*.tif", "missing/*.tif"}, wantErr: domain.ErrInputNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fs.NewResolver().ResolveInputs(tt.patterns, tmpDir)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
