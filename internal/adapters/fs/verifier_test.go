package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/drainage/internal/adapters/fs"
)

func TestVerifier_MissingOutputs(t *testing.T) {
	tmpDir := t.TempDir()
	verifier := fs.NewVerifier()

	out1 := filepath.Join(tmpDir, "filled.tif")
	out2 := filepath.Join(tmpDir, "flow.tif")
	require.NoError(t, os.WriteFile(out1, []byte("content"), 0o600))
	require.NoError(t, os.WriteFile(out2, []byte("content"), 0o600))

	missing, err := verifier.MissingOutputs([]string{out1, out2})
	require.NoError(t, err)
	assert.Empty(t, missing)

	absent := filepath.Join(tmpDir, "missing.tif")
	missing, err = verifier.MissingOutputs([]string{out1, absent})
	require.NoError(t, err)
	assert.Equal(t, []string{absent}, missing)
}
