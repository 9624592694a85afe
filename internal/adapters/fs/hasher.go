package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher fingerprints layer datasets with XXHash.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash returns the fingerprint of the dataset at path. Directory
// datasets such as file geodatabases hash every contained file; shapefiles
// include their sidecar files.
func (h *Hasher) ComputeFileHash(path string) (string, error) {
	files, err := h.walker.DatasetFiles(path)
	if err != nil {
		return "", zerr.Wrap(domain.ErrFileHashFailed, err.Error())
	}

	digest := xxhash.New()
	for _, file := range files {
		rel, relErr := filepath.Rel(filepath.Dir(path), file)
		if relErr != nil {
			rel = filepath.Base(file)
		}
		_, _ = digest.WriteString(filepath.ToSlash(rel))
		_, _ = digest.Write([]byte{0})

		sum, err := hashContent(file)
		if err != nil {
			return "", err
		}
		if err := binary.Write(digest, binary.LittleEndian, sum); err != nil {
			return "", zerr.Wrap(err, "failed to write hash to digest")
		}
	}

	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

func hashContent(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrFileHashFailed, err.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrFileHashFailed, err.Error()), "path", path)
	}
	return digest.Sum64(), nil
}
