// Package store implements the layer store: an in-memory registry of the
// layers known to one execution, plus a JSON manifest next to persisted layers.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ManifestName is the file, next to persisted layers, listing what was written.
const ManifestName = "manifest.json"

// copyParallelism bounds concurrent file copies for multi-file datasets.
const copyParallelism = 4

var rasterExtensions = map[string]bool{
	".tif": true, ".tiff": true, ".vrt": true, ".asc": true, ".img": true, ".sdat": true, ".nc": true,
}

var _ ports.LayerStore = (*Store)(nil)

// DatasetLister lists the files that make up a dataset.
type DatasetLister interface {
	DatasetFiles(path string) ([]string, error)
}

// ManifestEntry records one persisted layer.
type ManifestEntry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Kind        string    `json:"kind"`
	CRS         string    `json:"crs,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`
	WrittenAt   time.Time `json:"writtenAt"`
}

// Store implements ports.LayerStore.
type Store struct {
	hasher   ports.Hasher
	datasets DatasetLister
	now      func() time.Time

	mu     sync.RWMutex
	layers map[string]domain.LayerHandle

	// manifestMu serializes manifest read-modify-write cycles.
	manifestMu sync.Mutex
}

// NewStore creates an empty Store.
func NewStore(hasher ports.Hasher, datasets DatasetLister) *Store {
	return &Store{
		hasher:   hasher,
		datasets: datasets,
		now:      time.Now,
		layers:   make(map[string]domain.LayerHandle),
	}
}

// Load registers the dataset at path under name, fingerprinting it.
func (s *Store) Load(ctx context.Context, path, name string) (domain.LayerHandle, error) {
	if err := ctx.Err(); err != nil {
		return domain.LayerHandle{}, err
	}
	if name == "" {
		return domain.LayerHandle{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, "layer name is empty"),
			"path", path)
	}
	if _, err := os.Stat(path); err != nil {
		return domain.LayerHandle{}, zerr.With(zerr.With(zerr.Wrap(domain.ErrLayerLoadFailed, err.Error()),
			"layer", name), "path", path)
	}

	fingerprint, err := s.hasher.ComputeFileHash(path)
	if err != nil {
		return domain.LayerHandle{}, zerr.With(zerr.Wrap(err, "fingerprint layer"), "layer", name)
	}

	return s.Register(domain.LayerHandle{
		Name:        name,
		Path:        path,
		Kind:        KindOf(path),
		Fingerprint: fingerprint,
	})
}

// Register records handle under its name, replacing any previous layer.
// A missing fingerprint is computed when the file exists.
func (s *Store) Register(handle domain.LayerHandle) (domain.LayerHandle, error) {
	if handle.Name == "" {
		return domain.LayerHandle{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, "layer name is empty"),
			"path", handle.Path)
	}
	if handle.Fingerprint == "" && handle.Path != "" {
		if _, err := os.Stat(handle.Path); err == nil {
			fingerprint, err := s.hasher.ComputeFileHash(handle.Path)
			if err != nil {
				return domain.LayerHandle{}, zerr.With(zerr.Wrap(err, "fingerprint layer"), "layer", handle.Name)
			}
			handle.Fingerprint = fingerprint
		}
	}

	s.mu.Lock()
	s.layers[handle.Name] = handle
	s.mu.Unlock()
	return handle, nil
}

// Get returns the layer registered under name.
func (s *Store) Get(name string) (domain.LayerHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handle, ok := s.layers[name]
	if !ok {
		return domain.LayerHandle{}, zerr.With(zerr.Wrap(domain.ErrLayerNotFound, "lookup failed"), "layer", name)
	}
	return handle, nil
}

// Write copies the dataset behind handle to destination, records it in the
// manifest of the destination directory and returns the handle of the copy.
func (s *Store) Write(ctx context.Context, handle domain.LayerHandle, destination string) (domain.LayerHandle, error) {
	files, err := s.datasets.DatasetFiles(handle.Path)
	if err != nil {
		return domain.LayerHandle{}, writeError(err, handle, destination)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(copyParallelism)
	for _, file := range files {
		target := targetPath(handle.Path, destination, file)
		g.Go(func() error {
			return copyFile(gctx, file, target)
		})
	}
	if err := g.Wait(); err != nil {
		return domain.LayerHandle{}, writeError(err, handle, destination)
	}

	written := handle
	written.Path = destination
	written.Fingerprint, err = s.hasher.ComputeFileHash(destination)
	if err != nil {
		return domain.LayerHandle{}, writeError(err, handle, destination)
	}

	if err := s.record(written, handle.Path); err != nil {
		return domain.LayerHandle{}, writeError(err, handle, destination)
	}
	return written, nil
}

func writeError(err error, handle domain.LayerHandle, destination string) error {
	err = zerr.With(zerr.Wrap(domain.ErrLayerWriteFailed, err.Error()), "layer", handle.Name)
	return zerr.With(err, "path", destination)
}

// targetPath maps a dataset file to its place under destination. Sidecars
// keep their extension and follow the renamed stem.
func targetPath(source, destination, file string) string {
	if file == source {
		return destination
	}
	if rel, err := filepath.Rel(source, file); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join(destination, rel)
	}
	ext := filepath.Ext(file)
	return strings.TrimSuffix(destination, filepath.Ext(destination)) + ext
}

func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create output directory")
	}

	in, err := os.Open(src) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.Wrap(err, "failed to open source")
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	tmp := dst + ".partial"
	out, err := os.Create(tmp) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.Wrap(err, "failed to create destination")
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return zerr.Wrap(err, "failed to copy layer")
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return zerr.Wrap(err, "failed to close destination")
	}
	return os.Rename(tmp, dst)
}

func (s *Store) record(written domain.LayerHandle, source string) error {
	s.manifestMu.Lock()
	defer s.manifestMu.Unlock()

	path := filepath.Join(filepath.Dir(written.Path), ManifestName)
	entries, err := ReadManifest(path)
	if err != nil {
		return err
	}

	entry := ManifestEntry{
		Name:        written.Name,
		Path:        filepath.Base(written.Path),
		Kind:        written.Kind.String(),
		CRS:         written.CRS,
		Fingerprint: written.Fingerprint,
		Source:      source,
		WrittenAt:   s.now().UTC(),
	}
	replaced := false
	for i := range entries {
		if entries[i].Name == entry.Name {
			entries[i] = entry
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal manifest")
	}
	//nolint:gosec // Manifest is not sensitive
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write manifest")
	}
	return nil
}

// ReadManifest returns the entries of the manifest at path; a missing file
// is an empty manifest.
func ReadManifest(path string) ([]ManifestEntry, error) {
	//nolint:gosec // Path is derived from the output directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, "failed to read manifest")
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal manifest")
	}
	return entries, nil
}

// KindOf guesses the layer kind from the file extension.
func KindOf(path string) domain.LayerKind {
	if rasterExtensions[strings.ToLower(filepath.Ext(path))] {
		return domain.LayerRaster
	}
	return domain.LayerVector
}
