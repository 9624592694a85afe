// Package fs provides file system adapters for resolving, walking and
// fingerprinting layer files.
package fs

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// DefaultIgnores are skipped by WalkFiles in addition to the caller's patterns.
// GDAL and ESRI drivers leave lock and auxiliary files next to datasets that
// change without the data changing.
var DefaultIgnores = []string{"*.lock", "*.aux.xml", ".git"}

// shapefileSidecars travel with a .shp file when present.
var shapefileSidecars = []string{".shx", ".dbf", ".prj", ".cpg"}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields, in lexical order, every file below root whose name matches
// neither DefaultIgnores nor ignores. Yielded paths start with root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path != root && w.ignored(d.Name(), ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) ignored(name string, ignores []string) bool {
	for _, patterns := range [][]string{DefaultIgnores, ignores} {
		for _, pattern := range patterns {
			if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
		}
	}
	return false
}

// DatasetFiles lists the files making up the dataset at path: every file of a
// directory dataset such as a file geodatabase, a shapefile with its
// sidecars, or path alone.
func (w *Walker) DatasetFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to stat dataset"), "path", path)
	}

	if info.IsDir() {
		var files []string
		for file := range w.WalkFiles(path, nil) {
			files = append(files, file)
		}
		return files, nil
	}

	files := []string{path}
	if ext := filepath.Ext(path); strings.EqualFold(ext, ".shp") {
		stem := strings.TrimSuffix(path, ext)
		for _, sidecar := range shapefileSidecars {
			if _, err := os.Stat(stem + sidecar); err == nil {
				files = append(files, stem+sidecar)
			}
		}
	}
	return files, nil
}
