package fs

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// auxiliarySuffixes name files that sit next to rasters but are not inputs.
var auxiliarySuffixes = []string{".aux.xml", ".ovr", ".lock", ".msk"}

// Resolver implements ports.InputResolver with filepath.Glob.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs expands patterns into files. Relative patterns are taken
// relative to root. The result keeps pattern order, with each pattern's
// matches sorted, since a mosaic paints later inputs over earlier ones. A path
// matched twice keeps its first position. Directories and auxiliary files are
// skipped; a pattern left with no file fails with ErrInputNotFound.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, input := range inputs {
		pattern := input
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, input)
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "path", pattern)
		}
		slices.Sort(matches)

		found := 0
		for _, match := range matches {
			if !isInputFile(match) {
				continue
			}
			found++
			if !seen[match] {
				seen[match] = true
				result = append(result, match)
			}
		}
		if found == 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrInputNotFound, "pattern matched no file"), "path", pattern)
		}
	}

	return result, nil
}

func isInputFile(path string) bool {
	for _, suffix := range auxiliarySuffixes {
		if strings.HasSuffix(strings.ToLower(path), suffix) {
			return false
		}
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
