package fs

import (
	"os"

	"go.trai.ch/zerr"
)

// Verifier checks that files an algorithm claims to have written exist.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// MissingOutputs returns the paths that do not exist, in input order.
func (v *Verifier) MissingOutputs(paths []string) ([]string, error) {
	var missing []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, path)
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, "failed to stat output"), "path", path)
		}
	}
	return missing, nil
}
