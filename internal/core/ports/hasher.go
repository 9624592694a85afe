package ports

// Hasher fingerprints files.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputeFileHash returns the hex digest of the file content.
	ComputeFileHash(path string) (string, error)
}
