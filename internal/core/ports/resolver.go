package ports

// InputResolver expands input patterns into concrete file paths.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs expands glob patterns relative to root. Every pattern
	// must match at least one file.
	ResolveInputs(patterns []string, root string) ([]string, error)
}
