package engine

var (
	EncodeParams       = encodeParams
	ResolveEnvironment = resolveEnvironment
	NewProgressWriter  = newProgressWriter
	NewTailWriter      = newTailWriter
)
