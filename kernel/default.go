package kernel

// Default builds a Registry carrying every reference kernel this module
// ships. Callers that need a custom or partial kernel set (tests, a
// restricted deployment) construct a Registry directly and call only the
// Register* functions they need.
func Default() *Registry {
	r := NewRegistry()
	RegisterHostKernels(r)
	RegisterHostKernelsExtra(r)
	RegisterBitKernels(r)
	RegisterPrimKernels(r)
	RegisterFixedpointKernels(r)
	RegisterReplicatedKernels(r)
	RegisterAdditiveKernels(r)
	RegisterMirroredKernels(r)
	return r
}
