package ir

// Application identity recorded as the owning application of emitted sets.
const (
	ApplicationName = "ifcpset"

	// ApplicationVersion is bumped when exported output changes for the
	// same model and registry.
	ApplicationVersion = "0.1.0"
)
