package spi

import "strings"

// Policy is the cardinality policy of a contract.
type Policy int

const (
	// Multiple allows any number of implementations. It is the default when a
	// contract marker does not name a policy.
	Multiple Policy = iota

	// Single allows at most one implementation across the whole program.
	// A second implementation in one build fails code generation; a second
	// implementation that only meets the first at run time (separately built
	// packages whose manifests are unioned on the load path) fails resolution.
	Single
)

// String returns the marker spelling of the policy.
func (p Policy) String() string {
	switch p {
	case Single:
		return "single"
	case Multiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// GoString returns the Go expression generated code uses for the policy.
func (p Policy) GoString() string {
	switch p {
	case Single:
		return "spi.Single"
	default:
		return "spi.Multiple"
	}
}

// ParsePolicy parses a marker policy argument. An empty argument yields Multiple.
func ParsePolicy(s string) (Policy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multiple":
		return Multiple, true
	case "single":
		return Single, true
	default:
		return Multiple, false
	}
}
