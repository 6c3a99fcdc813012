package spi

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrBuilderNotRegistered is wrapped by BuilderInstantiationError when a
	// manifest names a builder that no linked package registered. Usually the
	// implementation package is missing a blank import in the host binary.
	ErrBuilderNotRegistered = errors.New("spi: builder not registered")

	// ErrBuilderPanic is wrapped when a builder's Load panics.
	ErrBuilderPanic = errors.New("spi: builder panicked")

	// ErrNotContract is wrapped when a builder returns a value that does not
	// implement the requested contract.
	ErrNotContract = errors.New("spi: builder result does not implement contract")

	// ErrMultipleImplementations is wrapped when a Single contract resolves
	// to more than one builder across the load path.
	ErrMultipleImplementations = errors.New("spi: single policy contract has multiple implementations")
)

// InvalidPolicyError is returned when a contract is resolved in a way its
// declared policy does not allow, or when it has no declared policy at all.
type InvalidPolicyError struct {
	// Contract is the contract identity.
	Contract string

	// Declared is false when the contract was never declared.
	Declared bool

	// Policy is the declared policy (meaningful only when Declared).
	Policy Policy
}

// Error implements the error interface.
func (e *InvalidPolicyError) Error() string {
	if !e.Declared {
		// Example: spi: contract "example.com/a.Plugin" has no declared policy
		return "spi: contract " + strconv.Quote(e.Contract) + " has no declared policy"
	}
	// Example: spi: contract "example.com/a.Plugin" policy is multiple, resolve one requires single
	return "spi: contract " + strconv.Quote(e.Contract) + " policy is " + e.Policy.String() + ", resolve one requires single"
}

// BuilderInstantiationError is returned when the builders listed for a
// contract cannot produce its implementation set.
type BuilderInstantiationError struct {
	// Contract is the contract identity.
	Contract string

	// Builders holds the simple names of the implementations involved.
	Builders []string

	// Err is the cause (one of the Err... sentinels, possibly wrapped).
	Err error
}

// Error implements the error interface.
func (e *BuilderInstantiationError) Error() string {
	if errors.Is(e.Err, ErrMultipleImplementations) {
		// Example: spi: example.com/a.Greeter policy is single, but found multiple implementations: [A, B]
		return "spi: " + e.Contract + " policy is single, but found multiple implementations: [" +
			strings.Join(e.Builders, ", ") + "]"
	}
	msg := "spi: instantiate [" + strings.Join(e.Builders, ", ") + "] for " + e.Contract
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause.
func (e *BuilderInstantiationError) Unwrap() error { return e.Err }
