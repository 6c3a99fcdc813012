// Package spi is a service-provider system for Go: contracts declared as
// interfaces in one package, implementations supplied by any number of
// separately built packages, and a registry that finds them at run time
// without reflection over the binary or a hand-written wiring table.
//
// The repository has two halves:
//
//   - build time: cmd/spigen scans packages for //spi:contract,
//     //spi:implementation and //spi:factory markers, validates every
//     implementation, generates a builder per implementation and merges the
//     builder identities into one manifest per contract (spi/<contract>)
//   - run time: package spi (subdirectory spi/) reads the manifests, looks up
//     the builders registered by generated init functions and caches the
//     resolved instances per contract
//
// See subpackages:
//   - spi: the Resolution Registry and the ResolveOne / ResolveAll locator API
//   - manifest: the manifest file format shared by both halves
//   - cmd/spigen: the generator CLI (generate, watch, manifests)
//   - internal/*: scanner, validator, code generator, manifest merger and
//     the processor that runs them as one round
//   - examples/fraud: runnable end-to-end example with embedded manifests
package spi
