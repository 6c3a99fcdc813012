// Package spi resolves contract interfaces to the implementations that
// independently built packages declared for them.
//
// A contract is an interface marked for spigen:
//
//	// Greeter says hello.
//	//
//	//spi:contract single
//	type Greeter interface{ Greet() string }
//
// Implementations are marked in any package that can see the contract:
//
//	//spi:implementation
//	type EnglishGreeter struct{}
//
//	//spi:factory
//	func Instance() *EnglishGreeter { return &EnglishGreeter{} }
//
// Running `spigen generate` (usually via go:generate) writes, per
// implementation, a small builder type that registers itself with this
// package from init, plus one manifest file per contract listing the builders.
// Packages that declare contracts get a file that calls Declare from init.
//
// At run time the host links the implementation packages (a blank import is
// enough), points a Registry at the manifests and asks for contracts:
//
//	//go:embed spi
//	var manifests embed.FS
//
//	func main() {
//		spi.SetDefault(spi.NewRegistry(spi.WithLoadPath(manifests)))
//		g, ok, err := spi.ResolveOne[greet.Greeter]()
//		...
//	}
//
// # Policies
//
// Single contracts allow one implementation: ResolveOne returns it, and more
// than one builder on the load path is a BuilderInstantiationError. Multiple
// contracts allow any number; ResolveOne on them is an InvalidPolicyError, as
// is resolving a contract that was never declared.
//
// # Caching
//
// The first resolution of a contract reads its manifests and instantiates
// every builder; the result is kept for the life of the Registry and returned
// in the same order on every later call. Instances are never torn down.
// Resolutions that found nothing are not kept, so a later call retries.
//
// Registry is safe for concurrent use. Concurrent first resolutions of the
// same contract share one instantiation and observe the same instances.
package spi
