package spi

import (
	"os"
	"path/filepath"
	"sync/atomic"
)

// EnvPath names the environment variable holding the default registry's load
// path: a list of directories separated by os.PathListSeparator.
const EnvPath = "SPI_PATH"

var (
	defaultBuilders  = NewBuilderTable()
	defaultContracts = NewContractTable()
	defaultRegistry  atomic.Pointer[Registry]
)

// Builders returns the process builder table populated by generated code.
func Builders() *BuilderTable { return defaultBuilders }

// Contracts returns the process contract table populated by generated code.
func Contracts() *ContractTable { return defaultContracts }

// Default returns the process registry, creating it on first use. Its load
// path is taken from SPI_PATH, or the working directory when that is unset.
// Hosts that embed their manifests install their own with SetDefault.
func Default() *Registry {
	if r := defaultRegistry.Load(); r != nil {
		return r
	}
	r := NewRegistry(WithDirs(defaultDirs()...))
	if defaultRegistry.CompareAndSwap(nil, r) {
		return r
	}
	return defaultRegistry.Load()
}

// SetDefault replaces the process registry. A nil r resets it so the next
// Default call builds a fresh one.
func SetDefault(r *Registry) {
	defaultRegistry.Store(r)
}

func defaultDirs() []string {
	if v := os.Getenv(EnvPath); v != "" {
		return filepath.SplitList(v)
	}
	return []string{"."}
}

// ResolveAll returns every implementation of contract C from the process registry.
func ResolveAll[C any]() ([]C, error) {
	return All[C](Default())
}

// ResolveOne returns the implementation of Single contract C from the process
// registry. ok is false when there is none.
func ResolveOne[C any]() (C, bool, error) {
	return One[C](Default())
}
