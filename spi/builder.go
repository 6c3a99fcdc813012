package spi

import (
	"fmt"
	"sort"
	"sync"
)

// Builder is the calling convention of generated builders: a zero size type
// whose Load constructs one implementation instance.
type Builder[S any] interface {
	Load() S
}

// Loader is a type-erased Builder.
type Loader func() any

// BuilderTable maps builder identities to loaders.
//
// Generated code populates the process table from init functions, so the
// table is complete once main starts. It is safe for concurrent use.
type BuilderTable struct {
	mu    sync.RWMutex
	items map[string]Loader
}

// NewBuilderTable returns an empty table.
func NewBuilderTable() *BuilderTable {
	return &BuilderTable{items: map[string]Loader{}}
}

// Provide stores a loader under identity and returns the table for chaining.
// A later Provide for the same identity replaces the earlier one.
func (t *BuilderTable) Provide(identity string, load Loader) *BuilderTable {
	t.mu.Lock()
	t.items[identity] = load
	t.mu.Unlock()
	return t
}

// Lookup returns the loader registered under identity.
func (t *BuilderTable) Lookup(identity string) (Loader, bool) {
	t.mu.RLock()
	load, ok := t.items[identity]
	t.mu.RUnlock()
	return load, ok
}

// Load runs the loader registered under identity and converts a panic in the
// loader into an error wrapping ErrBuilderPanic.
func (t *BuilderTable) Load(identity string) (val any, ok bool, err error) {
	load, ok := t.Lookup(identity)
	if !ok || load == nil {
		return nil, false, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			err = fmt.Errorf("%w: %v", ErrBuilderPanic, rec)
		}
	}()

	return load(), true, nil
}

// Identities returns the registered identities in sorted order.
func (t *BuilderTable) Identities() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Register adds a generated builder to the process builder table.
//
//	func init() {
//		spiruntime.Register[*EnglishGreeter]("example.com/english.EnglishGreeter_Builder", EnglishGreeter_Builder{})
//	}
func Register[S any](identity string, b Builder[S]) {
	defaultBuilders.Provide(identity, func() any { return b.Load() })
}
