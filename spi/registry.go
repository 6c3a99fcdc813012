package spi

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/sghaida/spi/manifest"
)

// Registry resolves contracts to implementation instances.
//
// On the first request for a contract it reads the contract's manifest from
// every file system of its load path, instantiates each listed builder and
// caches the result for the rest of the process. It is safe for concurrent use.
type Registry struct {
	loadPath  []fs.FS
	builders  *BuilderTable
	contracts *ContractTable
	cache     *resolvedCache
	group     singleflight.Group
	log       *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoadPath appends file systems to the load path. Each is expected to
// hold manifests under manifest.Root.
func WithLoadPath(fsys ...fs.FS) Option {
	return func(r *Registry) {
		for _, f := range fsys {
			if f != nil {
				r.loadPath = append(r.loadPath, f)
			}
		}
	}
}

// WithDirs appends directories to the load path.
func WithDirs(dirs ...string) Option {
	return func(r *Registry) {
		for _, d := range dirs {
			if d != "" {
				r.loadPath = append(r.loadPath, os.DirFS(d))
			}
		}
	}
}

// WithBuilders replaces the process builder table.
func WithBuilders(t *BuilderTable) Option {
	return func(r *Registry) {
		if t != nil {
			r.builders = t
		}
	}
}

// WithContracts replaces the process contract table.
func WithContracts(t *ContractTable) Option {
	return func(r *Registry) {
		if t != nil {
			r.contracts = t
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry returns a registry using the process builder and contract
// tables unless overridden by opts.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		builders:  defaultBuilders,
		contracts: defaultContracts,
		cache:     newResolvedCache(),
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the declared policy of contract.
func (r *Registry) Policy(contract string) (Policy, error) {
	p, ok := r.contracts.Policy(contract)
	if !ok {
		return Multiple, &InvalidPolicyError{Contract: contract}
	}
	return p, nil
}

// ResolveAll returns the implementations of contract in manifest order.
// Repeated calls return the same instances in the same order. A contract
// with no manifest anywhere on the load path resolves to an empty slice.
func (r *Registry) ResolveAll(contract string) ([]any, error) {
	set, err := r.resolve(contract)
	if err != nil {
		return nil, err
	}
	return slices.Clone(set.values), nil
}

// ResolveOne returns the implementation of a Single contract, or ok=false
// when it has none.
func (r *Registry) ResolveOne(contract string) (val any, ok bool, err error) {
	set, err := r.resolveSingle(contract)
	if err != nil || len(set.values) == 0 {
		return nil, false, err
	}
	return set.values[0], true, nil
}

// resolveSingle checks that contract is declared Single before resolving it.
func (r *Registry) resolveSingle(contract string) (*resolvedSet, error) {
	p, err := r.Policy(contract)
	if err != nil {
		return nil, err
	}
	if p != Single {
		return nil, &InvalidPolicyError{Contract: contract, Declared: true, Policy: p}
	}
	return r.resolve(contract)
}

func (r *Registry) resolve(contract string) (*resolvedSet, error) {
	p, err := r.Policy(contract)
	if err != nil {
		return nil, err
	}
	if set, ok := r.cache.get(contract); ok {
		return set, nil
	}

	v, err, _ := r.group.Do(contract, func() (any, error) {
		if set, ok := r.cache.get(contract); ok {
			return set, nil
		}
		set, err := r.instantiate(contract, p)
		if err != nil {
			return nil, err
		}
		return r.cache.store(contract, set), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*resolvedSet), nil
}

func (r *Registry) instantiate(contract string, p Policy) (*resolvedSet, error) {
	ids, err := r.readManifests(contract)
	if err != nil {
		return nil, err
	}

	if p == Single && len(ids) > 1 {
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = manifest.SimpleName(id)
		}
		return nil, &BuilderInstantiationError{Contract: contract, Builders: names, Err: ErrMultipleImplementations}
	}

	set := &resolvedSet{
		builders: make([]string, 0, len(ids)),
		values:   make([]any, 0, len(ids)),
	}
	for _, id := range ids {
		val, ok, err := r.builders.Load(id)
		if !ok {
			return nil, &BuilderInstantiationError{
				Contract: contract,
				Builders: []string{manifest.SimpleName(id)},
				Err:      fmt.Errorf("%w: %s", ErrBuilderNotRegistered, id),
			}
		}
		if err != nil {
			return nil, &BuilderInstantiationError{Contract: contract, Builders: []string{manifest.SimpleName(id)}, Err: err}
		}
		set.builders = append(set.builders, id)
		set.values = append(set.values, val)
	}

	r.log.Debug("spi: resolved contract", "contract", contract, "policy", p.String(), "builders", set.builders)
	return set, nil
}

// readManifests returns the builder identities listed for contract across the
// load path, in load path order then file order, first occurrence wins.
func (r *Registry) readManifests(contract string) ([]string, error) {
	p := manifest.Path(contract)
	if !fs.ValidPath(p) {
		r.log.Debug("spi: contract has no valid manifest path", "contract", contract)
		return nil, nil
	}

	var ids []string
	seen := map[string]struct{}{}
	for _, fsys := range r.loadPath {
		f, err := fsys.Open(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("spi: open manifest %s: %w", p, err)
		}
		entries, err := manifest.ParseOrdered(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("spi: read manifest %s: %w", p, err)
		}
		for _, id := range entries {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		r.log.Debug("spi: no manifest entries on load path", "contract", contract, "path", p)
	}
	return ids, nil
}

// All resolves every implementation of contract C.
func All[C any](r *Registry) ([]C, error) {
	contract := ContractName[C]()
	set, err := r.resolve(contract)
	if err != nil {
		return nil, err
	}
	out := make([]C, 0, len(set.values))
	for i, v := range set.values {
		c, ok := v.(C)
		if !ok {
			return nil, &BuilderInstantiationError{
				Contract: contract,
				Builders: []string{manifest.SimpleName(set.builders[i])},
				Err:      fmt.Errorf("%w: got %T", ErrNotContract, v),
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// One resolves the implementation of Single contract C. ok is false when
// the contract has no implementation on the load path.
func One[C any](r *Registry) (C, bool, error) {
	var zero C
	contract := ContractName[C]()
	set, err := r.resolveSingle(contract)
	if err != nil || len(set.values) == 0 {
		return zero, false, err
	}
	c, ok := set.values[0].(C)
	if !ok {
		return zero, false, &BuilderInstantiationError{
			Contract: contract,
			Builders: []string{manifest.SimpleName(set.builders[0])},
			Err:      fmt.Errorf("%w: got %T", ErrNotContract, set.values[0]),
		}
	}
	return c, true, nil
}
