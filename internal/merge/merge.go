// Package merge folds the builder identities generated in one round into the
// manifests already on disk.
//
// Manifests only grow: an entry written by an earlier build is kept even if
// its implementation no longer exists. A merge that adds nothing leaves the
// file untouched so incremental builds see no change.
package merge

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sghaida/spi/manifest"
)

// IOError is returned when a manifest cannot be written.
type IOError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	// Example: merge: write manifest out/spi/example.com/greet.Greeter: permission denied
	return "merge: write manifest " + filepath.ToSlash(e.Path) + ": " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *IOError) Unwrap() error { return e.Err }

// Result describes one merged manifest.
type Result struct {
	Contract string
	Path     string

	// Entries is the manifest content after the merge, sorted.
	Entries []string

	// Added lists generated entries that were not in the prior manifest.
	Added []string

	// Written is false when the prior manifest already held every entry.
	Written bool
}

// Merger merges manifests under Root.
type Merger struct {
	root string
	log  *slog.Logger
}

// New returns a merger writing manifests below root. A nil log discards.
func New(root string, log *slog.Logger) *Merger {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Merger{root: root, log: log}
}

// Root returns the directory manifests are written under.
func (m *Merger) Root() string { return m.root }

// PathFor returns the file path of a contract's manifest.
func (m *Merger) PathFor(contract string) string {
	return filepath.Join(m.root, filepath.FromSlash(manifest.Path(contract)))
}

// Merge unions generated into the manifest of contract.
func (m *Merger) Merge(contract string, generated []string) (Result, error) {
	path := m.PathFor(contract)
	res := Result{Contract: contract, Path: path}

	prior := m.readPrior(path)
	next := manifest.NewSet(generated...)
	for _, e := range next.Sorted() {
		if !prior.Has(e) {
			res.Added = append(res.Added, e)
		}
	}

	if len(res.Added) == 0 {
		res.Entries = prior.Sorted()
		m.log.Debug("manifest unchanged, skipping rewrite", "contract", contract, "path", path, "entries", len(res.Entries))
		return res, nil
	}

	merged := prior.Union(next)
	res.Entries = merged.Sorted()
	m.log.Debug("writing manifest", "contract", contract, "path", path, "entries", res.Entries, "added", res.Added)

	if err := WriteFileAtomic(path, manifest.Encode(merged), 0o644); err != nil {
		return Result{Contract: contract, Path: path}, &IOError{Path: path, Err: err}
	}
	res.Written = true
	return res, nil
}

// readPrior returns the current manifest content. Missing or unreadable
// files count as empty.
func (m *Merger) readPrior(path string) manifest.Set {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.log.Debug("no existing manifest", "path", path)
		} else {
			m.log.Debug("existing manifest unreadable, treating as empty", "path", path, "err", err)
		}
		return manifest.Set{}
	}
	defer f.Close()

	set, err := manifest.Parse(f)
	if err != nil {
		m.log.Debug("existing manifest unreadable, treating as empty", "path", path, "err", err)
		return manifest.Set{}
	}
	m.log.Debug("existing manifest", "path", path, "entries", set.Sorted())
	return set
}
