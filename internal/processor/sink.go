package processor

import (
	"bytes"
	"os"

	"github.com/sghaida/spi/internal/codegen"
	"github.com/sghaida/spi/internal/merge"
)

// Sink receives generated source files.
type Sink interface {
	// Write stores f and reports whether anything changed.
	Write(f codegen.File) (changed bool, err error)
}

// DirSink writes generated files to their directories on disk. A file that
// already holds the rendered content is left alone so watchers and build
// caches see no change.
type DirSink struct{}

// Write implements Sink.
func (DirSink) Write(f codegen.File) (bool, error) {
	path := f.Path()
	if cur, err := os.ReadFile(path); err == nil && bytes.Equal(cur, f.Content) {
		return false, nil
	}
	if err := merge.WriteFileAtomic(path, f.Content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// MemSink collects generated files in memory, keyed by path.
type MemSink struct {
	Files map[string][]byte
}

// NewMemSink returns an empty MemSink.
func NewMemSink() *MemSink { return &MemSink{Files: map[string][]byte{}} }

// Write implements Sink.
func (m *MemSink) Write(f codegen.File) (bool, error) {
	path := f.Path()
	if cur, ok := m.Files[path]; ok && bytes.Equal(cur, f.Content) {
		return false, nil
	}
	m.Files[path] = f.Content
	return true, nil
}
