// Package manifest defines the wire format shared by the spigen code generator
// and the spi runtime registry.
//
// A manifest is a plain text file at Path(contract) listing one generated
// builder identity per line. Text after '#' is a comment and blank lines are
// ignored. Writers always emit the entries sorted and deduplicated so that
// rebuilding the same sources produces byte-identical output.
//
// Builder identities are derived from the implementation's qualified name:
//
//	example.com/greet/english.EnglishGreeter -> example.com/greet/english.EnglishGreeter_Builder
package manifest

import (
	"bufio"
	"io"
	"path"
	"sort"
	"strings"
)

const (
	// Root is the directory, relative to a load path root, holding manifests.
	Root = "spi"

	// BuilderSuffix is appended to the implementation's type path to name its builder.
	BuilderSuffix = "_Builder"

	// JoinChar replaces '.' separators inside a nested type path.
	JoinChar = "_"
)

// Path returns the slash separated manifest path for a contract identity.
func Path(contract string) string {
	return path.Join(Root, contract)
}

// BuilderIdentity returns the generated builder identity for the
// implementation typePath declared in package pkgPath.
func BuilderIdentity(pkgPath, typePath string) string {
	return pkgPath + "." + BuilderTypeName(typePath)
}

// BuilderTypeName returns the Go identifier of the builder generated for typePath.
func BuilderTypeName(typePath string) string {
	return strings.ReplaceAll(typePath, ".", JoinChar) + BuilderSuffix
}

// SplitIdentity splits a builder identity into its package path and builder type name.
func SplitIdentity(identity string) (pkgPath, typeName string) {
	i := strings.LastIndex(identity, ".")
	if i < 0 {
		return "", identity
	}
	return identity[:i], identity[i+1:]
}

// SimpleName recovers a human readable implementation name from a builder
// identity by dropping the package path and the builder suffix.
func SimpleName(identity string) string {
	_, name := SplitIdentity(identity)
	return strings.TrimSuffix(name, BuilderSuffix)
}

// Set is an unordered set of builder identities.
type Set map[string]struct{}

// NewSet returns a set holding entries.
func NewSet(entries ...string) Set {
	s := make(Set, len(entries))
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Add inserts an entry. Surrounding whitespace is trimmed and empty entries are ignored.
func (s Set) Add(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}
	s[entry] = struct{}{}
}

// Has reports whether entry is in the set.
func (s Set) Has(entry string) bool {
	_, ok := s[entry]
	return ok
}

// ContainsAll reports whether every entry of other is already in s.
func (s Set) ContainsAll(other Set) bool {
	for e := range other {
		if !s.Has(e) {
			return false
		}
	}
	return true
}

// Union returns a new set holding the entries of s and other.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for e := range s {
		out[e] = struct{}{}
	}
	for e := range other {
		out[e] = struct{}{}
	}
	return out
}

// Sorted returns the entries in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Parse reads a manifest. Comments and blank lines are dropped.
func Parse(r io.Reader) (Set, error) {
	entries, err := ParseOrdered(r)
	if err != nil {
		return nil, err
	}
	return NewSet(entries...), nil
}

// ParseOrdered reads a manifest and returns its entries in file order,
// keeping the first occurrence of duplicates.
func ParseOrdered(r io.Reader) ([]string, error) {
	var out []string
	seen := map[string]struct{}{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Write writes the entries of s sorted, one per line.
func Write(w io.Writer, s Set) error {
	bw := bufio.NewWriter(w)
	for _, e := range s.Sorted() {
		if _, err := bw.WriteString(e); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Encode returns the bytes Write would produce for s.
func Encode(s Set) []byte {
	var sb strings.Builder
	for _, e := range s.Sorted() {
		sb.WriteString(e)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}
