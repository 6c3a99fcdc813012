// Package model holds the symbol table shared by the build-time stages of
// spigen: the scanner fills it, the validator checks it and the code
// generator reads validated candidates out of it.
package model

import (
	"go/token"
	"strings"

	"github.com/sghaida/spi/manifest"
	"github.com/sghaida/spi/spi"
)

// QualifiedName names a declared type by import path and type path.
type QualifiedName struct {
	// Package is the import path of the declaring package.
	Package string

	// Type is the type name. Nested paths use '.' separators.
	Type string
}

// String returns the identity "importpath.Type", as used for manifest paths.
func (q QualifiedName) String() string {
	if q.Package == "" {
		return q.Type
	}
	return q.Package + "." + q.Type
}

// Simple returns the last segment of the type path.
func (q QualifiedName) Simple() string {
	if i := strings.LastIndexByte(q.Type, '.'); i >= 0 {
		return q.Type[i+1:]
	}
	return q.Type
}

// IsZero reports whether q names nothing.
func (q QualifiedName) IsZero() bool { return q.Package == "" && q.Type == "" }

// Contract is an interface marked //spi:contract.
type Contract struct {
	Name   QualifiedName
	Policy spi.Policy
}

// Identity returns the contract identity used for manifests and at run time.
func (c Contract) Identity() string { return c.Name.String() }

// Satisfied records that a type implements a contract. Pointer is true when
// only *T has the contract's method set.
type Satisfied struct {
	Contract Contract
	Pointer  bool
}

// TypeRef is a function result type reduced to its named base type.
// Name is zero when the result is not a named type.
type TypeRef struct {
	Name    QualifiedName
	Pointer bool

	// Expr is the type as written, for diagnostics.
	Expr string
}

// FuncElement is a function or method marked //spi:factory.
type FuncElement struct {
	Name string

	// Receiver is the receiver's base type name, empty for package-level functions.
	Receiver string

	Exported bool
	Params   int
	Results  []TypeRef

	// Target is the type named explicitly in the marker, if any.
	Target string

	Pos token.Position
}

// IsMethod reports whether f has a receiver.
func (f FuncElement) IsMethod() bool { return f.Receiver != "" }

// TypeElement is a named type marked //spi:implementation.
type TypeElement struct {
	Name QualifiedName

	// PkgName is the package clause name of the declaring package.
	PkgName string

	// Dir is the directory generated files for this type are written to.
	Dir string

	Exported bool

	// Struct is true when the underlying type is a struct and a zero value
	// composite literal can construct it.
	Struct bool

	Pos       token.Position
	Contracts []Satisfied
	Factories []FuncElement
}

// NeedsPointer reports whether any satisfied contract is only implemented by *T.
func (t TypeElement) NeedsPointer() bool {
	for _, s := range t.Contracts {
		if s.Pointer {
			return true
		}
	}
	return false
}

// BindingKind tells how a builder constructs its implementation.
type BindingKind int

const (
	// DefaultConstruct builds the zero value with a composite literal.
	DefaultConstruct BindingKind = iota

	// StaticFactory calls a package-level factory function.
	StaticFactory
)

func (k BindingKind) String() string {
	if k == StaticFactory {
		return "factory"
	}
	return "default"
}

// Binding is how a validated candidate is constructed.
type Binding struct {
	Kind BindingKind

	// Func is the factory function name for StaticFactory.
	Func string
}

// Candidate is a type element that passed validation.
type Candidate struct {
	Type      TypeElement
	Contracts []Contract
	Binding   Binding

	// Pointer is true when the builder yields *T rather than T.
	Pointer bool
}

// BuilderName returns the generated builder type name.
func (c Candidate) BuilderName() string { return manifest.BuilderTypeName(c.Type.Name.Type) }

// Identity returns the generated builder's identity as written to manifests.
func (c Candidate) Identity() string {
	return manifest.BuilderIdentity(c.Type.Name.Package, c.Type.Name.Type)
}

// Package is a scanned package that declares contracts.
type Package struct {
	Path      string
	Name      string
	Dir       string
	Contracts []Contract
}

// Round is one processing pass: every marked element found by a scan.
type Round struct {
	Packages        []Package
	Implementations []TypeElement
}
