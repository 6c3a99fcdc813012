// Package scan loads Go packages and collects the elements marked with spi
// directives into a model.Round.
//
// Markers are directive comments in the doc comment of a declaration:
//
//	//spi:contract [single|multiple]     on an interface type
//	//spi:implementation [Contract...]   on a defined type
//	//spi:factory [TypeName]             on a function returning the type
//
// An implementation provides the contracts it declares: those named in its
// marker (Greeter, greet.Greeter or example.com/greet.Greeter) and those it is
// asserted against at package level (var _ greet.Greeter = (*T)(nil)). Only
// when it declares none is it bound to every contract with at least one
// method that it satisfies. Contracts are looked up in the implementation's
// own package and the packages it imports directly.
//
// Contracts cannot be declared in package main: nothing can import them, and
// the runtime names them main.T rather than by import path.
package scan

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/sghaida/spi/internal/codegen"
	"github.com/sghaida/spi/internal/model"
	"github.com/sghaida/spi/spi"
)

// Options controls a scan.
type Options struct {
	// Dir is the directory the go tool runs in.
	Dir string

	// Patterns are package patterns relative to Dir. Default ".".
	Patterns []string

	// Tags are build tags.
	Tags []string

	Log *slog.Logger
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

// Load type-checks the packages matching opts.Patterns and returns their
// marked elements. Type errors located in generated files are logged and
// ignored so that stale output never blocks a regeneration.
func Load(ctx context.Context, opts Options) (model.Round, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	cfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        opts.Dir,
		BuildFlags: buildFlags(opts.Tags),
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return model.Round{}, fmt.Errorf("scan: load %s: %w", strings.Join(patterns, " "), err)
	}
	if err := checkErrors(pkgs, log); err != nil {
		return model.Round{}, err
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	s := &scanner{log: log, contracts: map[string][]model.Contract{}}
	for _, pkg := range pkgs {
		s.collectContracts(pkg)
	}
	if err := s.loadImportedContracts(ctx, cfg, pkgs); err != nil {
		return model.Round{}, err
	}
	for _, pkg := range pkgs {
		s.collectImplementations(pkg)
	}
	if len(s.errs) > 0 {
		return model.Round{}, errors.Join(s.errs...)
	}

	log.Debug("scan complete",
		"packages", len(pkgs),
		"contract_packages", len(s.round.Packages),
		"implementations", len(s.round.Implementations))
	return s.round, nil
}

func buildFlags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	return []string{"-tags=" + strings.Join(tags, ",")}
}

// checkErrors fails on any package error outside generated files.
func checkErrors(pkgs []*packages.Package, log *slog.Logger) error {
	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			if strings.Contains(e.Pos, codegen.Suffix) {
				log.Warn("ignoring error in generated file", "package", pkg.PkgPath, "pos", e.Pos, "err", e.Msg)
				continue
			}
			errs = append(errs, fmt.Errorf("scan: %s: %w", pkg.PkgPath, e))
		}
	}
	return errors.Join(errs...)
}

type scanner struct {
	log *slog.Logger

	// contracts holds the marked contracts per import path, for loaded
	// packages and their direct imports.
	contracts map[string][]model.Contract

	round model.Round
	errs  []error
}

func (s *scanner) errorf(fset *token.FileSet, pos token.Pos, format string, args ...any) {
	s.errs = append(s.errs, fmt.Errorf("scan: %s: %s", fset.Position(pos), fmt.Sprintf(format, args...)))
}

// marker is one parsed //spi: directive.
type marker struct {
	kind string
	arg  string
	args []string
	pos  token.Pos
}

const (
	markerPrefix         = "//spi:"
	markerContract       = "contract"
	markerImplementation = "implementation"
	markerFactory        = "factory"
)

// parseMarkers returns the spi directives in a doc comment.
func parseMarkers(doc *ast.CommentGroup) []marker {
	if doc == nil {
		return nil
	}
	var out []marker
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, markerPrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(c.Text, markerPrefix))
		if len(fields) == 0 {
			continue
		}
		m := marker{kind: fields[0], pos: c.Slash}
		if len(fields) > 1 {
			m.arg = fields[1]
			m.args = fields[1:]
		}
		out = append(out, m)
	}
	return out
}

// typeSpecs calls fn for every type spec in file with its effective doc comment.
func typeSpecs(file *ast.File, fn func(ts *ast.TypeSpec, doc *ast.CommentGroup)) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && len(gd.Specs) == 1 {
				doc = gd.Doc
			}
			fn(ts, doc)
		}
	}
}

// contractMarkers returns the contracts marked in the files of package path.
// Only the marker syntax is checked here; errors are reported against fset.
func (s *scanner) contractMarkers(path string, fset *token.FileSet, files []*ast.File, report bool) []model.Contract {
	var out []model.Contract
	for _, file := range files {
		typeSpecs(file, func(ts *ast.TypeSpec, doc *ast.CommentGroup) {
			for _, m := range parseMarkers(doc) {
				if m.kind != markerContract {
					continue
				}
				policy, ok := spi.ParsePolicy(m.arg)
				if !ok {
					if report {
						s.errorf(fset, m.pos, "invalid policy %q for contract %s, want single or multiple", m.arg, ts.Name.Name)
					}
					continue
				}
				if _, isIface := ts.Type.(*ast.InterfaceType); !isIface {
					if report {
						s.errorf(fset, m.pos, "//spi:contract on %s, which is not an interface", ts.Name.Name)
					}
					continue
				}
				if ts.TypeParams != nil {
					if report {
						s.errorf(fset, m.pos, "contract %s must not be generic", ts.Name.Name)
					}
					continue
				}
				out = append(out, model.Contract{
					Name:   model.QualifiedName{Package: path, Type: ts.Name.Name},
					Policy: policy,
				})
			}
		})
	}
	return out
}

// collectContracts records the contracts a loaded package declares.
func (s *scanner) collectContracts(pkg *packages.Package) {
	contracts := s.contractMarkers(pkg.PkgPath, pkg.Fset, pkg.Syntax, true)
	if len(contracts) > 0 && pkg.Name == "main" {
		for _, c := range contracts {
			s.errs = append(s.errs, fmt.Errorf(
				"scan: %s: contract %s is declared in package main, which cannot be imported; move it to its own package",
				pkg.PkgPath, c.Name.Type))
		}
		contracts = nil
	}
	s.contracts[pkg.PkgPath] = contracts
	if len(contracts) == 0 {
		return
	}
	s.round.Packages = append(s.round.Packages, model.Package{
		Path:      pkg.PkgPath,
		Name:      pkg.Name,
		Dir:       packageDir(pkg),
		Contracts: contracts,
	})
	s.log.Debug("contracts found", "package", pkg.PkgPath, "count", len(contracts))
}

// loadImportedContracts reads contract markers from the direct imports of
// pkgs that were not loaded themselves. Only file lists are loaded for them;
// their sources are parsed for comments alone.
func (s *scanner) loadImportedContracts(ctx context.Context, base *packages.Config, pkgs []*packages.Package) error {
	need := map[string]struct{}{}
	for _, pkg := range pkgs {
		for path := range pkg.Imports {
			if _, done := s.contracts[path]; done || isStdlib(path) {
				continue
			}
			need[path] = struct{}{}
		}
	}
	if len(need) == 0 {
		return nil
	}

	paths := make([]string, 0, len(need))
	for p := range need {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	cfg := &packages.Config{
		Context:    ctx,
		Mode:       packages.NeedName | packages.NeedFiles,
		Dir:        base.Dir,
		BuildFlags: base.BuildFlags,
	}
	imported, err := packages.Load(cfg, paths...)
	if err != nil {
		return fmt.Errorf("scan: load imports: %w", err)
	}

	fset := token.NewFileSet()
	for _, imp := range imported {
		var files []*ast.File
		for _, name := range imp.GoFiles {
			f, err := parser.ParseFile(fset, name, nil, parser.ParseComments|parser.SkipObjectResolution)
			if err != nil {
				s.log.Debug("cannot parse imported file, skipping", "file", name, "err", err)
				continue
			}
			files = append(files, f)
		}
		s.contracts[imp.PkgPath] = s.contractMarkers(imp.PkgPath, fset, files, false)
		if n := len(s.contracts[imp.PkgPath]); n > 0 {
			s.log.Debug("imported contracts found", "package", imp.PkgPath, "count", n)
		}
	}
	return nil
}

// isStdlib reports whether path looks like a standard library import path.
func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

// visible is a contract an implementation in some package can satisfy,
// resolved in that package's own type universe.
type visible struct {
	contract model.Contract
	obj      *types.TypeName
	iface    *types.Interface
}

func (s *scanner) visibleContracts(pkg *packages.Package) []visible {
	var out []visible
	add := func(scope *types.Scope, contracts []model.Contract) {
		for _, c := range contracts {
			obj, ok := scope.Lookup(c.Name.Type).(*types.TypeName)
			if !ok {
				continue
			}
			iface, ok := obj.Type().Underlying().(*types.Interface)
			if !ok {
				continue
			}
			out = append(out, visible{contract: c, obj: obj, iface: iface})
		}
	}

	add(pkg.Types.Scope(), s.contracts[pkg.PkgPath])
	for _, imp := range pkg.Types.Imports() {
		add(imp.Scope(), s.contracts[imp.Path()])
	}
	return out
}

// collectImplementations records the marked implementations of pkg with the
// contracts they satisfy and their marked factories.
func (s *scanner) collectImplementations(pkg *packages.Package) {
	contracts := s.visibleContracts(pkg)
	asserted := assertedContracts(pkg, contracts)

	var (
		elements []*model.TypeElement
		byName   = map[string]*model.TypeElement{}
	)

	for _, file := range pkg.Syntax {
		typeSpecs(file, func(ts *ast.TypeSpec, doc *ast.CommentGroup) {
			for _, m := range parseMarkers(doc) {
				switch m.kind {
				case markerContract:
				case markerImplementation:
					if el := s.typeElement(pkg, ts, m, contracts, asserted); el != nil {
						elements = append(elements, el)
						byName[el.Name.Type] = el
					}
				default:
					s.errorf(pkg.Fset, m.pos, "unknown or misplaced marker //spi:%s on type %s", m.kind, ts.Name.Name)
				}
			}
		})
	}

	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			for _, m := range parseMarkers(fd.Doc) {
				if m.kind != markerFactory {
					s.errorf(pkg.Fset, m.pos, "unknown or misplaced marker //spi:%s on function %s", m.kind, fd.Name.Name)
					continue
				}
				f, ok := s.funcElement(pkg, fd, m)
				if !ok {
					continue
				}
				target := associate(pkg.PkgPath, f)
				el, found := byName[target]
				if !found {
					s.errorf(pkg.Fset, fd.Name.Pos(),
						"factory %s is not associated with a marked implementation; name the type with //spi:factory TypeName", fd.Name.Name)
					continue
				}
				el.Factories = append(el.Factories, f)
			}
		}
	}

	for _, el := range elements {
		s.round.Implementations = append(s.round.Implementations, *el)
	}
}

// assertedContracts returns, per type, the visible contracts it is asserted
// against by a package-level blank variable such as var _ C = T{} or
// var _ C = (*T)(nil).
func assertedContracts(pkg *packages.Package, contracts []visible) map[*types.TypeName][]*types.TypeName {
	out := map[*types.TypeName][]*types.TypeName{}
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.VAR {
				continue
			}
			for _, spec := range gd.Specs {
				vs := spec.(*ast.ValueSpec)
				if vs.Type == nil {
					continue
				}
				target := contractOf(pkg.TypesInfo.TypeOf(vs.Type), contracts)
				if target == nil {
					continue
				}
				for i, name := range vs.Names {
					if name.Name != "_" || i >= len(vs.Values) {
						continue
					}
					if n := baseNamed(pkg.TypesInfo.TypeOf(vs.Values[i])); n != nil {
						out[n.Obj()] = append(out[n.Obj()], target)
					}
				}
			}
		}
	}
	return out
}

// contractOf returns the contract object t names, or nil.
func contractOf(t types.Type, contracts []visible) *types.TypeName {
	n, ok := t.(*types.Named)
	if !ok {
		return nil
	}
	for _, c := range contracts {
		if c.obj == n.Obj() {
			return c.obj
		}
	}
	return nil
}

// resolveContract finds the visible contract a marker argument names.
func resolveContract(pkg *types.Package, ref string, contracts []visible) (visible, bool) {
	for _, c := range contracts {
		switch {
		case ref == c.contract.Identity():
		case c.obj.Pkg() == pkg && ref == c.obj.Name():
		case ref == c.obj.Pkg().Name()+"."+c.obj.Name():
		default:
			continue
		}
		return c, true
	}
	return visible{}, false
}

func (s *scanner) typeElement(pkg *packages.Package, ts *ast.TypeSpec, m marker, contracts []visible, asserted map[*types.TypeName][]*types.TypeName) *model.TypeElement {
	obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok || obj.IsAlias() {
		s.errorf(pkg.Fset, ts.Name.Pos(), "implementation %s must be a defined type, not an alias", ts.Name.Name)
		return nil
	}
	if ts.TypeParams != nil {
		s.errorf(pkg.Fset, ts.Name.Pos(), "implementation %s must not be generic", ts.Name.Name)
		return nil
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		s.errorf(pkg.Fset, ts.Name.Pos(), "implementation %s must be a named type", ts.Name.Name)
		return nil
	}

	pos := pkg.Fset.Position(ts.Name.Pos())
	_, isStruct := named.Underlying().(*types.Struct)
	el := &model.TypeElement{
		Name:     model.QualifiedName{Package: pkg.PkgPath, Type: ts.Name.Name},
		PkgName:  pkg.Name,
		Dir:      filepath.Dir(pos.Filename),
		Exported: ts.Name.IsExported(),
		Struct:   isStruct,
		Pos:      pos,
	}

	declared := map[*types.TypeName]bool{}
	for _, ref := range m.args {
		c, found := resolveContract(pkg.Types, ref, contracts)
		if !found {
			s.errorf(pkg.Fset, m.pos, "//spi:implementation on %s names %s, which is not a contract of this package or its imports", ts.Name.Name, ref)
			continue
		}
		declared[c.obj] = true
	}
	for _, c := range asserted[obj] {
		declared[c] = true
	}

	for _, c := range contracts {
		if c.obj == obj {
			continue
		}
		explicit := declared[c.obj]
		if len(declared) > 0 && !explicit {
			continue
		}
		if len(declared) == 0 && c.iface.NumMethods() == 0 {
			continue
		}
		switch {
		case types.Implements(named, c.iface):
			el.Contracts = append(el.Contracts, model.Satisfied{Contract: c.contract})
		case types.Implements(types.NewPointer(named), c.iface):
			el.Contracts = append(el.Contracts, model.Satisfied{Contract: c.contract, Pointer: true})
		case explicit:
			s.errorf(pkg.Fset, ts.Name.Pos(), "%s is declared as %s but does not implement it", ts.Name.Name, c.contract.Identity())
		}
	}
	return el
}

func (s *scanner) funcElement(pkg *packages.Package, fd *ast.FuncDecl, m marker) (model.FuncElement, bool) {
	fn, ok := pkg.TypesInfo.Defs[fd.Name].(*types.Func)
	if !ok {
		s.errorf(pkg.Fset, fd.Name.Pos(), "factory %s has no type information", fd.Name.Name)
		return model.FuncElement{}, false
	}
	sig := fn.Type().(*types.Signature)

	f := model.FuncElement{
		Name:     fd.Name.Name,
		Exported: fd.Name.IsExported(),
		Params:   sig.Params().Len(),
		Target:   m.arg,
		Pos:      pkg.Fset.Position(fd.Name.Pos()),
	}
	if recv := sig.Recv(); recv != nil {
		if n := baseNamed(recv.Type()); n != nil {
			f.Receiver = n.Obj().Name()
		}
	}
	qual := types.RelativeTo(pkg.Types)
	for i := 0; i < sig.Results().Len(); i++ {
		f.Results = append(f.Results, typeRef(sig.Results().At(i).Type(), qual))
	}
	return f, true
}

// associate returns the type name a factory belongs to: the explicit target,
// else the receiver, else the base type of its first result when it is
// declared in the same package.
func associate(pkgPath string, f model.FuncElement) string {
	switch {
	case f.Target != "":
		return f.Target
	case f.Receiver != "":
		return f.Receiver
	case len(f.Results) > 0 && f.Results[0].Name.Package == pkgPath:
		return f.Results[0].Name.Type
	default:
		return ""
	}
}

func typeRef(t types.Type, qual types.Qualifier) model.TypeRef {
	ref := model.TypeRef{Expr: types.TypeString(t, qual)}
	if p, ok := t.(*types.Pointer); ok {
		ref.Pointer = true
		t = p.Elem()
	}
	if n, ok := t.(*types.Named); ok && n.Obj().Pkg() != nil {
		ref.Name = model.QualifiedName{Package: n.Obj().Pkg().Path(), Type: n.Obj().Name()}
	}
	return ref
}

func baseNamed(t types.Type) *types.Named {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	n, _ := t.(*types.Named)
	return n
}

func packageDir(pkg *packages.Package) string {
	if len(pkg.GoFiles) > 0 {
		return filepath.Dir(pkg.GoFiles[0])
	}
	if len(pkg.CompiledGoFiles) > 0 {
		return filepath.Dir(pkg.CompiledGoFiles[0])
	}
	return ""
}
