// Package validate checks marked implementations before any code is
// generated for them.
//
// Broken elements are reported together so one run shows every problem.
// Two rules differ: an unexported implementation stops validation at once,
// and the single policy check runs only after every element has been seen.
package validate

import (
	"fmt"
	"strings"

	"github.com/sghaida/spi/internal/model"
	"github.com/sghaida/spi/spi"
)

// Result is the outcome of a successful validation.
type Result struct {
	// Candidates are the elements code is generated for, in input order.
	Candidates []model.Candidate

	// Warnings are non-fatal diagnostics, such as elements implementing no contract.
	Warnings []model.Diagnostic
}

// Error is returned when validation fails. Nothing may be generated for a
// round that produced it.
type Error struct {
	Diagnostics []model.Diagnostic
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Diagnostics) == 1 {
		return "validate: " + e.Diagnostics[0].String()
	}
	lines := make([]string, 0, len(e.Diagnostics)+1)
	lines = append(lines, fmt.Sprintf("validate: %d errors:", len(e.Diagnostics)))
	for _, d := range e.Diagnostics {
		lines = append(lines, "\t"+d.String())
	}
	return strings.Join(lines, "\n")
}

// Has reports whether any diagnostic was produced by rule.
func (e *Error) Has(rule model.Rule) bool {
	for _, d := range e.Diagnostics {
		if d.Rule == rule {
			return true
		}
	}
	return false
}

// Validate checks elements and returns the candidates to generate builders for.
func Validate(elements []model.TypeElement) (Result, error) {
	var (
		res  Result
		errs []model.Diagnostic
		col  = newCollisions()
	)

	for _, el := range elements {
		if !el.Exported {
			return Result{}, &Error{Diagnostics: []model.Diagnostic{
				diag(model.RulePrivateImplementation, el, "implementation "+el.Name.Type+" must be exported"),
			}}
		}

		if len(el.Contracts) == 0 {
			d := diag(model.RuleNoContract, el, el.Name.Type+" implements no marked contract and is skipped")
			d.Severity = model.Warning
			res.Warnings = append(res.Warnings, d)
			continue
		}

		cand, ds := bind(el)
		if len(ds) > 0 {
			errs = append(errs, ds...)
			continue
		}

		res.Candidates = append(res.Candidates, cand)
		for _, c := range cand.Contracts {
			col.add(c, el)
		}
	}

	errs = append(errs, col.check()...)
	if len(errs) > 0 {
		return Result{Warnings: res.Warnings}, &Error{Diagnostics: errs}
	}
	return res, nil
}

// bind selects how el is constructed.
func bind(el model.TypeElement) (model.Candidate, []model.Diagnostic) {
	cand := model.Candidate{Type: el}
	for _, s := range el.Contracts {
		cand.Contracts = append(cand.Contracts, s.Contract)
	}

	switch len(el.Factories) {
	case 0:
		if !el.Struct {
			return cand, []model.Diagnostic{diag(model.RuleNotConstructible, el,
				el.Name.Type+" is not a struct and has no //spi:factory function")}
		}
		cand.Binding = model.Binding{Kind: model.DefaultConstruct}
		cand.Pointer = el.NeedsPointer()
		return cand, nil

	case 1:
		f := el.Factories[0]
		ds := checkFactory(el, f)
		if len(ds) > 0 {
			return cand, ds
		}
		cand.Binding = model.Binding{Kind: model.StaticFactory, Func: f.Name}
		cand.Pointer = f.Results[0].Pointer
		return cand, nil

	default:
		names := make([]string, len(el.Factories))
		for i, f := range el.Factories {
			names[i] = f.Name
		}
		return cand, []model.Diagnostic{diag(model.RuleDuplicateFactory, el,
			el.Name.Type+" has more than one //spi:factory function: "+strings.Join(names, ", "))}
	}
}

func checkFactory(el model.TypeElement, f model.FuncElement) []model.Diagnostic {
	var ds []model.Diagnostic
	at := func(rule model.Rule, msg string) {
		d := diag(rule, el, msg)
		if f.Pos.IsValid() {
			d.Pos = f.Pos
		}
		ds = append(ds, d)
	}

	if f.IsMethod() {
		at(model.RuleFactoryStatic, "factory "+f.Receiver+"."+f.Name+" must be a package-level function, not a method")
	}
	if !f.Exported {
		at(model.RuleFactoryPrivate, "factory "+f.Name+" must be exported")
	}
	if f.Params > 0 {
		at(model.RuleFactoryParams, "factory "+f.Name+" must not take parameters")
	}

	switch {
	case len(f.Results) != 1:
		at(model.RuleFactoryResult, fmt.Sprintf("factory %s must return exactly one value of type %s or *%s, got %d",
			f.Name, el.Name.Type, el.Name.Type, len(f.Results)))
	case f.Results[0].Name != el.Name:
		at(model.RuleFactoryResult, "factory "+f.Name+" must return "+el.Name.Type+" or *"+el.Name.Type+", not "+f.Results[0].Expr)
	case !f.Results[0].Pointer && el.NeedsPointer():
		at(model.RuleFactoryResult, "factory "+f.Name+" returns "+el.Name.Type+" but a contract is only implemented by *"+el.Name.Type)
	}
	return ds
}

func diag(rule model.Rule, el model.TypeElement, msg string) model.Diagnostic {
	return model.Diagnostic{
		Severity: model.Error,
		Rule:     rule,
		Pos:      el.Pos,
		Element:  el.Name.String(),
		Message:  msg,
	}
}

// collisions counts candidates per single policy contract in encounter order.
type collisions struct {
	order []string
	byID  map[string]*collision
}

type collision struct {
	contract model.Contract
	first    model.TypeElement
	names    []string
}

func newCollisions() *collisions {
	return &collisions{byID: map[string]*collision{}}
}

func (c *collisions) add(contract model.Contract, el model.TypeElement) {
	if contract.Policy != spi.Single {
		return
	}
	id := contract.Identity()
	cur, ok := c.byID[id]
	if !ok {
		cur = &collision{contract: contract, first: el}
		c.byID[id] = cur
		c.order = append(c.order, id)
	}
	cur.names = append(cur.names, el.Name.Simple())
}

func (c *collisions) check() []model.Diagnostic {
	var ds []model.Diagnostic
	for _, id := range c.order {
		cur := c.byID[id]
		if len(cur.names) < 2 {
			continue
		}
		d := diag(model.RuleSingleCollision, cur.first,
			id+" policy is single, but found multiple implementations: ["+strings.Join(cur.names, ", ")+"]")
		d.Element = id
		ds = append(ds, d)
	}
	return ds
}
