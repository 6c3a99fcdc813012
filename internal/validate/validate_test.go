package validate

import (
	"errors"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/spi/internal/model"
	"github.com/sghaida/spi/spi"
)

//
// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

var (
	greeter = model.Contract{Name: model.QualifiedName{Package: "example.com/greet", Type: "Greeter"}, Policy: spi.Single}
	plugin  = model.Contract{Name: model.QualifiedName{Package: "example.com/plugin", Type: "Plugin"}, Policy: spi.Multiple}
)

func element(pkg, name string, contracts ...model.Satisfied) model.TypeElement {
	return model.TypeElement{
		Name:      model.QualifiedName{Package: pkg, Type: name},
		PkgName:   "impl",
		Exported:  token.IsExported(name),
		Struct:    true,
		Pos:       token.Position{Filename: "impl.go", Line: 3, Column: 6},
		Contracts: contracts,
	}
}

func ptr(c model.Contract) model.Satisfied { return model.Satisfied{Contract: c, Pointer: true} }
func val(c model.Contract) model.Satisfied { return model.Satisfied{Contract: c} }

func factory(el model.TypeElement, name string, pointer bool) model.FuncElement {
	expr := el.Name.Type
	if pointer {
		expr = "*" + expr
	}
	return model.FuncElement{
		Name:     name,
		Exported: token.IsExported(name),
		Results:  []model.TypeRef{{Name: el.Name, Pointer: pointer, Expr: expr}},
		Pos:      token.Position{Filename: "impl.go", Line: 9, Column: 6},
	}
}

func requireRule(t *testing.T, err error, rule model.Rule) *Error {
	t.Helper()
	require.Error(t, err)
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *validate.Error, got %T", err)
	assert.True(t, verr.Has(rule), "expected rule %s in %v", rule, verr)
	return verr
}

//
// -----------------------------------------------------------------------------
// Bindings
// -----------------------------------------------------------------------------

// TestValidate_DefaultConstructPointer verifies a struct with pointer receivers gets &T{}.
func TestValidate_DefaultConstructPointer(t *testing.T) {
	t.Parallel()

	el := element("example.com/english", "EnglishGreeter", ptr(greeter))
	res, err := Validate([]model.TypeElement{el})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)

	c := res.Candidates[0]
	assert.Equal(t, model.DefaultConstruct, c.Binding.Kind)
	assert.True(t, c.Pointer)
	assert.Equal(t, []model.Contract{greeter}, c.Contracts)
	assert.Equal(t, "example.com/english.EnglishGreeter_Builder", c.Identity())
	assert.Equal(t, "EnglishGreeter_Builder", c.BuilderName())
}

func TestValidate_DefaultConstructValue(t *testing.T) {
	t.Parallel()

	res, err := Validate([]model.TypeElement{element("example.com/a", "A", val(plugin))})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.False(t, res.Candidates[0].Pointer)
}

// TestValidate_StaticFactory verifies a marked factory becomes the binding.
func TestValidate_StaticFactory(t *testing.T) {
	t.Parallel()

	el := element("example.com/english", "EnglishGreeter", ptr(greeter))
	el.Factories = []model.FuncElement{factory(el, "Instance", true)}

	res, err := Validate([]model.TypeElement{el})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, model.Binding{Kind: model.StaticFactory, Func: "Instance"}, res.Candidates[0].Binding)
	assert.True(t, res.Candidates[0].Pointer)
}

// TestValidate_FactoryForNonStruct verifies a factory makes a non-struct type constructible.
func TestValidate_FactoryForNonStruct(t *testing.T) {
	t.Parallel()

	el := element("example.com/a", "Level", val(plugin))
	el.Struct = false
	el.Factories = []model.FuncElement{factory(el, "NewLevel", false)}

	res, err := Validate([]model.TypeElement{el})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.False(t, res.Candidates[0].Pointer)
}

//
// -----------------------------------------------------------------------------
// Rules
// -----------------------------------------------------------------------------

// TestValidate_NoContractIsWarning verifies the element is skipped with a warning.
func TestValidate_NoContractIsWarning(t *testing.T) {
	t.Parallel()

	res, err := Validate([]model.TypeElement{
		element("example.com/a", "Lonely"),
		element("example.com/a", "A", val(plugin)),
	})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, model.Warning, res.Warnings[0].Severity)
	assert.Equal(t, model.RuleNoContract, res.Warnings[0].Rule)
}

// TestValidate_PrivateAbortsImmediately verifies later elements are not examined.
func TestValidate_PrivateAbortsImmediately(t *testing.T) {
	t.Parallel()

	broken := element("example.com/a", "Broken", ptr(greeter))
	broken.Struct = false

	_, err := Validate([]model.TypeElement{
		element("example.com/a", "hidden", val(plugin)),
		broken,
	})
	verr := requireRule(t, err, model.RulePrivateImplementation)
	require.Len(t, verr.Diagnostics, 1)
	assert.Contains(t, verr.Error(), "implementation hidden must be exported")
}

func TestValidate_FactoryRules(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(el *model.TypeElement)
		rule   model.Rule
	}{
		{
			name: "duplicate",
			mutate: func(el *model.TypeElement) {
				el.Factories = []model.FuncElement{factory(*el, "One", true), factory(*el, "Two", true)}
			},
			rule: model.RuleDuplicateFactory,
		},
		{
			name: "params",
			mutate: func(el *model.TypeElement) {
				f := factory(*el, "New", true)
				f.Params = 1
				el.Factories = []model.FuncElement{f}
			},
			rule: model.RuleFactoryParams,
		},
		{
			name: "private",
			mutate: func(el *model.TypeElement) {
				el.Factories = []model.FuncElement{factory(*el, "newImpl", true)}
			},
			rule: model.RuleFactoryPrivate,
		},
		{
			name: "method",
			mutate: func(el *model.TypeElement) {
				f := factory(*el, "Clone", true)
				f.Receiver = el.Name.Type
				el.Factories = []model.FuncElement{f}
			},
			rule: model.RuleFactoryStatic,
		},
		{
			name: "foreign result",
			mutate: func(el *model.TypeElement) {
				f := factory(*el, "New", true)
				f.Results = []model.TypeRef{{Name: model.QualifiedName{Package: "example.com/other", Type: "Other"}, Pointer: true, Expr: "*other.Other"}}
				el.Factories = []model.FuncElement{f}
			},
			rule: model.RuleFactoryResult,
		},
		{
			name: "two results",
			mutate: func(el *model.TypeElement) {
				f := factory(*el, "New", true)
				f.Results = append(f.Results, model.TypeRef{Expr: "error"})
				el.Factories = []model.FuncElement{f}
			},
			rule: model.RuleFactoryResult,
		},
		{
			name: "value result for pointer contract",
			mutate: func(el *model.TypeElement) {
				el.Factories = []model.FuncElement{factory(*el, "New", false)}
			},
			rule: model.RuleFactoryResult,
		},
		{
			name: "not constructible",
			mutate: func(el *model.TypeElement) {
				el.Struct = false
			},
			rule: model.RuleNotConstructible,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			el := element("example.com/a", "Impl", ptr(plugin))
			tc.mutate(&el)

			res, err := Validate([]model.TypeElement{el})
			requireRule(t, err, tc.rule)
			assert.Empty(t, res.Candidates)
		})
	}
}

// TestValidate_AccumulatesErrors verifies every broken element is reported in one run.
func TestValidate_AccumulatesErrors(t *testing.T) {
	t.Parallel()

	a := element("example.com/a", "A", val(plugin))
	a.Struct = false
	b := element("example.com/a", "B", ptr(plugin))
	f := factory(b, "newB", true)
	f.Params = 2
	b.Factories = []model.FuncElement{f}
	ok := element("example.com/a", "C", val(plugin))

	res, err := Validate([]model.TypeElement{a, b, ok})
	verr := requireRule(t, err, model.RuleNotConstructible)
	assert.True(t, verr.Has(model.RuleFactoryPrivate))
	assert.True(t, verr.Has(model.RuleFactoryParams))
	assert.Len(t, verr.Diagnostics, 3)
	assert.Empty(t, res.Candidates, "a failed round yields no candidates")
	assert.Contains(t, verr.Error(), "validate: 3 errors:")
	assert.Equal(t, 9, verr.Diagnostics[1].Pos.Line, "factory errors point at the factory")
}

//
// -----------------------------------------------------------------------------
// Single policy
// -----------------------------------------------------------------------------

// TestValidate_SingleCollision verifies both names are listed in encounter order.
func TestValidate_SingleCollision(t *testing.T) {
	t.Parallel()

	_, err := Validate([]model.TypeElement{
		element("example.com/english", "EnglishGreeter", ptr(greeter)),
		element("example.com/french", "FrenchGreeter", ptr(greeter)),
	})
	verr := requireRule(t, err, model.RuleSingleCollision)
	require.Len(t, verr.Diagnostics, 1)
	assert.Equal(t, "example.com/greet.Greeter", verr.Diagnostics[0].Element)
	assert.Contains(t, verr.Error(),
		"example.com/greet.Greeter policy is single, but found multiple implementations: [EnglishGreeter, FrenchGreeter]")
}

func TestValidate_SingleWithOneCandidate(t *testing.T) {
	t.Parallel()

	res, err := Validate([]model.TypeElement{
		element("example.com/english", "EnglishGreeter", ptr(greeter)),
		element("example.com/a", "A", val(plugin)),
		element("example.com/b", "B", val(plugin)),
	})
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 3)
}

// TestValidate_CollisionIgnoresDroppedCandidates verifies a candidate that failed
// its own checks does not count toward the single policy.
func TestValidate_CollisionIgnoresDroppedCandidates(t *testing.T) {
	t.Parallel()

	broken := element("example.com/french", "FrenchGreeter", ptr(greeter))
	broken.Struct = false

	_, err := Validate([]model.TypeElement{
		element("example.com/english", "EnglishGreeter", ptr(greeter)),
		broken,
	})
	verr := requireRule(t, err, model.RuleNotConstructible)
	assert.False(t, verr.Has(model.RuleSingleCollision))
}

func TestValidate_Empty(t *testing.T) {
	t.Parallel()

	res, err := Validate(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Warnings)
}
