package model

import (
	"go/token"
)

// Severity of a diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Rule identifies the check that produced a diagnostic.
type Rule string

const (
	RuleNoContract            Rule = "no-contract"
	RulePrivateImplementation Rule = "private-implementation"
	RuleDuplicateFactory      Rule = "duplicate-factory"
	RuleFactoryParams         Rule = "factory-params"
	RuleFactoryResult         Rule = "factory-result"
	RuleFactoryPrivate        Rule = "factory-private"
	RuleFactoryStatic         Rule = "factory-static"
	RuleNotConstructible      Rule = "not-constructible"
	RuleSingleCollision       Rule = "single-collision"
)

// Diagnostic is a message attached to a source element.
type Diagnostic struct {
	Severity Severity
	Rule     Rule
	Pos      token.Position

	// Element is the qualified name of the offending element.
	Element string

	Message string
}

// String formats d the way the go tool reports errors.
//
// Example: greet/english.go:12:6: error: factory Instance must not take parameters [factory-params]
func (d Diagnostic) String() string {
	s := ""
	if d.Pos.IsValid() {
		s = d.Pos.String() + ": "
	}
	return s + d.Severity.String() + ": " + d.Message + " [" + string(d.Rule) + "]"
}
