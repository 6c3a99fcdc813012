package spi_test

import (
	"io/fs"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/sghaida/spi/manifest"
	"github.com/sghaida/spi/spi"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

type Greeter interface{ Greet() string }

type englishGreeter struct{}

func (*englishGreeter) Greet() string { return "hello" }

type frenchGreeter struct{}

func (*frenchGreeter) Greet() string { return "bonjour" }

type Plugin interface{ Name() string }

type namedPlugin struct{ name string }

func (p *namedPlugin) Name() string { return p.name }

// Undeclared is never declared in any contract table.
type Undeclared interface{ Nothing() }

const (
	englishID = "example.com/english.EnglishGreeter_Builder"
	frenchID  = "example.com/french.FrenchGreeter_Builder"
	alphaID   = "example.com/plugins/alpha.Alpha_Builder"
	betaID    = "example.com/plugins/beta.Beta_Builder"
)

// countingFS counts Open calls so tests can tell a cache hit from a manifest read.
type countingFS struct {
	fs.FS
	opens atomic.Int32
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens.Add(1)
	return c.FS.Open(name)
}

// manifestFS returns an in-memory load path root holding the given manifests.
func manifestFS(manifests map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for contract, body := range manifests {
		m[manifest.Path(contract)] = &fstest.MapFile{Data: []byte(body)}
	}
	return m
}

// tables returns fresh builder and contract tables pre-populated with the
// Greeter (single) and Plugin (multiple) fixtures.
func tables(t *testing.T) (*spi.BuilderTable, *spi.ContractTable) {
	t.Helper()

	bt := spi.NewBuilderTable().
		Provide(englishID, func() any { return &englishGreeter{} }).
		Provide(frenchID, func() any { return &frenchGreeter{} }).
		Provide(alphaID, func() any { return &namedPlugin{name: "alpha"} }).
		Provide(betaID, func() any { return &namedPlugin{name: "beta"} })

	ct := spi.NewContractTable()
	if err := ct.Declare(spi.ContractName[Greeter](), spi.Single); err != nil {
		t.Fatal(err)
	}
	if err := ct.Declare(spi.ContractName[Plugin](), spi.Multiple); err != nil {
		t.Fatal(err)
	}
	return bt, ct
}
