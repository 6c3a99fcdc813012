// Package nested declares contracts whose method sets contain one another.
package nested

// Namer names things.
//
//spi:contract single
type Namer interface {
	Name() string
}

// Rule names and scores things, so everything implementing Rule is also a Namer.
//
//spi:contract
type Rule interface {
	Name() string
	Score() int
}

// Any is satisfied by every type.
//
//spi:contract
type Any interface{}

// Asserted is declared as a Rule by a package-level assertion.
//
//spi:implementation
type Asserted struct{}

func (Asserted) Name() string { return "asserted" }
func (Asserted) Score() int   { return 1 }

var _ Rule = Asserted{}

// Claimed names Rule in its marker.
//
//spi:implementation Rule
type Claimed struct{}

func (*Claimed) Name() string { return "claimed" }
func (*Claimed) Score() int   { return 2 }

// Both names two contracts in its marker.
//
//spi:implementation Namer nested.Any
type Both struct{}

func (Both) Name() string { return "both" }
func (Both) Score() int   { return 3 }

// Structural declares nothing and is bound by method set.
//
//spi:implementation
type Structural struct{}

func (Structural) Name() string { return "structural" }
func (Structural) Score() int   { return 4 }
