package orphan

import "example.com/scanmod/greet"

//spi:implementation
type Quiet struct{}

func (*Quiet) Greet() string { return "" }

var _ greet.Greeter = (*Quiet)(nil)

// New returns a greeter interface, so the factory cannot be associated.
//
//spi:factory
func New() greet.Greeter { return &Quiet{} }
