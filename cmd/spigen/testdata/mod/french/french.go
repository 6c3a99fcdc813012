package french

import "example.com/cmdmod/greet"

// FrenchGreeter competes with EnglishGreeter for the single Greeter slot.
//
//spi:implementation
type FrenchGreeter struct{}

func (FrenchGreeter) Greet() string { return "bonjour" }

var _ greet.Greeter = FrenchGreeter{}
