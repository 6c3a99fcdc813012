// Package claimer provides a greeter that also happens to satisfy Plugin.
package claimer

import (
	_ "example.com/scanmod/greet"
	"example.com/scanmod/plugin"
)

// Loud greets loudly. It is offered only as a Greeter.
//
//spi:implementation greet.Greeter
type Loud struct{}

func (Loud) Greet() string { return "HELLO" }

func (Loud) Name() string { return "loud" }

// AsPlugin adapts l for callers that want a Plugin.
func AsPlugin(l Loud) plugin.Plugin { return l }
