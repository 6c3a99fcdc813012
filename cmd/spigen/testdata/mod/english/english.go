package english

import (
	"example.com/cmdmod/greet"
	"example.com/cmdmod/plugin"
)

// EnglishGreeter greets in English.
//
//spi:implementation
type EnglishGreeter struct{}

func (*EnglishGreeter) Greet() string { return "hello" }

func (*EnglishGreeter) Name() string { return "english" }

var (
	_ greet.Greeter = (*EnglishGreeter)(nil)
	_ plugin.Plugin = (*EnglishGreeter)(nil)
)
