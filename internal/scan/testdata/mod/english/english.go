package english

import (
	"strings"

	"example.com/scanmod/greet"
	"example.com/scanmod/plugin"
)

// EnglishGreeter greets in English.
//
//spi:implementation
type EnglishGreeter struct {
	word string
}

func (g *EnglishGreeter) Greet() string { return strings.TrimSpace(g.word) }

func (g *EnglishGreeter) Name() string { return "english" }

// Instance returns the configured greeter.
//
//spi:factory
func Instance() *EnglishGreeter { return &EnglishGreeter{word: "hello"} }

var (
	_ greet.Greeter = (*EnglishGreeter)(nil)
	_ plugin.Plugin = (*EnglishGreeter)(nil)
)
