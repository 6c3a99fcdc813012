// Package greet declares the greeting contract.
package greet

// Greeter says hello.
//
//spi:contract single
type Greeter interface {
	Greet() string
}
