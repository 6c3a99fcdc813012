package main

import "fmt"

// Greeter lives in a command and cannot be imported by implementations.
//
//spi:contract single
type Greeter interface {
	Greet() string
}

func main() {
	var g Greeter
	fmt.Println(g == nil)
}
