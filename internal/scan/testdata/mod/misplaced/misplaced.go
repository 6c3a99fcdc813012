package misplaced

// Config is a struct, not an interface.
//
//spi:contract single
type Config struct{}

// Shape has an unknown policy.
//
//spi:contract many
type Shape interface {
	Area() float64
}

//spi:implementation
func NotAType() {}
