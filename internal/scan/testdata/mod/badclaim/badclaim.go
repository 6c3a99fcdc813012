package badclaim

// Shape has an area.
//
//spi:contract
type Shape interface {
	Area() float64
}

// Square claims Shape but has no Area method.
//
//spi:implementation Shape
type Square struct{}

// Circle names a contract that does not exist.
//
//spi:implementation Missing
type Circle struct{}

func (Circle) Area() float64 { return 3.14 }
