package plugin

// Plugin is implemented by every plugin.
//
//spi:contract
type Plugin interface {
	Name() string
}

// Builtin ships with the contract.
//
//spi:implementation
type Builtin struct{}

func (Builtin) Name() string { return "builtin" }

// Level is not a struct and needs a factory.
//
//spi:implementation
type Level int

func (Level) Name() string { return "level" }

//spi:factory Level
func DefaultLevel() Level { return 3 }

// Unmarked implements Plugin but is not marked.
type Unmarked struct{}

func (Unmarked) Name() string { return "unmarked" }
