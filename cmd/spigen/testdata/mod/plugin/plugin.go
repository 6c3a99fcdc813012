package plugin

// Plugin is implemented by every plugin.
//
//spi:contract
type Plugin interface {
	Name() string
}
