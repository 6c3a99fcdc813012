// Package config loads spigen settings from defaults, an optional
// .spigen.yaml, SPIGEN_* environment variables and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = ".spigen.yaml"

	// EnvPrefix prefixes environment overrides, e.g. SPIGEN_LOG_LEVEL.
	EnvPrefix = "SPIGEN"
)

// Config holds all spigen settings.
type Config struct {
	// Dir is the directory packages are loaded from.
	Dir string `mapstructure:"dir"`

	// Out is the manifest output root. Manifests go to Out/spi/<contract>.
	// Empty means the root of the module containing Dir.
	Out string `mapstructure:"out"`

	// Tags are build tags passed to the package loader.
	Tags []string `mapstructure:"tags"`

	Log   LogConfig   `mapstructure:"log"`
	Watch WatchConfig `mapstructure:"watch"`

	// Module is the path of the module containing Dir, filled in by Load.
	Module string `mapstructure:"-"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// WatchConfig holds watch mode options.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Dir: ".",
		Log: LogConfig{Level: "info", Format: "text"},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// SetDefaults registers the built-in settings on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("dir", d.Dir)
	v.SetDefault("out", d.Out)
	v.SetDefault("tags", d.Tags)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
}

// Load reads the configuration into a Config. cfgFile names an explicit
// config file; when empty, FileName is used if present in the working
// directory. Flags must already be bound to v.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case fileExists(FileName):
		v.SetConfigFile(FileName)
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolve validates cfg and fills in derived paths.
func (c *Config) resolve() error {
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("config: watch.debounce must be positive, got %s", c.Watch.Debounce)
	}

	if c.Dir == "" {
		c.Dir = "."
	}
	dir, err := filepath.Abs(c.Dir)
	if err != nil {
		return fmt.Errorf("config: dir: %w", err)
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return fmt.Errorf("config: dir %s is not a directory", filepath.ToSlash(dir))
	}
	c.Dir = dir

	modRoot, modPath, modErr := FindModule(dir)
	if modErr == nil {
		c.Module = modPath
	}

	if c.Out == "" {
		if modErr != nil {
			return fmt.Errorf("config: out not set and %w", modErr)
		}
		c.Out = modRoot
		return nil
	}
	out, err := filepath.Abs(c.Out)
	if err != nil {
		return fmt.Errorf("config: out: %w", err)
	}
	c.Out = out
	return nil
}
