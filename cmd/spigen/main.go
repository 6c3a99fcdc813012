// cmd/spigen/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sghaida/spi/internal/config"
	"github.com/sghaida/spi/internal/logging"
	"github.com/sghaida/spi/internal/validate"
)

// usageError marks errors caused by how spigen was invoked.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// app is the state shared by subcommands after configuration is loaded.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

// run executes spigen and returns an exit code: 0 on success, 1 when the
// command failed, 2 on a usage or configuration error.
// It exists separately from main to allow unit testing without os.Exit.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		for _, d := range verr.Diagnostics {
			_, _ = fmt.Fprintln(stderr, d.String())
		}
		_, _ = fmt.Fprintf(stderr, "spigen: %d error(s), nothing generated\n", len(verr.Diagnostics))
		return 1
	}

	_, _ = fmt.Fprintln(stderr, "spigen: "+err.Error())
	var uerr *usageError
	if errors.As(err, &uerr) {
		return 2
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newRootCmd(a *app) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "spigen",
		Short: "Generate spi builders and manifests from marked Go sources",
		Long: `spigen scans Go packages for //spi:contract, //spi:implementation and
//spi:factory markers, generates a builder for every implementation and
records it in the manifest of each contract it implements.

Typical use is a go:generate directive in the module root:

  //go:generate go run github.com/sghaida/spi/cmd/spigen generate ./...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, cfgFile)
			if err != nil {
				return &usageError{err: err}
			}
			a.cfg = cfg
			a.log = logging.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
			a.log.Debug("configuration loaded",
				"dir", cfg.Dir,
				"out", cfg.Out,
				"module", cfg.Module,
				"config_file", a.v.ConfigFileUsed())
			return nil
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./"+config.FileName+" when present)")
	pf.String("dir", "", "directory to load packages from (default: working directory)")
	pf.String("out", "", "manifest output root (default: module root)")
	pf.StringSlice("tags", nil, "build tags")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")

	for key, flag := range map[string]string{
		"dir":        "dir",
		"out":        "out",
		"tags":       "tags",
		"log.level":  "log-level",
		"log.format": "log-format",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(newGenerateCmd(a), newWatchCmd(a), newManifestsCmd(a))
	return root
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &usageError{err: fmt.Errorf("%s takes no arguments, got %q", cmd.CommandPath(), args)}
	}
	return nil
}
