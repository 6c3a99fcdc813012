package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sghaida/spi/internal/merge"
	"github.com/sghaida/spi/internal/processor"
	"github.com/sghaida/spi/internal/scan"
)

func newGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate [packages]",
		Short: "Generate builders and merge manifests for the given packages",
		Long: `Generate loads the packages (default "."), validates every marked
implementation and, when all of them pass, writes a builder file next to
each one, a contract declaration file next to each contract package, and
adds the builders to the manifests under <out>/spi.

Nothing is written when any implementation fails validation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.generate(cmd.Context(), args)
			if err != nil {
				return err
			}
			a.printReport(rep)
			return nil
		},
	}
}

// generate runs one scan and processing round.
func (a *app) generate(ctx context.Context, patterns []string) (processor.Report, error) {
	round, err := scan.Load(ctx, scan.Options{
		Dir:      a.cfg.Dir,
		Patterns: patterns,
		Tags:     a.cfg.Tags,
		Log:      a.log,
	})
	if err != nil {
		return processor.Report{}, err
	}
	p := processor.New(processor.DirSink{}, merge.New(a.cfg.Out, a.log), a.log)
	return p.Process(ctx, round)
}

func (a *app) printReport(rep processor.Report) {
	for _, src := range rep.Sources {
		_, _ = fmt.Fprintln(a.stdout, "generated "+a.rel(src))
	}
	for _, m := range rep.Manifests {
		if m.Written {
			_, _ = fmt.Fprintf(a.stdout, "manifest  %s (+%d)\n", a.rel(m.Path), len(m.Added))
		}
	}
	for _, w := range rep.Warnings {
		_, _ = fmt.Fprintln(a.stdout, w.String())
	}
}

// rel shortens p relative to the configured directory when possible.
func (a *app) rel(p string) string {
	if r, err := filepath.Rel(a.cfg.Dir, p); err == nil {
		return filepath.ToSlash(r)
	}
	return filepath.ToSlash(p)
}
