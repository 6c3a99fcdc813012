package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sghaida/spi/internal/validate"
	"github.com/sghaida/spi/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce string

	cmd := &cobra.Command{
		Use:   "watch [packages]",
		Short: "Regenerate whenever Go sources change",
		Long: `Watch runs generate once, then again every time a Go source below
--dir changes. Generated files and tests do not trigger a run. Failed runs
are reported and watching continues. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			w, err := watch.New(watch.Config{
				Dirs:        []string{a.cfg.Dir},
				DebounceDur: a.cfg.Watch.Debounce,
				Log:         a.log,
			})
			if err != nil {
				return err
			}
			defer func() { _ = w.Stop() }()

			changes, err := w.Start()
			if err != nil {
				return err
			}
			a.log.Info("watching", "dir", a.cfg.Dir, "debounce", a.cfg.Watch.Debounce.String())

			a.regenerate(cmd, args)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-changes:
					a.regenerate(cmd, args)
				}
			}
		},
	}
	cmd.Flags().StringVar(&debounce, "debounce", "", "quiet period before regenerating, e.g. 500ms")
	_ = a.v.BindPFlag("watch.debounce", cmd.Flags().Lookup("debounce"))
	return cmd
}

// regenerate runs one round and logs its outcome without stopping the watch.
func (a *app) regenerate(cmd *cobra.Command, patterns []string) {
	rep, err := a.generate(cmd.Context(), patterns)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			for _, d := range verr.Diagnostics {
				a.log.Error(d.Message, "rule", string(d.Rule), "pos", d.Pos.String())
			}
			return
		}
		a.log.Error("generate failed", "err", err)
		return
	}
	a.printReport(rep)
}
