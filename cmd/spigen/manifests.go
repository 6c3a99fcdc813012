package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/spi/manifest"
)

func newManifestsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "manifests",
		Short: "Print every manifest under the output root",
		Long: `Manifests prints contract -> builders for every manifest under <out>/spi.

Examples:
  spigen manifests
  spigen manifests --format json | jq 'keys'`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := manifest.ReadAll(os.DirFS(a.cfg.Out))
			if err != nil {
				return fmt.Errorf("read manifests under %s: %w", a.cfg.Out, err)
			}
			return writeManifests(a, all, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml, json or text")
	return cmd
}

func writeManifests(a *app, all map[string][]string, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(all); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	case "text":
		contracts := make([]string, 0, len(all))
		for c := range all {
			contracts = append(contracts, c)
		}
		sort.Strings(contracts)
		for _, c := range contracts {
			_, _ = fmt.Fprintln(a.stdout, c)
			for _, b := range all[c] {
				_, _ = fmt.Fprintln(a.stdout, "  "+b)
			}
		}
		return nil
	default:
		return &usageError{err: fmt.Errorf("unknown format %q, want yaml, json or text", format)}
	}
}
