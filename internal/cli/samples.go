package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/spf13/cobra"
)

func buildSamplesCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Inspect the sample store",
	}
	cmd.AddCommand(buildSamplesListCommand(root))
	return cmd
}

func buildSamplesListCommand(root *rootOptions) *cobra.Command {
	var line string
	var query string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List samples, optionally filtered by line and filename",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := sample.Filter{Query: query}
			if line != "" {
				l := sample.Line(strings.ToUpper(line))
				if !l.Valid() {
					return fmt.Errorf("invalid line %q: want WIRELESS or OPTICAL", line)
				}
				filter.Line = &l
			}

			stack, logCloser, err := root.openStack(cmd.Context(), false, nil)
			if err != nil {
				return err
			}
			defer logCloser.Close()
			defer stack.Close()

			samples, err := stack.Samples.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), samples)
			}
			return writeSampleTable(cmd.OutOrStdout(), samples, stack.Registry)
		},
	}

	cmd.Flags().StringVar(&line, "line", "", "production line: WIRELESS or OPTICAL")
	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive filename substring")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func buildClassesCommand(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List the global defect classes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			registry, err := cfg.Registry()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), registry.All())
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCODE\tNAME\tCOLOR")
			for _, c := range registry.All() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Code, c.Name, c.Color)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeSampleTable(out io.Writer, samples []sample.Sample, registry *class.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILENAME\tLINE\tSTATUS\tDEFECTS\tUPLOADED")
	for _, s := range samples {
		resolved, _ := registry.Resolve(s.Defects)
		names := make([]string, 0, len(resolved))
		for _, r := range resolved {
			names = append(names, r.Class.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Filename, s.Line, s.Status, strings.Join(names, ", "), humanize.Time(s.UploadDate))
	}
	return tw.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
