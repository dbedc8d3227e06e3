package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/ingest"
	"github.com/spf13/cobra"
)

var colFlags runFlags

var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "List a file's columns, their inferred types and the role mapping that would be used",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := colFlags.resolve(cmd, currentConfig())
		if err != nil {
			return err
		}
		t, err := ingest.ReadFile(args[0], s.ingest)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d rows, %d columns\n\n", t.Len(), len(t.Columns))
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tTYPE")
		for _, c := range t.Columns {
			fmt.Fprintf(tw, "%s\t%s\n", c, t.ColumnKind(c))
		}
		_ = tw.Flush()

		m := s.mappingFor(t)
		fmt.Fprintln(out, "\nMapping:")
		for _, r := range analysis.Roles() {
			col, ok := m.Column(r)
			switch {
			case !ok:
				fmt.Fprintf(out, "  %-9s -\n", r)
			case !t.HasColumn(col):
				fmt.Fprintf(out, "  %-9s %s (missing)\n", r, col)
			default:
				fmt.Fprintf(out, "  %-9s %s\n", r, col)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	colFlags.register(columnsCmd.Flags())
}
