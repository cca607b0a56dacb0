package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/modcraft-labs/dbcforge/internal/dbc"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect <file.dbc>",
		Short: "Print header and row data of a DBC file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tbl, err := dbc.Parse(args[0], data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d rows, %d fields, %d bytes/record, %d byte string block\n",
				args[0], len(tbl.Rows), tbl.FieldCount, tbl.RecordSize, tbl.Pool.Len())

			if limit == 0 || len(tbl.Rows) == 0 {
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			header := make(table.Row, tbl.FieldCount+1)
			header[0] = "Row"
			for c := 0; c < tbl.FieldCount; c++ {
				header[c+1] = c
			}
			t.AppendHeader(header)
			for i, row := range tbl.Rows {
				if limit > 0 && i >= limit {
					break
				}
				r := make(table.Row, len(row)+1)
				r[0] = i
				for c, cell := range row {
					r[c+1] = cell
				}
				t.AppendRow(r)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Rows to print (0 for header only, -1 for all)")
	return cmd
}
