// Package commands implements the dbcforge subcommands.
package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/modcraft-labs/dbcforge/internal/cli/config"
	"github.com/modcraft-labs/dbcforge/internal/engine"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	var patches []string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply patches and write modified DBC files",
		Long: `Apply YAML patches to the source DBC files and write the modified
tables into the output directory.

If no patch files are given, all *.yaml and *.yml files in the patches
directory are applied in filename order.`,
		Example: `  # Apply every patch in the patches directory
  dbcforge apply

  # Apply specific patch files
  dbcforge apply -p patches/0-spells.yaml -p patches/1-races.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := runApply(cmd, patches)
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&patches, "patches", "p", nil, "Explicit patch files to apply")
	return cmd
}

// runApply drives one engine run and reports warnings and the summary.
// Shared by apply, build and watch.
func runApply(cmd *cobra.Command, patches []string) (*engine.RunResult, error) {
	cfg := config.GetCurrentConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := engine.New(engine.Config{
		DBCDir:     cfg.DBCDir,
		PatchesDir: cfg.PatchesDir,
		PatchFiles: patches,
		OutDir:     cfg.OutDir,
		SchemaDir:  cfg.SchemaDir,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	result, err := eng.Run()
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	renderWarnings(out, result.Warnings)
	fmt.Fprintln(out, result.Summary())

	if result.HasErrors() {
		for _, re := range result.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", re)
		}
		return result, fmt.Errorf("%d file(s) or table(s) failed", len(result.Errors))
	}
	return result, nil
}

// renderWarnings prints accumulated warnings as a table. Warnings never
// fail the run; they are reported for the caller to act on.
func renderWarnings(w io.Writer, warnings []engine.Warning) {
	if len(warnings) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "#", "Table", "Kind", "Detail"})
	for _, warning := range warnings {
		t.AppendRow(table.Row{warning.File, warning.Ordinal, warning.Table, string(warning.Kind), warning.Detail})
	}
	t.Render()
}
