package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modcraft-labs/dbcforge/internal/archive"
	"github.com/modcraft-labs/dbcforge/internal/cli/config"
)

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	var patches []string
	var archivePath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Apply patches and package the results into an archive",
		Long: `Apply YAML patches like the apply command, then package the patched
tables into a ZIP archive. Tables are stored under DBFilesClient/; files
from the includes directory are added preserving their relative paths.`,
		Example: `  # Build patch.zip from all patches
  dbcforge build -a patch.zip`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := runApply(cmd, patches)
			if err != nil {
				return err
			}

			cfg := config.GetCurrentConfig()
			logger := config.GetLogger(cmd.Context())

			files := archive.WithTablePrefix(result.Outputs)
			includes, err := archive.CollectDir(cfg.IncludesDir)
			if err != nil {
				return fmt.Errorf("collecting includes: %w", err)
			}
			for name, data := range includes {
				files[name] = data
			}

			if err := archive.Build(cmd.Context(), archivePath, files); err != nil {
				return err
			}
			logger.Info("archive created", "path", archivePath, "entries", len(files))
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%d entries)\n", archivePath, len(files))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&patches, "patches", "p", nil, "Explicit patch files to apply")
	cmd.Flags().StringVarP(&archivePath, "archive", "a", "", "Path of the archive to create")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}
