package cli

import (
	"github.com/spf13/cobra"
)

type MigrateOptions struct {
	MappingFile string
	DryRun      bool
}

func NewMigrateCmd() *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Replace the target tables with the contents of the SQLite file",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runMigration(c.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.MappingFile, "mapping", "m", "", "Optional JSON file overriding table names")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Load everything, then roll back")

	return cmd
}
