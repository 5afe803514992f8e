package cli

import (
	"github.com/spf13/cobra"
)

type VerifyOptions struct {
	MappingFile string
	Window      int
}

// NewVerifyCmd compares both stores after a migration.
func NewVerifyCmd() *cobra.Command {
	opts := &VerifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare row counts and every row between SQLite and PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runVerify(c.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.MappingFile, "mapping", "m", "", "Optional JSON file overriding table names")
	cmd.Flags().IntVarP(&opts.Window, "window", "w", 0, "Rows per comparison page (default VERIFY_WINDOW or 400)")

	return cmd
}
