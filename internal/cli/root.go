// Package cli wires the migration and verification runs to cobra commands.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "movies-etl",
		Short: "Migrate the movies catalog from SQLite to PostgreSQL",
		Long: `movies-etl copies genres, persons, film works and their link tables
from the legacy SQLite file into the PostgreSQL content schema in a single
transaction, and can verify afterwards that both stores agree.

Connection settings come from the environment (DB_NAME, DB_USER,
DB_PASSWORD, DB_HOST, DB_PORT, SQL_LITE_DB_PATH), optionally loaded from .env.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewMigrateCmd(), NewVerifyCmd())

	return rootCmd
}
