package cmd

import (
	"fmt"
	"shop-service/pkg/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Connects to the configured database (DATABASE_URL or the DB_* settings)
and runs the schema migrations for every table, then exits.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if err := database.InitDB(cfg); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	defer database.Close()

	log.Info("Database schema is up to date")
	fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
	return nil
}
