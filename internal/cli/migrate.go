package cli

import (
	"fmt"
	"os"

	"github.com/geocoder89/projecthub/internal/config"
	"github.com/geocoder89/projecthub/internal/db"
	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run Migrations",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(cmd.Help())
	},
}

func newMigrator() *db.Migrator {
	cfg := config.Load()
	return db.NewMigrator(cfg.DBURL, observability.NewLogger("projecthubctl", cfg.Env))
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all up migrations",
	Run: func(cmd *cobra.Command, args []string) {
		if err := newMigrator().Up(); err != nil {
			fmt.Println("Unable to run `up` migrations", err)
			os.Exit(1)
		}
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	Long:  "Run all 'down' migrations. This drops every table and all data with it.",
	Run: func(cmd *cobra.Command, args []string) {
		yes, err := cmd.Flags().GetBool("yes")
		if err != nil {
			fmt.Println("Unable to read flag `yes`", err)
			os.Exit(1)
		}
		if !yes {
			fmt.Println("Refusing to drop the schema without --yes")
			os.Exit(1)
		}

		if err := newMigrator().Down(); err != nil {
			fmt.Println("Unable to run `down` migrations", err)
			os.Exit(1)
		}
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the applied schema version",
	Run: func(cmd *cobra.Command, args []string) {
		version, dirty, err := newMigrator().Version()
		if err != nil {
			fmt.Println("Unable to fetch migration status", err)
			os.Exit(1)
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)

	migrateDownCmd.Flags().BoolP("yes", "y", false, "Confirm dropping the schema")
	migrateCmd.AddCommand(migrateDownCmd)

	migrateCmd.AddCommand(migrateStatusCmd)

	rootCmd.AddCommand(migrateCmd)
}
