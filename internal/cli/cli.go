// Package cli is the projecthubctl command tree: schema migrations and
// dataset provisioning against the Postgres store.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/geocoder89/projecthub/internal/app"
	"github.com/geocoder89/projecthub/internal/config"
	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "projecthubctl",
	Short: "Provision and migrate the projecthub database",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := godotenv.Overload()
		if err != nil {
			log.Println("Error loading .env file, skipping")
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err.Error())
	}
}

// openApp connects to Postgres regardless of STORE_BACKEND. Sessions stay
// in memory since no command here touches them, and seeding sends no
// notifications.
func openApp(ctx context.Context) (*app.App, error) {
	cfg := config.Load()
	cfg.StoreBackend = "postgres"
	cfg.SessionBackend = "memory"
	cfg.NotifyEnabled = false

	return app.New(ctx, cfg, observability.NewLogger("projecthubctl", cfg.Env))
}

// withApp runs fn against a connected app and exits non-zero on failure.
func withApp(what string, fn func(ctx context.Context, a *app.App) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		fmt.Println("Unable to connect", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		fmt.Printf("Unable to %s: %v\n", what, err)
		a.Close()
		os.Exit(1)
	}
}
