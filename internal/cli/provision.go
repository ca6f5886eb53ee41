package cli

import (
	"context"
	"fmt"

	"github.com/geocoder89/projecthub/internal/app"
	"github.com/geocoder89/projecthub/internal/seed"
	"github.com/spf13/cobra"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Drop and recreate all entity storage",
	Run: func(cmd *cobra.Command, args []string) {
		withApp("reset storage", func(ctx context.Context, a *app.App) error {
			return a.Seeder.Reset(ctx)
		})
		fmt.Println("storage reset")
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset storage and load the sample dataset",
	Long:  "Reset storage, load the sample skills, users, projects, fields and interests,\nthen provision the moderator account when MODERATOR_EMAIL is set.",
	Run: func(cmd *cobra.Command, args []string) {
		withApp("seed", func(ctx context.Context, a *app.App) error {
			if err := a.Seeder.Bootstrap(ctx); err != nil {
				return err
			}
			return a.Seeder.EnsureModerator(ctx, a.Moderator())
		})
		fmt.Println("dataset loaded")
	},
}

var moderatorCmd = &cobra.Command{
	Use:   "moderator",
	Short: "Create the configured moderator account if missing",
	Run: func(cmd *cobra.Command, args []string) {
		withApp("provision moderator", func(ctx context.Context, a *app.App) error {
			m := a.Moderator()
			if err := checkModerator(m); err != nil {
				return err
			}
			return a.Seeder.EnsureModerator(ctx, m)
		})
		fmt.Println("moderator ready")
	},
}

// checkModerator fails loudly where EnsureModerator would silently skip.
func checkModerator(m seed.Moderator) error {
	if m.Email == "" {
		return fmt.Errorf("MODERATOR_EMAIL is not set")
	}
	if m.Password == "" {
		return fmt.Errorf("MODERATOR_PASSWORD is not set")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initdbCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(moderatorCmd)
}
