package cmd

import (
	"fmt"

	"github.com/Rana718/datagen/internal/migration"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Inspect and apply table migrations",
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long: `Show every local migration and whether it has been applied to the
configured database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		adapter, err := connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer adapter.Close()

		migrations, err := migration.NewManager(cfg.MigrationsPath, adapter).Status(cmd.Context())
		if err != nil {
			return err
		}

		applied := 0
		for _, mig := range migrations {
			if mig.Applied {
				applied++
			}
		}

		fmt.Printf("📊 Migration Status\n")
		fmt.Printf("   Total: %d, Applied: %d, Pending: %d\n\n", len(migrations), applied, len(migrations)-applied)
		for _, mig := range migrations {
			if mig.Applied {
				at := ""
				if mig.AppliedAt != nil {
					at = mig.AppliedAt.Format("2006-01-02 15:04:05")
				}
				color.Green("  ✅ %s  %s", mig.ID, at)
			} else {
				color.Yellow("  ⏳ %s  pending", mig.ID)
			}
		}
		return nil
	},
}

var migrateApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		adapter, err := connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer adapter.Close()

		applied, err := migration.NewManager(cfg.MigrationsPath, adapter).Apply(cmd.Context())
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("No pending migrations")
			return nil
		}
		for _, id := range applied {
			color.Green("  ✓ %s", id)
		}
		color.Green("✅ Applied %d migration(s)", len(applied))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateApplyCmd)
}
