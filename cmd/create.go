package cmd

import (
	"fmt"

	"github.com/Rana718/datagen/internal/database"
	"github.com/Rana718/datagen/internal/migration"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <table>",
	Short: "Create the table for a definition",
	Long: `Write a migration holding the table's CREATE TABLE statement and apply
every pending migration. An existing migration for the table is reused.

Examples:
  datagen create customers
  datagen create customers --no-apply`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		def, err := loadDefinition(cfg, args[0])
		if err != nil {
			return err
		}

		noApply, _ := cmd.Flags().GetBool("no-apply")

		var adapter database.DatabaseAdapter
		if noApply {
			adapter, err = database.NewAdapter(cfg.Database.Provider)
		} else {
			adapter, err = connect(cmd.Context(), cfg)
		}
		if err != nil {
			return err
		}
		defer adapter.Close()

		m := migration.NewManager(cfg.MigrationsPath, adapter)

		existing, err := m.FindTableMigration(def.TableName)
		if err != nil {
			return err
		}
		if existing != nil {
			color.Yellow("⚠️  Migration for %s already exists: %s", def.TableName, existing.FilePath)
		} else {
			mig, err := m.CreateTableMigration(def)
			if err != nil {
				return err
			}
			color.Green("✅ Created migration: %s", mig.FilePath)
		}

		if noApply {
			return nil
		}

		applied, err := m.Apply(cmd.Context())
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
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().Bool("no-apply", false, "Only write the migration file")
}
