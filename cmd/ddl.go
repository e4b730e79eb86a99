package cmd

import (
	"fmt"

	"github.com/Rana718/datagen/internal/database"
	"github.com/spf13/cobra"
)

var ddlCmd = &cobra.Command{
	Use:   "ddl <table>",
	Short: "Print the SQL for a table definition",
	Long: `Print the CREATE TABLE statement the configured provider would run for a
definition. Pass a table name from the definitions directory or a file path.

Examples:
  datagen ddl customers
  datagen ddl ./customers.yaml --provider mysql
  datagen ddl customers --drop`,
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

		provider, _ := cmd.Flags().GetString("provider")
		if provider == "" {
			provider = cfg.Database.Provider
		}
		adapter, err := database.NewAdapter(provider)
		if err != nil {
			return err
		}

		if drop, _ := cmd.Flags().GetBool("drop"); drop {
			fmt.Println(adapter.GenerateDropTableSQL(def.TableName))
			return nil
		}
		fmt.Println(adapter.GenerateCreateTableSQL(def))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ddlCmd)

	ddlCmd.Flags().String("provider", "", "Render for this provider instead of the configured one")
	ddlCmd.Flags().Bool("drop", false, "Print the DROP TABLE statement instead")
}
