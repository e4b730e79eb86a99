package cmd

import (
	"fmt"

	"github.com/Rana718/datagen/internal/tracker"
	"github.com/Rana718/datagen/internal/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var exportsCmd = &cobra.Command{
	Use:   "exports [id]",
	Short: "List past exports",
	Long: `List tracked exports, newest first, or show a single export by ID.

Examples:
  datagen exports
  datagen exports --table customers
  datagen exports 7b0c2a52-1f4e-4c55-9a59-5b3f0f9b8e7d`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		t, err := tracker.Open(tracker.FilenameFromDir(cfg.DataDir))
		if err != nil {
			return err
		}
		defer t.Close()

		if len(args) == 1 {
			rec, err := t.Get(args[0])
			if err != nil {
				return err
			}
			printExport(rec, true)
			return nil
		}

		table, _ := cmd.Flags().GetString("table")
		records, err := t.List(table)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No exports found")
			return nil
		}
		for _, rec := range records {
			printExport(rec, false)
		}
		return nil
	},
}

func printExport(rec *types.ExportRecord, detailed bool) {
	line := fmt.Sprintf("%s  %-20s %5d %-6s %3d%%  %s",
		rec.ID, rec.Table, rec.NumRecords, rec.Format, rec.Progress.Percentage, rec.CreatedAt.Format("2006-01-02 15:04:05"))

	switch rec.Status {
	case types.ExportCompleted:
		color.Green("✅ %s", line)
	case types.ExportFailed:
		color.Red("❌ %s", line)
	default:
		color.Yellow("⏳ %s", line)
	}

	if !detailed {
		return
	}
	fmt.Printf("   Status:   %s (%s)\n", rec.Status, rec.Progress.Message)
	if rec.FilePath != "" {
		fmt.Printf("   File:     %s\n", rec.FilePath)
	}
	if rec.Error != "" {
		fmt.Printf("   Error:    %s\n", rec.Error)
	}
	if rec.CompletedAt != nil {
		fmt.Printf("   Finished: %s\n", rec.CompletedAt.Format("2006-01-02 15:04:05"))
	}
}

func init() {
	rootCmd.AddCommand(exportsCmd)

	exportsCmd.Flags().String("table", "", "Only list exports of this table")
}
