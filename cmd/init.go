package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rana718/datagen/internal/config"
	"github.com/Rana718/datagen/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	sqliteFlag     bool
	postgresqlFlag bool
	mysqlFlag      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new datagen project",
	Long:  `Create datagen.config.json, the project directories, a sample table definition and a .env file.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbType := template.SQLite
		flagCount := 0

		if sqliteFlag {
			dbType = template.SQLite
			flagCount++
		}
		if postgresqlFlag {
			dbType = template.PostgreSQL
			flagCount++
		}
		if mysqlFlag {
			dbType = template.MySQL
			flagCount++
		}

		if flagCount > 1 {
			return fmt.Errorf("please specify only one database type (--sqlite, --postgresql, or --mysql)")
		}

		return initializeProject(dbType)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&sqliteFlag, "sqlite", false, "Initialize project for SQLite database")
	initCmd.Flags().BoolVar(&postgresqlFlag, "postgresql", false, "Initialize project for PostgreSQL database")
	initCmd.Flags().BoolVar(&mysqlFlag, "mysql", false, "Initialize project for MySQL database")
}

func initializeProject(dbType template.DatabaseType) error {
	if config.IsInitialized() {
		return fmt.Errorf("%s already exists", config.FileName)
	}

	tmpl := template.NewProjectTemplate(dbType)

	directories := tmpl.GetDirectoryStructure()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	files := map[string]string{
		config.FileName: tmpl.GetDatagenConfig(),
	}

	sample := filepath.Join("db", "definitions", "customers.yaml")
	sampleExists := false
	if _, err := os.Stat(sample); err == nil {
		sampleExists = true
	} else {
		files[sample] = tmpl.GetSampleDefinition()
	}

	for filePath, content := range files {
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create file %s: %w", filePath, err)
		}
	}

	if err := handleEnvFile(tmpl.GetEnvTemplate()); err != nil {
		return fmt.Errorf("failed to handle .env file: %w", err)
	}

	color.Green("✅ Successfully initialized datagen project with %s database support", dbType)
	fmt.Println()
	fmt.Println("📁 Project structure created:")
	for _, dir := range directories {
		fmt.Printf("   %s/\n", dir)
	}
	fmt.Println()
	fmt.Println("📝 Configuration file created:")
	fmt.Printf("   %s\n", config.FileName)

	if sampleExists {
		fmt.Printf("ℹ️  Skipped %s (already exists)\n", sample)
	}

	fmt.Println()
	fmt.Printf("🚀 Next steps:\n")
	fmt.Printf("   datagen create customers           # Create the table\n")
	fmt.Printf("   datagen generate customers -n 10   # Generate and export records\n")

	return nil
}

// handleEnvFile writes the .env template, or appends the variables an
// existing .env does not define yet.
func handleEnvFile(defaultEnvContent string) error {
	envPath := ".env"

	existingContent, err := os.ReadFile(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return os.WriteFile(envPath, []byte(defaultEnvContent), 0644)
		}
		return err
	}

	existingStr := string(existingContent)
	var missing []string
	for _, line := range strings.Split(strings.TrimSpace(defaultEnvContent), "\n") {
		key, _, _ := strings.Cut(line, "=")
		if !strings.Contains(existingStr, key+"=") {
			missing = append(missing, line)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if len(existingStr) > 0 && !strings.HasSuffix(existingStr, "\n") {
		existingStr += "\n"
	}
	existingStr += "\n# Added by datagen\n" + strings.Join(missing, "\n") + "\n"

	return os.WriteFile(envPath, []byte(existingStr), 0644)
}
