package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Rana718/datagen/internal/logger"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	debug   bool
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════╗",
		"║   ██████╗  █████╗ ████████╗ █████╗  ██████╗      ║",
		"║   ██╔══██╗██╔══██╗╚══██╔══╝██╔══██╗██╔════╝      ║",
		"║   ██║  ██║███████║   ██║   ███████║██║  ███╗     ║",
		"║   ██║  ██║██╔══██║   ██║   ██╔══██║██║   ██║     ║",
		"║   ██████╔╝██║  ██║   ██║   ██║  ██║╚██████╔╝     ║",
		"║   ╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝ ╚═════╝      ║",
		"║                                                  ║",
		"║        Synthetic table data, guided or not       ║",
		"╚══════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                 ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "datagen",
	Short: "Generate synthetic records for table definitions",
	Long: `
datagen turns YAML or JSON table definitions into database tables and
synthetic records. Fields with a natural-language description are filled
by a language model when an API key is configured; everything else uses
a local random generator.

Database Support:
- PostgreSQL
- MySQL
- SQLite

Export Formats:
- xlsx, csv, json, sqlite`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(os.Stderr, debug)
	},

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("datagen version %s\n", Version)
			return
		}

		showBanner()
		fmt.Println()
		cmd.Help()
	},
}

// Execute runs the CLI, cancelling the command context on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./datagen.config.json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("datagen.config")
	}

	viper.SetEnvPrefix("DATAGEN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Get().Debug("config loaded", "file", viper.ConfigFileUsed())
	}
}
