package cmd

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Rana718/datagen/internal/config"
	"github.com/Rana718/datagen/internal/export"
	"github.com/Rana718/datagen/internal/llm"
	"github.com/Rana718/datagen/internal/logger"
	"github.com/Rana718/datagen/internal/metrics"
	"github.com/Rana718/datagen/internal/seeder"
	"github.com/Rana718/datagen/internal/tracker"
	"github.com/Rana718/datagen/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:     "generate <table>",
	Aliases: []string{"gen"},
	Short:   "Generate synthetic records for a table definition",
	Long: `Generate records for a table definition and export them to a file.
Fields with an ai_description are filled by the language model when an
API key is set; every other field, and every failed model call, uses the
local generator.

Examples:
  datagen generate customers -n 10
  datagen generate customers -n 5 --format csv --save
  datagen generate ./orders.yaml --concurrency 4 --upload`,
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

		count, _ := cmd.Flags().GetInt("count")
		if count < 1 || count > cfg.Generation.MaxRecords {
			return fmt.Errorf("number of records must be between 1 and %d", cfg.Generation.MaxRecords)
		}

		formatName, _ := cmd.Flags().GetString("format")
		if formatName == "" {
			formatName = cfg.Export.Format
		}
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}

		t, err := tracker.Open(tracker.FilenameFromDir(cfg.DataDir))
		if err != nil {
			return err
		}
		defer t.Close()

		rec, err := t.Create(def.TableName, count, string(format))
		if err != nil {
			return err
		}

		path, err := runGeneration(cmd, cfg, t, rec.ID, def, count, format)
		if err != nil {
			if _, ferr := t.Fail(rec.ID, err); ferr != nil {
				logger.Get().Warn("failed to record export failure", "id", rec.ID, "error", ferr)
			}
			return err
		}

		if _, err := t.Complete(rec.ID, path); err != nil {
			return err
		}
		color.Green("✅ Export %s completed: %s", rec.ID, path)
		return nil
	},
}

func runGeneration(cmd *cobra.Command, cfg *config.Config, t *tracker.Tracker, id string, def types.TableDefinition, count int, format export.Format) (string, error) {
	ctx := cmd.Context()
	log := logger.Get()

	fallback := seeder.NewDataGenerator()
	collector := metrics.NewCollector()

	guided, err := newGuidedGenerator(cmd, cfg, fallback, collector)
	if err != nil {
		return "", err
	}

	if _, err := t.UpdateProgress(id, tracker.StepGenerating); err != nil {
		return "", err
	}
	concurrency := cfg.Generation.Concurrency
	if cmd.Flags().Changed("concurrency") {
		concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	synth := seeder.NewSynthesizer(fallback, guided,
		seeder.WithConcurrency(concurrency),
		seeder.WithMetrics(collector),
	)
	records, err := synth.SynthesizeRecords(ctx, def.Fields, count, guided != nil)
	if err != nil {
		return "", err
	}
	log.Debug("records generated", "table", def.TableName, "count", len(records))

	if _, err := t.UpdateProgress(id, tracker.StepWritingFile); err != nil {
		return "", err
	}
	path, err := export.New(cfg.OutputPath).Export(ctx, def, records, format)
	if err != nil {
		return "", err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if _, err := t.UpdateProgress(id, tracker.StepSaving); err != nil {
			return "", err
		}
		adapter, err := connect(ctx, cfg)
		if err != nil {
			return "", err
		}
		defer adapter.Close()
		if _, err := seeder.NewSeeder(adapter).Seed(ctx, def, records); err != nil {
			return "", err
		}
	}

	if upload, _ := cmd.Flags().GetBool("upload"); upload {
		bucket, _ := cmd.Flags().GetString("bucket")
		if bucket == "" {
			bucket = cfg.Export.S3Bucket
		}
		if bucket == "" {
			return "", fmt.Errorf("no S3 bucket configured (set export.s3_bucket or pass --bucket)")
		}
		uploader, err := export.NewS3Uploader(ctx, cfg.Export.S3Prefix)
		if err != nil {
			return "", err
		}
		url, err := uploader.Upload(ctx, bucket, path)
		if err != nil {
			return "", err
		}
		color.Cyan("☁️  Uploaded to %s", url)
	}

	printSummary(collector)
	return path, nil
}

// newGuidedGenerator returns nil when no API key is configured.
func newGuidedGenerator(cmd *cobra.Command, cfg *config.Config, fallback *seeder.DataGenerator, collector *metrics.Collector) (*seeder.GuidedGenerator, error) {
	requireGuided, _ := cmd.Flags().GetBool("require-guided")

	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = cfg.APIKey()
	}
	if apiKey == "" {
		if requireGuided {
			return nil, errors.WithHintf(
				errors.Wrap(llm.ErrConfiguration, "guided generation requested"),
				"set %s in the environment or .env, or pass --api-key", cfg.LLM.APIKeyEnv)
		}
		color.Yellow("⚠️  %s is not set; descriptions are ignored and every field uses the local generator", cfg.LLM.APIKeyEnv)
		return nil, nil
	}

	client, err := cachedClient(cfg.LLMConfig(), apiKey)
	if err != nil {
		return nil, err
	}
	return seeder.NewGuidedGenerator(client, fallback,
		seeder.WithGuidedMetrics(collector),
		seeder.WithGuidedLogger(logger.Get()),
	)
}

var (
	clientsMu    sync.Mutex
	clients      *llm.ClientCache
	clientsSetup llm.Config
)

// cachedClient returns the process-wide client for apiKey. The cache is rebuilt
// when the model settings change.
func cachedClient(settings llm.Config, apiKey string) (llm.Client, error) {
	settings.APIKey = ""

	clientsMu.Lock()
	if clients == nil || settings != clientsSetup {
		clients = llm.NewClientCache(settings)
		clientsSetup = settings
	}
	cache := clients
	clientsMu.Unlock()

	return cache.Get(apiKey)
}

func printSummary(collector *metrics.Collector) {
	summary, err := collector.Summary()
	if err != nil || len(summary) == 0 {
		return
	}

	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("📊 Generation summary:")
	for _, name := range names {
		fmt.Printf("   %-50s %g\n", name, summary[name])
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntP("count", "n", 10, "Number of records to generate")
	generateCmd.Flags().StringP("format", "f", "", "Export format: xlsx, csv, json or sqlite (default from config)")
	generateCmd.Flags().Int("concurrency", 1, "Guided field generations to run at once (default from config)")
	generateCmd.Flags().String("api-key", "", "Language model API key (default from the configured environment variable)")
	generateCmd.Flags().Bool("save", false, "Also insert the records into the configured database")
	generateCmd.Flags().Bool("upload", false, "Upload the export file to S3")
	generateCmd.Flags().String("bucket", "", "S3 bucket (default from config)")
	generateCmd.Flags().Bool("require-guided", false, "Fail instead of generating locally when no API key is set")
}
