package cmd

import (
	"context"
	"fmt"

	"github.com/Rana718/datagen/internal/config"
	"github.com/Rana718/datagen/internal/database"
	"github.com/Rana718/datagen/internal/schema"
	"github.com/Rana718/datagen/internal/types"
)

func loadConfig() (*config.Config, error) {
	if cfgFile == "" && !config.IsInitialized() {
		return nil, fmt.Errorf("datagen is not initialized. Run 'datagen init' first")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	return cfg, nil
}

func loadDefinition(cfg *config.Config, ref string) (types.TableDefinition, error) {
	path, err := schema.Resolve(cfg.DefinitionsDir, ref)
	if err != nil {
		return types.TableDefinition{}, err
	}
	return schema.LoadFile(path)
}

// connect opens the configured database. The caller closes the adapter.
func connect(ctx context.Context, cfg *config.Config) (database.DatabaseAdapter, error) {
	adapter, err := database.NewAdapter(cfg.Database.Provider)
	if err != nil {
		return nil, err
	}

	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}

	if err := adapter.Connect(ctx, dbURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return adapter, nil
}
