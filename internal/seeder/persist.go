package seeder

import (
	"context"
	"fmt"

	"github.com/Rana718/datagen/internal/database"
	"github.com/Rana718/datagen/internal/types"
	"github.com/fatih/color"
)

// Seeder writes synthesized records into the table created from their definition.
type Seeder struct {
	adapter database.DatabaseAdapter
}

func NewSeeder(adapter database.DatabaseAdapter) *Seeder {
	return &Seeder{adapter: adapter}
}

// Seed inserts records into def's table and returns the number of rows written.
func (s *Seeder) Seed(ctx context.Context, def types.TableDefinition, records []types.Record) (int64, error) {
	if len(records) == 0 {
		color.Yellow("⚠️  No records to insert into %s", def.TableName)
		return 0, nil
	}

	exists, err := s.adapter.CheckTableExists(ctx, def.TableName)
	if err != nil {
		return 0, fmt.Errorf("failed to check table %s: %w", def.TableName, err)
	}
	if !exists {
		return 0, fmt.Errorf("table %s does not exist (run `datagen create` first)", def.TableName)
	}

	inserted, err := s.adapter.InsertRecords(ctx, def.TableName, def.FieldNames(), records)
	if err != nil {
		return inserted, err
	}

	color.Green("  ✓ %s: %d records", def.TableName, inserted)
	return inserted, nil
}
