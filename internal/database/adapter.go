package database

import (
	"context"
	"time"

	"github.com/Rana718/datagen/internal/types"
)

type DatabaseAdapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// Migration bookkeeping
	CreateMigrationsTable(ctx context.Context) error
	GetAppliedMigrations(ctx context.Context) (map[string]*time.Time, error)
	ExecuteAndRecordMigration(ctx context.Context, migrationID, name, checksum, migrationSQL string) error

	CheckTableExists(ctx context.Context, tableName string) (bool, error)
	InsertRecords(ctx context.Context, tableName string, columns []string, records []types.Record) (int64, error)

	// SQL generation
	GenerateCreateTableSQL(def types.TableDefinition) string
	GenerateDropTableSQL(tableName string) string
	FormatColumnType(field types.FieldDefinition) string
}
