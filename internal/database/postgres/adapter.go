package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/datagen/internal/database/common"
	"github.com/Rana718/datagen/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

var typeMap = common.TypeMap{
	types.FieldString:   {Name: "VARCHAR", Length: 255},
	types.FieldText:     {Name: "TEXT"},
	types.FieldNumber:   {Name: "INTEGER"},
	types.FieldDecimal:  {Name: "NUMERIC", Precision: true},
	types.FieldBoolean:  {Name: "BOOLEAN"},
	types.FieldDate:     {Name: "DATE"},
	types.FieldDateTime: {Name: "TIMESTAMP"},
	types.FieldEmail:    {Name: "VARCHAR", Length: 255},
	types.FieldURL:      {Name: "VARCHAR", Length: 500},
	types.FieldList:     {Name: "TEXT"},
	types.FieldChoice:   {Name: "VARCHAR"},
}

var dialect = common.Dialect{
	Types:           typeMap,
	IDColumn:        "SERIAL PRIMARY KEY",
	CreatedAtColumn: "TIMESTAMP NOT NULL DEFAULT NOW()",
	Quote:           pq.QuoteIdentifier,
	QuoteLiteral:    pq.QuoteLiteral,
}

type Adapter struct {
	common.Base
}

func New() *Adapter {
	return &Adapter{
		Base: common.Base{
			QB:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
			Dialect: dialect,
		},
	}
}

// NewWithDB wraps an already opened connection.
func NewWithDB(db *sql.DB) *Adapter {
	a := New()
	a.DB = db
	return a
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgx.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}
	config.DefaultQueryExecMode = pgx.QueryExecModeExec

	db := stdlib.OpenDB(*config)
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	p.DB = db
	return nil
}

func (p *Adapter) CreateMigrationsTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + common.MigrationsTable + ` (
		id VARCHAR(255) PRIMARY KEY,
		checksum VARCHAR(64) NOT NULL,
		finished_at TIMESTAMP WITH TIME ZONE,
		migration_name VARCHAR(255) NOT NULL,
		started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		applied_steps_count INTEGER NOT NULL DEFAULT 0
	)`
	_, err := p.DB.ExecContext(ctx, query)
	return err
}

func (p *Adapter) CheckTableExists(ctx context.Context, tableName string) (bool, error) {
	return p.CountTables(ctx, p.QB.Select("COUNT(*)").From("information_schema.tables").
		Where("table_schema = current_schema()").
		Where(squirrel.Eq{"table_name": tableName}))
}
