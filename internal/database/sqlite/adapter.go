package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/datagen/internal/database/common"
	"github.com/Rana718/datagen/internal/types"
	_ "github.com/mattn/go-sqlite3"
)

var typeMap = common.TypeMap{
	types.FieldString:   {Name: "VARCHAR", Length: 255},
	types.FieldText:     {Name: "TEXT"},
	types.FieldNumber:   {Name: "INTEGER"},
	types.FieldDecimal:  {Name: "DECIMAL", Precision: true},
	types.FieldBoolean:  {Name: "BOOLEAN"},
	types.FieldDate:     {Name: "DATE"},
	types.FieldDateTime: {Name: "DATETIME"},
	types.FieldEmail:    {Name: "VARCHAR", Length: 255},
	types.FieldURL:      {Name: "VARCHAR", Length: 500},
	types.FieldList:     {Name: "TEXT"},
	types.FieldChoice:   {Name: "VARCHAR"},
}

var dialect = common.Dialect{
	Types:           typeMap,
	IDColumn:        "INTEGER PRIMARY KEY AUTOINCREMENT",
	CreatedAtColumn: "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	Quote:           common.QuoteDouble,
	QuoteLiteral:    common.QuoteSingle,
}

type Adapter struct {
	common.Base
	path string
}

func New() *Adapter {
	return &Adapter{
		Base: common.Base{
			QB:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
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

func (s *Adapter) Connect(ctx context.Context, url string) error {
	s.path = strings.TrimPrefix(url, "sqlite://")
	dsn := s.path
	if !strings.Contains(dsn, "?") {
		dsn += "?cache=shared&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s.DB = db
	return nil
}

func (s *Adapter) CreateMigrationsTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + common.MigrationsTable + ` (
		id TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		finished_at TIMESTAMP,
		migration_name TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		applied_steps_count INTEGER NOT NULL DEFAULT 0
	)`
	_, err := s.DB.ExecContext(ctx, query)
	return err
}

func (s *Adapter) CheckTableExists(ctx context.Context, tableName string) (bool, error) {
	return s.CountTables(ctx, s.QB.Select("COUNT(*)").From("sqlite_master").
		Where(squirrel.Eq{"type": "table", "name": tableName}))
}
