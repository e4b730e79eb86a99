package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/datagen/internal/database/common"
	"github.com/Rana718/datagen/internal/types"
	driver "github.com/go-sql-driver/mysql"
)

var typeMap = common.TypeMap{
	types.FieldString:   {Name: "VARCHAR", Length: 255},
	types.FieldText:     {Name: "TEXT"},
	types.FieldNumber:   {Name: "INT"},
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
	IDColumn:        "INT AUTO_INCREMENT PRIMARY KEY",
	CreatedAtColumn: "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	Quote:           common.QuoteBacktick,
	QuoteLiteral:    common.QuoteSingle,
}

type Adapter struct {
	common.Base
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

var sslModes = strings.NewReplacer(
	"ssl-mode=REQUIRED", "tls=skip-verify",
	"ssl-mode=DISABLED", "tls=false",
	"ssl-mode=VERIFY_CA", "tls=true",
	"ssl-mode=VERIFY_IDENTITY", "tls=true",
	"sslmode=require", "tls=skip-verify",
	"sslmode=disable", "tls=false",
	"sslmode=verify-ca", "tls=true",
	"sslmode=verify-full", "tls=true",
)

// ToDSN converts a mysql:// URL into a driver DSN with parseTime enabled.
// Plain DSNs are accepted as is.
func ToDSN(url string) (string, error) {
	dsn := url
	if strings.HasPrefix(url, "mysql://") {
		dsn = strings.TrimPrefix(url, "mysql://")
		if at := strings.LastIndex(dsn, "@"); at > 0 {
			credentials, remainder := dsn[:at], dsn[at+1:]
			if slash := strings.Index(remainder, "/"); slash > 0 {
				hostPort, dbAndParams := remainder[:slash], sslModes.Replace(remainder[slash+1:])
				dsn = fmt.Sprintf("%s@tcp(%s)/%s", credentials, hostPort, dbAndParams)
			}
		}
	}

	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (m *Adapter) Connect(ctx context.Context, url string) error {
	dsn, err := ToDSN(url)
	if err != nil {
		return err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	m.DB = db
	return nil
}

func (m *Adapter) CreateMigrationsTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + common.MigrationsTable + ` (
		id VARCHAR(255) PRIMARY KEY,
		checksum VARCHAR(64) NOT NULL,
		finished_at TIMESTAMP NULL,
		migration_name VARCHAR(255) NOT NULL,
		started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		applied_steps_count INT NOT NULL DEFAULT 0
	)`
	_, err := m.DB.ExecContext(ctx, query)
	return err
}

func (m *Adapter) CheckTableExists(ctx context.Context, tableName string) (bool, error) {
	return m.CountTables(ctx, m.QB.Select("COUNT(*)").From("information_schema.tables").
		Where("table_schema = DATABASE()").
		Where(squirrel.Eq{"table_name": tableName}))
}
