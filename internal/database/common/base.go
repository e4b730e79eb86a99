package common

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/datagen/internal/types"
)

// MigrationsTable records applied migrations.
const MigrationsTable = "_datagen_migrations"

// DefaultBatchSize bounds the rows of a single INSERT statement.
const DefaultBatchSize = 100

// Base holds the dialect-independent parts of an adapter over database/sql.
type Base struct {
	DB      *sql.DB
	QB      squirrel.StatementBuilderType
	Dialect Dialect
	Batch   int
}

func (b *Base) Close() error {
	if b.DB != nil {
		return b.DB.Close()
	}
	return nil
}

func (b *Base) Ping(ctx context.Context) error {
	if b.DB == nil {
		return fmt.Errorf("database is not connected")
	}
	return b.DB.PingContext(ctx)
}

func (b *Base) GenerateCreateTableSQL(def types.TableDefinition) string {
	return b.Dialect.CreateTable(def)
}

func (b *Base) GenerateDropTableSQL(tableName string) string {
	return b.Dialect.DropTable(tableName)
}

func (b *Base) FormatColumnType(field types.FieldDefinition) string {
	return b.Dialect.Types.Format(field)
}

func (b *Base) GetAppliedMigrations(ctx context.Context) (map[string]*time.Time, error) {
	query, args, err := b.QB.Select("id", "finished_at").From(MigrationsTable).
		Where(squirrel.NotEq{"finished_at": nil}).OrderBy("started_at").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]*time.Time)
	for rows.Next() {
		var id string
		var finishedAt sql.NullTime
		if err := rows.Scan(&id, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			applied[id] = &t
		} else {
			applied[id] = nil
		}
	}
	return applied, rows.Err()
}

// ExecuteAndRecordMigration runs migrationSQL and records it in one transaction.
func (b *Base) ExecuteAndRecordMigration(ctx context.Context, migrationID, name, checksum, migrationSQL string) error {
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert, args, err := b.QB.Insert(MigrationsTable).
		Columns("id", "migration_name", "checksum", "started_at", "applied_steps_count").
		Values(migrationID, name, checksum, squirrel.Expr("CURRENT_TIMESTAMP"), 0).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return fmt.Errorf("failed to record migration start: %w", err)
	}

	for i, stmt := range ParseSQLStatements(migrationSQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
		}
	}

	update, args, err := b.QB.Update(MigrationsTable).
		Set("finished_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Set("applied_steps_count", 1).
		Where(squirrel.Eq{"id": migrationID}).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		return fmt.Errorf("failed to update migration finish time: %w", err)
	}

	return tx.Commit()
}

// CountTables runs a COUNT(*) catalog query built by the dialect adapter.
func (b *Base) CountTables(ctx context.Context, query squirrel.SelectBuilder) (bool, error) {
	q, args, err := query.ToSql()
	if err != nil {
		return false, err
	}
	var count int
	if err := b.DB.QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table: %w", err)
	}
	return count > 0, nil
}

// InsertRecords inserts records in batches inside one transaction and returns
// the number of rows written. Missing record keys are inserted as NULL.
func (b *Base) InsertRecords(ctx context.Context, tableName string, columns []string, records []types.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if !IsValidIdentifier(tableName) {
		return 0, fmt.Errorf("invalid table name: %s", tableName)
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		if !IsValidIdentifier(col) {
			return 0, fmt.Errorf("invalid column name: %s", col)
		}
		quoted[i] = b.Dialect.Quote(col)
	}

	batchSize := b.Batch
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inserted int64
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))

		builder := b.QB.Insert(b.Dialect.Quote(tableName)).Columns(quoted...)
		for _, record := range records[start:end] {
			values := make([]interface{}, len(columns))
			for i, col := range columns {
				values[i] = record[col]
			}
			builder = builder.Values(values...)
		}

		query, args, err := builder.ToSql()
		if err != nil {
			return inserted, err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert into %s: %w", tableName, explainInsertError(err))
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		} else {
			inserted += int64(end - start)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("failed to commit insert: %w", err)
	}
	return inserted, nil
}

func explainInsertError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such table") || strings.Contains(msg, "does not exist") || strings.Contains(msg, "doesn't exist") {
		return fmt.Errorf("%w (run `datagen create` first)", err)
	}
	return err
}
