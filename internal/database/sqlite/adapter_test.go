package sqlite

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Rana718/datagen/internal/database/common"
	"github.com/Rana718/datagen/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func TestGenerateCreateTableSQL(t *testing.T) {
	def := types.TableDefinition{
		TableName: "customers",
		Fields: []types.FieldDefinition{
			{Name: "contact", Type: types.FieldEmail},
			{Name: "homepage", Type: types.FieldURL, Options: types.FieldOptions{Nullable: true}},
			{Name: "visits", Type: types.FieldNumber},
			{Name: "balance", Type: types.FieldDecimal},
			{Name: "notes", Type: types.FieldText},
			{Name: "tags", Type: types.FieldList},
			{Name: "last_seen", Type: types.FieldDateTime},
		},
	}
	want := `CREATE TABLE IF NOT EXISTS "customers" (
  "id" INTEGER PRIMARY KEY AUTOINCREMENT,
  "contact" VARCHAR(255) NOT NULL,
  "homepage" VARCHAR(500) NULL,
  "visits" INTEGER NOT NULL,
  "balance" DECIMAL(10, 2) NOT NULL,
  "notes" TEXT NOT NULL,
  "tags" TEXT NOT NULL,
  "last_seen" DATETIME NOT NULL,
  "created_at" DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if diff := cmp.Diff(want, New().GenerateCreateTableSQL(def)); diff != "" {
		t.Errorf("GenerateCreateTableSQL() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, `DROP TABLE IF EXISTS "customers";`, New().GenerateDropTableSQL("customers"))
}

func TestEveryFieldTypeIsMapped(t *testing.T) {
	for _, ft := range types.AllFieldTypes {
		_, ok := typeMap[ft]
		assert.True(t, ok, "missing column type for %s", ft)
	}
}

func TestCheckTableExists(t *testing.T) {
	adapter, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sqlite_master WHERE")).
		WithArgs("books", "table").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := adapter.CheckTableExists(context.Background(), "books")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRecordsBatches(t *testing.T) {
	adapter, mock := newMock(t)
	adapter.Batch = 2

	records := []types.Record{
		{"title": "a", "pages": int64(1)},
		{"title": "b", "pages": int64(2)},
		{"title": "c"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "books" ("title","pages") VALUES (?,?),(?,?)`)).
		WithArgs("a", int64(1), "b", int64(2)).
		WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "books" ("title","pages") VALUES (?,?)`)).
		WithArgs("c", nil).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	n, err := adapter.InsertRecords(context.Background(), "books", []string{"title", "pages"}, records)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRecordsRejectsBadIdentifiers(t *testing.T) {
	adapter, mock := newMock(t)
	_, err := adapter.InsertRecords(context.Background(), "books; DROP TABLE x", []string{"title"}, []types.Record{{"title": "a"}})
	assert.Error(t, err)
	_, err = adapter.InsertRecords(context.Background(), "books", []string{"ti tle"}, []types.Record{{"title": "a"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRecordsMissingTable(t *testing.T) {
	adapter, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := adapter.InsertRecords(context.Background(), "books", []string{"title"}, []types.Record{{"title": "a"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteAndRecordMigration(t *testing.T) {
	adapter, mock := newMock(t)
	ddl := New().GenerateCreateTableSQL(types.TableDefinition{
		TableName: "books",
		Fields:    []types.FieldDefinition{{Name: "title", Type: types.FieldString}},
	})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO " + common.MigrationsTable)).
		WithArgs("20240101000000_create_books", "create_books", "abc", 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "books"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE " + common.MigrationsTable + " SET finished_at = CURRENT_TIMESTAMP")).
		WithArgs(1, "20240101000000_create_books").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.ExecuteAndRecordMigration(context.Background(), "20240101000000_create_books", "create_books", "abc", ddl)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppliedMigrations(t *testing.T) {
	adapter, mock := newMock(t)
	finished := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, finished_at FROM " + common.MigrationsTable + " WHERE finished_at IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "finished_at"}).AddRow("20240101000000_create_books", finished))

	applied, err := adapter.GetAppliedMigrations(context.Background())
	require.NoError(t, err)
	require.Contains(t, applied, "20240101000000_create_books")
	assert.Equal(t, finished, *applied["20240101000000_create_books"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
