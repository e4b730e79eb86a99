//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Rana718/datagen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresRoundTrip(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:17",
		tcpostgres.WithDatabase("datagen"),
		tcpostgres.WithUsername("datagen"),
		tcpostgres.WithPassword("datagen"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	adapter := New()
	require.NoError(t, adapter.Connect(ctx, url))
	defer adapter.Close()
	require.NoError(t, adapter.Ping(ctx))
	require.NoError(t, adapter.CreateMigrationsTable(ctx))

	def := types.TableDefinition{
		TableName: "readings",
		Fields: []types.FieldDefinition{
			{Name: "sensor", Type: types.FieldString},
			{Name: "value", Type: types.FieldDecimal},
			{Name: "taken_on", Type: types.FieldDate},
		},
	}
	require.NoError(t, adapter.ExecuteAndRecordMigration(ctx, "20240101000000_create_readings", "create_readings", "sum",
		adapter.GenerateCreateTableSQL(def)))

	applied, err := adapter.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Contains(t, applied, "20240101000000_create_readings")

	exists, err := adapter.CheckTableExists(ctx, "readings")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := adapter.InsertRecords(ctx, "readings", def.FieldNames(), []types.Record{
		{"sensor": "a1", "value": 12.5, "taken_on": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"sensor": "a2", "value": 3.25, "taken_on": time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
