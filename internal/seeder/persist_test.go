package seeder

import (
	"context"
	"testing"

	"github.com/Rana718/datagen/internal/database"
	"github.com/Rana718/datagen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	database.DatabaseAdapter
	exists   bool
	table    string
	columns  []string
	inserted []types.Record
}

func (s *stubAdapter) CheckTableExists(_ context.Context, tableName string) (bool, error) {
	return s.exists, nil
}

func (s *stubAdapter) InsertRecords(_ context.Context, tableName string, columns []string, records []types.Record) (int64, error) {
	s.table, s.columns, s.inserted = tableName, columns, records
	return int64(len(records)), nil
}

func TestSeederInsertsInFieldOrder(t *testing.T) {
	def := types.TableDefinition{TableName: "books", Fields: []types.FieldDefinition{
		{Name: "title", Type: types.FieldString},
		{Name: "pages", Type: types.FieldNumber},
	}}
	records, err := NewSynthesizer(nil, nil).SynthesizeRecords(context.Background(), def.Fields, 3, false)
	require.NoError(t, err)

	adapter := &stubAdapter{exists: true}
	n, err := NewSeeder(adapter).Seed(context.Background(), def, records)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, "books", adapter.table)
	assert.Equal(t, []string{"title", "pages"}, adapter.columns)
	assert.Equal(t, records, adapter.inserted)
}

func TestSeederRequiresTable(t *testing.T) {
	def := types.TableDefinition{TableName: "books", Fields: []types.FieldDefinition{{Name: "title", Type: types.FieldString}}}
	adapter := &stubAdapter{exists: false}

	_, err := NewSeeder(adapter).Seed(context.Background(), def, []types.Record{{"title": "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "datagen create")
	assert.Nil(t, adapter.inserted)
}

func TestSeederNoRecords(t *testing.T) {
	adapter := &stubAdapter{}
	n, err := NewSeeder(adapter).Seed(context.Background(), types.TableDefinition{TableName: "books"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
