package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rana718/datagen/internal/types"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDefinition() types.TableDefinition {
	return types.TableDefinition{
		TableName:   "readings",
		DisplayName: "Sensor Readings",
		Fields: []types.FieldDefinition{
			{Name: "sensor", Type: types.FieldString},
			{Name: "value", Type: types.FieldDecimal},
			{Name: "ok", Type: types.FieldBoolean},
			{Name: "taken_on", Type: types.FieldDate},
			{Name: "logged_at", Type: types.FieldDateTime},
		},
	}
}

func sampleRecords() []types.Record {
	return []types.Record{
		{"sensor": "north-1", "value": 12.5, "ok": true,
			"taken_on": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "logged_at": time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)},
		{"sensor": "a sensor with a rather long identifier", "value": 3.25, "ok": false,
			"taken_on": time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), "logged_at": time.Date(2024, 5, 2, 9, 0, 5, 0, time.UTC)},
	}
}

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	e := New(filepath.Join(t.TempDir(), "output"))
	e.now = func() time.Time { return time.Date(2024, 6, 7, 8, 9, 10, 0, time.UTC) }
	return e
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.Equal(t, "db", FormatSQLite.Extension())

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.Export(context.Background(), sampleDefinition(), sampleRecords(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "readings_20240607_080910.csv", filepath.Base(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"sensor", "value", "ok", "taken_on", "logged_at"},
		{"north-1", "12.5", "true", "2024-05-01", "2024-05-01 08:30:00"},
		{"a sensor with a rather long identifier", "3.25", "false", "2024-05-02", "2024-05-02 09:00:05"},
	}, rows)
}

func TestExportJSON(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.Export(context.Background(), sampleDefinition(), sampleRecords(), FormatJSON)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out struct {
		Table       string           `json:"table"`
		GeneratedAt string           `json:"generated_at"`
		Fields      []string         `json:"fields"`
		Records     []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "readings", out.Table)
	assert.Equal(t, "2024-06-07T08:09:10Z", out.GeneratedAt)
	assert.Equal(t, sampleDefinition().FieldNames(), out.Fields)
	require.Len(t, out.Records, 2)
	assert.Equal(t, "2024-05-01", out.Records[0]["taken_on"])
	assert.Equal(t, 12.5, out.Records[0]["value"])
	assert.Equal(t, true, out.Records[0]["ok"])
}

func TestExportXLSX(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.Export(context.Background(), sampleDefinition(), sampleRecords(), FormatXLSX)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sensor Readings"}, f.GetSheetList())
	rows, err := f.GetRows("Sensor Readings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"sensor", "value", "ok", "taken_on", "logged_at"}, rows[0])
	assert.Equal(t, "north-1", rows[1][0])
	assert.Equal(t, "2024-05-01", rows[1][3])

	styleID, err := f.GetCellStyle("Sensor Readings", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Equal(t, []string{headerFill}, style.Fill.Color)

	width, err := f.GetColWidth("Sensor Readings", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len("a sensor with a rather long identifier")+2), width)

	width, err = f.GetColWidth("Sensor Readings", "C")
	require.NoError(t, err)
	assert.Equal(t, float64(len("false")+2), width)
}

func TestExportXLSXCapsColumnWidth(t *testing.T) {
	def := types.TableDefinition{TableName: "notes", Fields: []types.FieldDefinition{{Name: "body", Type: types.FieldText}}}
	records := []types.Record{{"body": string(bytes.Repeat([]byte("x"), 200))}}

	path, err := newTestExporter(t).Export(context.Background(), def, records, FormatXLSX)
	require.NoError(t, err)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"notes"}, f.GetSheetList())
	width, err := f.GetColWidth("notes", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(maxColWidth), width)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Q1 Sales", SheetName(types.TableDefinition{DisplayName: "Q1: Sales", TableName: "q1"}))
	assert.Equal(t, "fallback", SheetName(types.TableDefinition{DisplayName: "[]", TableName: "fallback"}))
	assert.Len(t, []rune(SheetName(types.TableDefinition{DisplayName: "A very long display name that keeps going"})), 31)
}

func TestExportSQLite(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.Export(context.Background(), sampleDefinition(), sampleRecords(), FormatSQLite)
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "readings"`).Scan(&count))
	assert.Equal(t, 2, count)

	var sensor string
	var ok bool
	require.NoError(t, db.QueryRow(`SELECT "sensor", "ok" FROM "readings" ORDER BY "id" LIMIT 1`).Scan(&sensor, &ok))
	assert.Equal(t, "north-1", sensor)
	assert.True(t, ok)
}

type fakeS3 struct {
	input *awss3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObject(_ context.Context, params *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	f.input = params
	body, err := io.ReadAll(params.Body)
	f.body = body
	return &awss3.PutObjectOutput{}, err
}

func TestS3Upload(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.Export(context.Background(), sampleDefinition(), sampleRecords(), FormatCSV)
	require.NoError(t, err)
	want, err := os.ReadFile(path)
	require.NoError(t, err)

	client := &fakeS3{}
	url, err := NewS3UploaderWithClient(client, "exports/").Upload(context.Background(), "bucket", path)
	require.NoError(t, err)

	assert.Equal(t, "s3://bucket/exports/readings_20240607_080910.csv", url)
	assert.Equal(t, "exports/readings_20240607_080910.csv", *client.input.Key)
	assert.Equal(t, "text/csv", *client.input.ContentType)
	assert.EqualValues(t, len(want), *client.input.ContentLength)
	assert.Equal(t, want, client.body)
}
