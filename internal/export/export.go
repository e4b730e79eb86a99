package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Rana718/datagen/internal/database/sqlite"
	"github.com/Rana718/datagen/internal/types"
	"github.com/cockroachdb/errors"
)

type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

var Formats = []Format{FormatXLSX, FormatCSV, FormatJSON, FormatSQLite}

func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.Newf("unsupported export format %q, supported formats: %v", s, Formats)
}

func (f Format) Extension() string {
	if f == FormatSQLite {
		return "db"
	}
	return string(f)
}

// Exporter writes generated records to files under Dir.
type Exporter struct {
	Dir string
	now func() time.Time
}

func New(dir string) *Exporter {
	return &Exporter{Dir: dir, now: time.Now}
}

// Export writes records as <table>_<timestamp>.<ext> and returns the file path.
func (e *Exporter) Export(ctx context.Context, def types.TableDefinition, records []types.Record, format Format) (string, error) {
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	timestamp := e.now().Format("20060102_150405")
	filePath := filepath.Join(e.Dir, fmt.Sprintf("%s_%s.%s", def.TableName, timestamp, format.Extension()))

	var err error
	switch format {
	case FormatXLSX:
		err = writeXLSX(filePath, def, records)
	case FormatCSV:
		err = writeCSV(filePath, def, records)
	case FormatJSON:
		err = writeJSON(filePath, def, records, e.now())
	case FormatSQLite:
		err = writeSQLite(ctx, filePath, def, records)
	default:
		_, err = ParseFormat(string(format))
	}
	if err != nil {
		os.Remove(filePath)
		return "", err
	}
	return filePath, nil
}

// cellValue renders temporal values with the field's layout and leaves the
// rest untouched.
func cellValue(field types.FieldDefinition, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if field.Type == types.FieldDate {
		return t.Format(types.DateLayout)
	}
	return t.Format(types.DateTimeLayout)
}

func cellString(field types.FieldDefinition, v any) string {
	switch val := cellValue(field, v).(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func writeCSV(filePath string, def types.TableDefinition, records []types.Record) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(def.FieldNames()); err != nil {
		return err
	}
	for _, record := range records {
		row := make([]string, len(def.Fields))
		for i, field := range def.Fields {
			row[i] = cellString(field, record[field.Name])
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return file.Close()
}

type jsonExport struct {
	Table       string           `json:"table"`
	DisplayName string           `json:"display_name,omitempty"`
	GeneratedAt string           `json:"generated_at"`
	Fields      []string         `json:"fields"`
	Records     []map[string]any `json:"records"`
}

func writeJSON(filePath string, def types.TableDefinition, records []types.Record, now time.Time) error {
	out := jsonExport{
		Table:       def.TableName,
		DisplayName: def.DisplayName,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Fields:      def.FieldNames(),
		Records:     make([]map[string]any, len(records)),
	}
	for i, record := range records {
		row := make(map[string]any, len(def.Fields))
		for _, field := range def.Fields {
			row[field.Name] = cellValue(field, record[field.Name])
		}
		out.Records[i] = row
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// writeSQLite materializes the table in a standalone SQLite file.
func writeSQLite(ctx context.Context, filePath string, def types.TableDefinition, records []types.Record) error {
	adapter := sqlite.New()
	if err := adapter.Connect(ctx, filePath); err != nil {
		return err
	}
	defer adapter.Close()

	if _, err := adapter.DB.ExecContext(ctx, adapter.GenerateCreateTableSQL(def)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", def.TableName, err)
	}

	rows := make([]types.Record, len(records))
	for i, record := range records {
		row := make(types.Record, len(def.Fields))
		for _, field := range def.Fields {
			row[field.Name] = cellValue(field, record[field.Name])
		}
		rows[i] = row
	}
	_, err := adapter.InsertRecords(ctx, def.TableName, def.FieldNames(), rows)
	return err
}
