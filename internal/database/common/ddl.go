package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rana718/datagen/internal/types"
)

// ColumnType is one entry of a dialect's field type map.
type ColumnType struct {
	Name      string // SQL type name, e.g. VARCHAR
	Length    int    // default length for sized types; 0 means unsized
	Precision bool   // rendered as Name(max_digits, decimal_places)
}

// TypeMap maps every field type to a column type for one dialect.
type TypeMap map[types.FieldType]ColumnType

const defaultChoiceLength = 50

// Fallback is used for field types missing from a TypeMap.
var Fallback = ColumnType{Name: "VARCHAR", Length: 255}

// Format renders the SQL type for a field, applying max_length, max_digits and
// decimal_places. Choice columns are as wide as the longest choice.
func (m TypeMap) Format(field types.FieldDefinition) string {
	ct, ok := m[field.Type]
	if !ok {
		ct = Fallback
	}
	opts := field.Options

	switch {
	case ct.Precision:
		return fmt.Sprintf("%s(%d, %d)", ct.Name, opts.MaxDigitsOr(10), opts.DecimalPlacesOr(2))
	case field.Type == types.FieldChoice:
		return fmt.Sprintf("%s(%d)", ct.Name, opts.MaxLengthOr(choiceLength(opts.Choices)))
	case ct.Length > 0:
		return fmt.Sprintf("%s(%d)", ct.Name, opts.MaxLengthOr(ct.Length))
	default:
		return ct.Name
	}
}

func choiceLength(choices []string) int {
	longest := 0
	for _, c := range choices {
		if n := len([]rune(c)); n > longest {
			longest = n
		}
	}
	if longest == 0 {
		return defaultChoiceLength
	}
	return longest
}

// Dialect is the static description of how one SQL engine materializes a table definition.
type Dialect struct {
	Types           TypeMap
	IDColumn        string // column definition for the surrogate key
	CreatedAtColumn string // column definition for the creation timestamp
	Quote           func(string) string
	QuoteLiteral    func(string) string
}

// QuoteDouble quotes an identifier with double quotes.
func QuoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteBacktick quotes an identifier with backticks.
func QuoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteSingle quotes a string literal with single quotes.
func QuoteSingle(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (d Dialect) ColumnDefinition(field types.FieldDefinition) string {
	parts := []string{d.Quote(field.Name), d.Types.Format(field)}
	if field.Options.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	if def, ok := d.FormatDefault(field.Options.Default); ok {
		parts = append(parts, "DEFAULT "+def)
	}
	return strings.Join(parts, " ")
}

// FormatDefault renders a default value as a SQL literal.
func (d Dialect) FormatDefault(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case bool:
		if val {
			return "TRUE", true
		}
		return "FALSE", true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case string:
		return d.QuoteLiteral(val), true
	default:
		return d.QuoteLiteral(fmt.Sprint(val)), true
	}
}

// CreateTable renders CREATE TABLE IF NOT EXISTS for the definition. An id key
// and a created_at column are added unless the definition declares them.
func (d Dialect) CreateTable(def types.TableDefinition) string {
	var columns []string
	if !def.HasField("id") {
		columns = append(columns, fmt.Sprintf("%s %s", d.Quote("id"), d.IDColumn))
	}
	for _, field := range def.Fields {
		columns = append(columns, d.ColumnDefinition(field))
	}
	if !def.HasField("created_at") {
		columns = append(columns, fmt.Sprintf("%s %s", d.Quote("created_at"), d.CreatedAtColumn))
	}

	lines := []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (", d.Quote(def.TableName))}
	for i, col := range columns {
		comma := ","
		if i == len(columns)-1 {
			comma = ""
		}
		lines = append(lines, "  "+col+comma)
	}
	lines = append(lines, ");")
	return strings.Join(lines, "\n")
}

func (d Dialect) DropTable(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.Quote(tableName))
}
