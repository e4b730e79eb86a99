package types

import (
	"strings"
	"time"
)

type FieldType string

const (
	FieldString   FieldType = "string"
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDecimal  FieldType = "decimal"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldDateTime FieldType = "datetime"
	FieldEmail    FieldType = "email"
	FieldURL      FieldType = "url"
	FieldChoice   FieldType = "choice"
	FieldList     FieldType = "list"
)

// AllFieldTypes lists every supported field type in declaration order.
var AllFieldTypes = []FieldType{
	FieldString, FieldText, FieldNumber, FieldDecimal, FieldBoolean,
	FieldDate, FieldDateTime, FieldEmail, FieldURL, FieldChoice, FieldList,
}

// DefaultChoices is substituted for a choice field declared without choices.
var DefaultChoices = []string{"Option A", "Option B", "Option C"}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

func (t FieldType) Valid() bool {
	for _, known := range AllFieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsLocal reports whether values of this type are always generated locally,
// never through the language model.
func (t FieldType) IsLocal() bool {
	return t == FieldChoice || t == FieldList
}

type FieldOptions struct {
	MaxLength     *int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	MinValue      *int64   `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue      *int64   `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	MaxDigits     *int     `json:"max_digits,omitempty" yaml:"max_digits,omitempty"`
	DecimalPlaces *int     `json:"decimal_places,omitempty" yaml:"decimal_places,omitempty"`
	Choices       []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Nullable      bool     `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Default       any      `json:"default,omitempty" yaml:"default,omitempty"`
	AIDescription string   `json:"ai_description,omitempty" yaml:"ai_description,omitempty"`
	FakerType     string   `json:"faker_type,omitempty" yaml:"faker_type,omitempty"`
}

// ChoicesOrDefault returns the configured choices, or DefaultChoices when none are set.
func (o FieldOptions) ChoicesOrDefault() []string {
	if len(o.Choices) == 0 {
		return DefaultChoices
	}
	return o.Choices
}

// HasGuidance reports whether a non-blank ai_description is present.
func (o FieldOptions) HasGuidance() bool {
	return strings.TrimSpace(o.AIDescription) != ""
}

func (o FieldOptions) MaxLengthOr(def int) int {
	if o.MaxLength != nil && *o.MaxLength > 0 {
		return *o.MaxLength
	}
	return def
}

func (o FieldOptions) DecimalPlacesOr(def int) int {
	if o.DecimalPlaces != nil && *o.DecimalPlaces >= 0 {
		return *o.DecimalPlaces
	}
	return def
}

func (o FieldOptions) MaxDigitsOr(def int) int {
	if o.MaxDigits != nil && *o.MaxDigits > 0 {
		return *o.MaxDigits
	}
	return def
}

// ValueRange returns the inclusive integer range for number fields.
// Defaults are 1 and 1000; an inverted range is swapped.
func (o FieldOptions) ValueRange() (int64, int64) {
	lo, hi := int64(1), int64(1000)
	if o.MinValue != nil {
		lo = *o.MinValue
	}
	if o.MaxValue != nil {
		hi = *o.MaxValue
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

type FieldDefinition struct {
	Name    string       `json:"name" yaml:"name"`
	Type    FieldType    `json:"type" yaml:"type"`
	Options FieldOptions `json:"options,omitempty" yaml:"options,omitempty"`
}

type TableDefinition struct {
	TableName   string            `json:"table_name" yaml:"table_name"`
	DisplayName string            `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldDefinition `json:"fields" yaml:"fields"`
}

// FieldNames returns the field names in schema order.
func (t TableDefinition) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// HasField reports whether the definition declares a field with the given name.
func (t TableDefinition) HasField(name string) bool {
	for _, f := range t.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Record maps a field name to its generated value.
type Record map[string]any

type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportCompleted  ExportStatus = "completed"
	ExportFailed     ExportStatus = "failed"
)

type Progress struct {
	Step       string `json:"step"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

type ExportRecord struct {
	ID          string       `json:"id"`
	Table       string       `json:"table"`
	NumRecords  int          `json:"num_records"`
	Format      string       `json:"format"`
	Status      ExportStatus `json:"status"`
	FilePath    string       `json:"file_path,omitempty"`
	Error       string       `json:"error,omitempty"`
	Progress    Progress     `json:"progress"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

type Migration struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
	FilePath  string     `json:"file_path"`
	Checksum  string     `json:"checksum"`
	Up        string     `json:"-"`
	Down      string     `json:"-"`
}
