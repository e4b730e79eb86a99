package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Rana718/datagen/internal/database/common"
	"github.com/Rana718/datagen/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed definition.schema.json
var definitionSchema string

// Extensions lists the file extensions recognized as table definitions.
var Extensions = []string{".yaml", ".yml", ".json"}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func validator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("definition.schema.json", strings.NewReader(definitionSchema)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = c.Compile("definition.schema.json")
	})
	return compiled, compileErr
}

// Parse decodes a YAML or JSON table definition, checks it against the
// definition schema, and returns it normalized.
func Parse(data []byte) (types.TableDefinition, error) {
	var def types.TableDefinition

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return def, errors.Wrap(err, "failed to decode definition")
	}
	if raw == nil {
		return def, errors.New("definition is empty")
	}

	// round-trip through JSON so the validator sees JSON types
	encoded, err := json.Marshal(raw)
	if err != nil {
		return def, errors.Wrap(err, "definition is not representable as JSON")
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return def, errors.WithStack(err)
	}

	sch, err := validator()
	if err != nil {
		return def, errors.Wrap(err, "failed to compile definition schema")
	}
	if err := sch.Validate(doc); err != nil {
		return def, errors.Wrap(err, "invalid definition")
	}

	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	if err := dec.Decode(&def); err != nil {
		return def, errors.Wrap(err, "failed to decode definition")
	}
	def = Normalize(def)
	normalizeDefaults(&def)
	return def, Validate(def)
}

// LoadFile reads and parses a single definition file.
func LoadFile(path string) (types.TableDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.TableDefinition{}, errors.Wrapf(err, "failed to read definition %s", path)
	}
	def, err := Parse(data)
	if err != nil {
		return def, errors.Wrapf(err, "%s", path)
	}
	return def, nil
}

// LoadDir parses every definition file in dir, ordered by file name.
func LoadDir(dir string) ([]types.TableDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read definitions directory %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && isDefinitionFile(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	defs := make([]types.TableDefinition, 0, len(files))
	seen := make(map[string]string)
	for _, name := range files {
		def, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[def.TableName]; ok {
			return nil, errors.Newf("table %s is defined in both %s and %s", def.TableName, prev, name)
		}
		seen[def.TableName] = name
		defs = append(defs, def)
	}
	return defs, nil
}

// Resolve finds a definition by path, or by table name inside dir.
func Resolve(dir, ref string) (string, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, nil
	}
	name := NormalizeName(ref)
	for _, ext := range Extensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Newf("no definition found for %q in %s", ref, dir)
}

// Write stores def as YAML under dir and returns the file path.
func Write(dir string, def types.TableDefinition) (string, error) {
	data, err := yaml.Marshal(def)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", dir)
	}
	path := filepath.Join(dir, def.TableName+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}

func isDefinitionFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// NormalizeName lower-cases a table or field name and joins words with underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// DisplayName title-cases a table name: "order_items" becomes "Order Items".
func DisplayName(tableName string) string {
	words := strings.FieldsFunc(tableName, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}

// Normalize returns a copy of def with normalized names and a display name.
func Normalize(def types.TableDefinition) types.TableDefinition {
	out := def
	out.TableName = NormalizeName(def.TableName)
	if strings.TrimSpace(out.DisplayName) == "" {
		out.DisplayName = DisplayName(out.TableName)
	}
	out.Fields = make([]types.FieldDefinition, len(def.Fields))
	for i, f := range def.Fields {
		f.Name = NormalizeName(f.Name)
		f.Type = types.FieldType(strings.ToLower(string(f.Type)))
		out.Fields[i] = f
	}
	return out
}

// numbers decoded with UseNumber become int64 or float64
func normalizeDefaults(def *types.TableDefinition) {
	for i := range def.Fields {
		n, ok := def.Fields[i].Options.Default.(json.Number)
		if !ok {
			continue
		}
		if v, err := n.Int64(); err == nil {
			def.Fields[i].Options.Default = v
		} else if v, err := n.Float64(); err == nil {
			def.Fields[i].Options.Default = v
		}
	}
}

// Validate checks the rules the JSON schema cannot express.
func Validate(def types.TableDefinition) error {
	if !common.IsValidIdentifier(def.TableName) {
		return errors.Newf("invalid table name %q", def.TableName)
	}
	if strings.HasPrefix(def.TableName, "_datagen") {
		return errors.Newf("table name %q is reserved", def.TableName)
	}
	if len(def.Fields) == 0 {
		return errors.Newf("table %s has no fields", def.TableName)
	}

	seen := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if !common.IsValidIdentifier(f.Name) {
			return errors.Newf("invalid field name %q", f.Name)
		}
		if seen[f.Name] {
			return errors.Newf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true

		if !f.Type.Valid() {
			return errors.Newf("field %s has unknown type %q", f.Name, f.Type)
		}
		opts := f.Options
		if opts.MinValue != nil && opts.MaxValue != nil && *opts.MinValue > *opts.MaxValue {
			return errors.Newf("field %s: min_value is greater than max_value", f.Name)
		}
		if opts.DecimalPlaces != nil && opts.MaxDigits != nil && *opts.DecimalPlaces > *opts.MaxDigits {
			return errors.Newf("field %s: decimal_places exceeds max_digits", f.Name)
		}
		if f.Type == types.FieldChoice && opts.MaxLength != nil {
			for _, c := range opts.Choices {
				if len([]rune(c)) > *opts.MaxLength {
					return errors.Newf("field %s: choice %q is longer than max_length", f.Name, c)
				}
			}
		}
	}
	return nil
}
