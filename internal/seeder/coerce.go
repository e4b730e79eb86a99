package seeder

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Rana718/datagen/internal/types"
	"github.com/cockroachdb/errors"
)

// errCoercion marks raw text that cannot be read as the target representation.
// It never leaves this package.
var errCoercion = errors.New("value does not match field type")

var truthy = map[string]bool{"true": true, "yes": true, "1": true, "on": true}

func parseBool(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

func parseInt(s string) (int64, error) {
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	f = math.Trunc(f)
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= 0x1p63 || f < -0x1p63 {
		return 0, errors.Wrapf(errCoercion, "%q overflows int64", s)
	}
	return int64(f), nil
}

func parseFloat(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Wrapf(errCoercion, "%q is not numeric", s)
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(errCoercion, "%q is not a date", s)
	}
	return t, nil
}

func parseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(types.DateTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(errCoercion, "%q is not a datetime", s)
	}
	return t, nil
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// convert reads the model's raw text as the field's target representation.
// Unparseable dates fall back to a synthesized date rather than an error.
func (g *GuidedGenerator) convert(raw string, fieldType types.FieldType) (any, error) {
	switch fieldType {
	case types.FieldNumber:
		return parseInt(raw)
	case types.FieldDecimal:
		return parseFloat(raw)
	case types.FieldBoolean:
		return parseBool(raw), nil
	case types.FieldDate:
		if t, err := parseDate(raw); err == nil {
			return t, nil
		}
		return g.fallback.Generate(types.FieldDate), nil
	case types.FieldDateTime:
		if t, err := parseDateTime(raw); err == nil {
			return t, nil
		}
		return g.fallback.Generate(types.FieldDateTime), nil
	default:
		return raw, nil
	}
}

// conform forces value into the representation of fieldType, substituting a
// random value of the right shape when it cannot be converted.
func (g *DataGenerator) conform(value any, fieldType types.FieldType) any {
	switch fieldType {
	case types.FieldString, types.FieldText:
		if s, ok := value.(string); ok {
			return s
		}
		return stringify(value)

	case types.FieldNumber:
		switch v := value.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			if n, err := parseInt(strconv.FormatFloat(v, 'f', -1, 64)); err == nil {
				return n
			}
		case string:
			if n, err := parseInt(v); err == nil {
				return n
			}
		}
		return g.Int64Range(1, 1000)

	case types.FieldDecimal:
		switch v := value.(type) {
		case float64:
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				return v
			}
		case int64:
			return float64(v)
		case int:
			return float64(v)
		case string:
			if f, err := parseFloat(v); err == nil {
				return f
			}
		}
		return g.generateDecimal(2)

	case types.FieldBoolean:
		switch v := value.(type) {
		case bool:
			return v
		case string:
			return parseBool(v)
		case int64:
			return v != 0
		case int:
			return v != 0
		case float64:
			return v != 0
		}
		return g.fake.Bool()

	case types.FieldDate:
		switch v := value.(type) {
		case time.Time:
			return truncateToDate(v)
		case string:
			if t, err := parseDate(v); err == nil {
				return t
			}
		}
		return g.generateDate()

	case types.FieldDateTime:
		switch v := value.(type) {
		case time.Time:
			return v
		case string:
			if t, err := parseDateTime(v); err == nil {
				return t
			}
		}
		return g.generateTimestamp()

	case types.FieldEmail:
		if s, ok := value.(string); ok && strings.Contains(s, "@") {
			return s
		}
		return g.generateEmail()

	case types.FieldURL:
		if s, ok := value.(string); ok && (strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")) {
			return s
		}
		return g.generateURL()

	case types.FieldChoice:
		if s, ok := value.(string); ok {
			return s
		}
		return g.Choice(nil)

	case types.FieldList:
		if s, ok := value.(string); ok {
			var words []string
			if err := json.Unmarshal([]byte(s), &words); err == nil && len(words) > 0 {
				return s
			}
		}
		return g.List()

	default:
		return stringify(value)
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format(types.DateTimeLayout)
	default:
		return fmt.Sprint(v)
	}
}
