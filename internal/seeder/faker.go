package seeder

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Rana718/datagen/internal/types"
	"github.com/brianvoe/gofakeit/v6"
)

// DataGenerator produces plausible values without any external calls. It is safe
// for concurrent use.
type DataGenerator struct {
	fake    *gofakeit.Faker
	counter atomic.Int64
	now     func() time.Time
}

// NewDataGenerator returns an unseeded generator.
func NewDataGenerator() *DataGenerator {
	return newDataGenerator(0)
}

// NewSeededDataGenerator returns a reproducible generator. Seed 0 means unseeded.
func NewSeededDataGenerator(seed int64) *DataGenerator {
	return newDataGenerator(seed)
}

func newDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		fake: gofakeit.New(seed),
		now:  time.Now,
	}
}

// nameHeuristics is checked in order; the first substring found in the
// lower-cased field name wins regardless of the declared field type.
var nameHeuristics = []struct {
	substr string
	gen    func(g *DataGenerator) string
}{
	{"name", (*DataGenerator).generateName},
	{"email", (*DataGenerator).generateEmail},
	{"phone", (*DataGenerator).generatePhone},
	{"address", (*DataGenerator).generateAddress},
	{"city", (*DataGenerator).generateCity},
	{"country", (*DataGenerator).generateCountry},
	{"company", (*DataGenerator).generateCompany},
}

var fakerTypes = map[string]func(g *DataGenerator) string{
	"name":        (*DataGenerator).generateName,
	"first_name":  func(g *DataGenerator) string { return g.fake.FirstName() },
	"last_name":   func(g *DataGenerator) string { return g.fake.LastName() },
	"email":       (*DataGenerator).generateEmail,
	"phone":       (*DataGenerator).generatePhone,
	"address":     (*DataGenerator).generateAddress,
	"city":        (*DataGenerator).generateCity,
	"country":     (*DataGenerator).generateCountry,
	"company":     (*DataGenerator).generateCompany,
	"job":         func(g *DataGenerator) string { return g.fake.JobTitle() },
	"sentence":    func(g *DataGenerator) string { return g.fake.Sentence(g.fake.IntRange(6, 12)) },
	"paragraph":   func(g *DataGenerator) string { return g.generateParagraph(3, 5) },
	"uuid":        func(g *DataGenerator) string { return g.fake.UUID() },
	"credit_card": func(g *DataGenerator) string { return g.fake.CreditCardNumber(nil) },
	"ssn":         func(g *DataGenerator) string { return g.fake.SSN() },
	"color":       func(g *DataGenerator) string { return g.fake.Color() },
}

// Synthesize returns a value for the field using only its type and name.
// It never fails; unknown types yield a single word.
func (g *DataGenerator) Synthesize(fieldType types.FieldType, fieldName string) any {
	if v, ok := g.fromName(fieldName); ok {
		return v
	}
	return g.Generate(fieldType)
}

// SynthesizeField is Synthesize with the field's options applied: faker_type
// overrides, value ranges, lengths and precision.
func (g *DataGenerator) SynthesizeField(field types.FieldDefinition) any {
	opts := field.Options
	if opts.FakerType != "" {
		return g.FromFakerType(opts.FakerType)
	}
	if v, ok := g.fromName(field.Name); ok {
		return v
	}

	switch field.Type {
	case types.FieldString:
		return g.generateText(opts.MaxLengthOr(50))
	case types.FieldText:
		return g.generateParagraph(2, 5)
	case types.FieldNumber:
		lo, hi := opts.ValueRange()
		return g.Int64Range(lo, hi)
	case types.FieldDecimal:
		return g.generateDecimal(opts.DecimalPlacesOr(2))
	case types.FieldChoice:
		return g.Choice(opts.ChoicesOrDefault())
	default:
		return g.Generate(field.Type)
	}
}

// Generate dispatches on the field type alone.
func (g *DataGenerator) Generate(fieldType types.FieldType) any {
	switch fieldType {
	case types.FieldString:
		return g.generateText(50)
	case types.FieldText:
		return g.generateParagraph(1, 3)
	case types.FieldNumber:
		return g.Int64Range(1, 1000)
	case types.FieldDecimal:
		return g.generateDecimal(2)
	case types.FieldBoolean:
		return g.fake.Bool()
	case types.FieldDate:
		return g.generateDate()
	case types.FieldDateTime:
		return g.generateTimestamp()
	case types.FieldEmail:
		return g.generateEmail()
	case types.FieldURL:
		return g.generateURL()
	case types.FieldChoice:
		return g.Choice(types.DefaultChoices)
	case types.FieldList:
		return g.List()
	default:
		return g.fake.Word()
	}
}

// FromFakerType generates a value for a named faker; unknown names yield a word.
func (g *DataGenerator) FromFakerType(name string) string {
	if gen, ok := fakerTypes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return gen(g)
	}
	return g.fake.Word()
}

// Choice picks uniformly from choices, or from DefaultChoices when empty.
func (g *DataGenerator) Choice(choices []string) string {
	if len(choices) == 0 {
		choices = types.DefaultChoices
	}
	return choices[g.fake.IntRange(0, len(choices)-1)]
}

// List returns 1-5 random words encoded as a JSON array.
func (g *DataGenerator) List() string {
	words := make([]string, g.fake.IntRange(1, 5))
	for i := range words {
		words[i] = g.fake.Word()
	}
	data, _ := json.Marshal(words)
	return string(data)
}

// Int64Range returns a value in [lo, hi]. Any int64 bounds are accepted.
func (g *DataGenerator) Int64Range(lo, hi int64) int64 {
	if lo >= hi {
		return lo
	}
	span := uint64(hi) - uint64(lo)
	if span < math.MaxInt64 {
		return lo + g.fake.Rand.Int63n(int64(span)+1)
	}
	if span == math.MaxUint64 {
		return int64(g.fake.Rand.Uint64())
	}
	// span+1 is at least 2^63, so each draw is accepted with probability of at least 1/2.
	for {
		if v := g.fake.Rand.Uint64(); v <= span {
			return int64(uint64(lo) + v)
		}
	}
}

func (g *DataGenerator) fromName(fieldName string) (string, bool) {
	nameLower := strings.ToLower(fieldName)
	for _, h := range nameHeuristics {
		if strings.Contains(nameLower, h.substr) {
			return h.gen(g), true
		}
	}
	return "", false
}

func (g *DataGenerator) generateName() string { return g.fake.Name() }

func (g *DataGenerator) generateEmail() string {
	n := g.counter.Add(1)
	local := strings.ToLower(g.fake.FirstName() + "." + g.fake.LastName())
	return fmt.Sprintf("%s%d@%s", local, n, g.fake.DomainName())
}

func (g *DataGenerator) generatePhone() string { return g.fake.PhoneFormatted() }

func (g *DataGenerator) generateAddress() string {
	addr := g.fake.Address()
	return fmt.Sprintf("%s, %s, %s %s", addr.Street, addr.City, addr.State, addr.Zip)
}

func (g *DataGenerator) generateCity() string { return g.fake.City() }

func (g *DataGenerator) generateCountry() string { return g.fake.Country() }

func (g *DataGenerator) generateCompany() string { return g.fake.Company() }

func (g *DataGenerator) generateURL() string { return g.fake.URL() }

// generateText returns sentence text of at most maxChars runes.
func (g *DataGenerator) generateText(maxChars int) string {
	if maxChars <= 0 {
		maxChars = 50
	}
	text := []rune(g.fake.Sentence(g.fake.IntRange(4, 10)))
	if len(text) > maxChars {
		text = []rune(strings.TrimSpace(string(text[:maxChars])))
	}
	if len(text) == 0 {
		return g.fake.Letter()
	}
	return string(text)
}

func (g *DataGenerator) generateParagraph(minSentences, maxSentences int) string {
	sentences := make([]string, g.fake.IntRange(minSentences, maxSentences))
	for i := range sentences {
		sentences[i] = g.fake.Sentence(g.fake.IntRange(5, 12))
	}
	return strings.Join(sentences, " ")
}

func (g *DataGenerator) generateDecimal(places int) float64 {
	return roundTo(g.fake.Float64Range(0, 1000), places)
}

func (g *DataGenerator) generateTimestamp() time.Time {
	now := g.now().UTC()
	return g.fake.DateRange(now.AddDate(-30, 0, 0), now).UTC().Truncate(time.Second)
}

func (g *DataGenerator) generateDate() time.Time {
	ts := g.generateTimestamp()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func roundTo(v float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
