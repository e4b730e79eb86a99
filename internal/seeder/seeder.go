package seeder

import (
	"context"
	"strings"

	"github.com/Rana718/datagen/internal/metrics"
	"github.com/Rana718/datagen/internal/types"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Synthesizer turns a field list and a count into records.
type Synthesizer struct {
	fallback    *DataGenerator
	guided      *GuidedGenerator
	concurrency int
	metrics     *metrics.Collector
}

type Option func(*Synthesizer)

// WithConcurrency bounds the number of guided generations in flight. Values
// below 2 keep generation sequential.
func WithConcurrency(n int) Option {
	return func(s *Synthesizer) { s.concurrency = n }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Synthesizer) { s.metrics = c }
}

// NewSynthesizer builds a Synthesizer. guided may be nil, in which case every
// field is produced by the fallback generator.
func NewSynthesizer(fallback *DataGenerator, guided *GuidedGenerator, opts ...Option) *Synthesizer {
	if fallback == nil {
		fallback = NewDataGenerator()
	}
	s := &Synthesizer{fallback: fallback, guided: guided, concurrency: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SynthesizeRecords returns exactly count records, each holding a value for
// every field. Per-field generation problems never surface as errors.
func (s *Synthesizer) SynthesizeRecords(ctx context.Context, fields []types.FieldDefinition, count int, guidedEnabled bool) ([]types.Record, error) {
	if count < 0 {
		return nil, errors.Newf("record count must not be negative, got %d", count)
	}
	if err := checkFields(fields); err != nil {
		return nil, err
	}

	values := make([][]any, count)
	for i := range values {
		values[i] = make([]any, len(fields))
	}

	var guided [][2]int
	for i := range values {
		for j, field := range fields {
			if s.useGuided(field, guidedEnabled) {
				guided = append(guided, [2]int{i, j})
				continue
			}
			values[i][j] = s.local(field)
		}
	}

	if err := s.runGuided(ctx, fields, values, guided); err != nil {
		return nil, err
	}

	records := make([]types.Record, count)
	for i, row := range values {
		record := make(types.Record, len(fields))
		for j, field := range fields {
			record[field.Name] = row[j]
		}
		records[i] = record
	}
	s.metrics.RecordsGenerated(count)
	return records, nil
}

func (s *Synthesizer) useGuided(field types.FieldDefinition, guidedEnabled bool) bool {
	return guidedEnabled && s.guided != nil && !field.Type.IsLocal() && field.Options.HasGuidance()
}

func (s *Synthesizer) local(field types.FieldDefinition) any {
	switch field.Type {
	case types.FieldChoice:
		return s.fallback.Choice(field.Options.ChoicesOrDefault())
	case types.FieldList:
		return s.fallback.List()
	default:
		return s.fallback.SynthesizeField(field)
	}
}

func (s *Synthesizer) runGuided(ctx context.Context, fields []types.FieldDefinition, values [][]any, cells [][2]int) error {
	generate := func(ctx context.Context, cell [2]int) {
		field := fields[cell[1]]
		values[cell[0]][cell[1]] = s.guided.Generate(ctx, field.Name, field.Type, field.Options.AIDescription)
	}

	if s.concurrency < 2 {
		for _, cell := range cells {
			generate(ctx, cell)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, cell := range cells {
		cell := cell
		g.Go(func() error {
			generate(gctx, cell)
			return nil
		})
	}
	return g.Wait()
}

func checkFields(fields []types.FieldDefinition) error {
	seen := make(map[string]bool, len(fields))
	for i, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return errors.Newf("field %d has no name", i)
		}
		if seen[name] {
			return errors.Newf("duplicate field name %q", name)
		}
		seen[name] = true
	}
	return nil
}
