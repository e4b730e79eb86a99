package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rana718/datagen/internal/llm"
	"github.com/Rana718/datagen/internal/logger"
	"github.com/Rana718/datagen/internal/metrics"
	"github.com/Rana718/datagen/internal/types"
	"github.com/cockroachdb/errors"
)

// ErrConfiguration is returned when a guided generator is built without a client.
var ErrConfiguration = llm.ErrConfiguration

const analysisSystemPrompt = `You are an expert data analyst. Analyze the user's description for generating synthetic data.
Extract key requirements like:
- Data type and format
- Ranges (age, dates, numbers)
- Geographic locations
- Cultural context
- Specific patterns or constraints
- Examples if provided

Respond with a JSON object containing your analysis.`

const generationSystemPrompt = `You are a synthetic data generator. Generate a single realistic value based on the requirements.

Rules:
- Generate only the value, no explanations
- Follow the specified format exactly
- Consider cultural context if mentioned
- Use realistic ranges and patterns
- For %s fields, ensure the output matches the data type%s`

// GuidedGenerator asks a language model for one value per call, in three
// stages: analyze the description, generate a raw value, validate it. Every
// failure degrades to the fallback synthesizer.
type GuidedGenerator struct {
	client   llm.Client
	fallback *DataGenerator
	metrics  *metrics.Collector
	log      *slog.Logger
}

type GuidedOption func(*GuidedGenerator)

func WithGuidedMetrics(c *metrics.Collector) GuidedOption {
	return func(g *GuidedGenerator) { g.metrics = c }
}

func WithGuidedLogger(l *slog.Logger) GuidedOption {
	return func(g *GuidedGenerator) { g.log = l }
}

func NewGuidedGenerator(client llm.Client, fallback *DataGenerator, opts ...GuidedOption) (*GuidedGenerator, error) {
	if client == nil {
		return nil, errors.WithStack(ErrConfiguration)
	}
	if fallback == nil {
		fallback = NewDataGenerator()
	}
	g := &GuidedGenerator{client: client, fallback: fallback}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.Get()
	}
	return g, nil
}

type generationState struct {
	fieldName   string
	fieldType   types.FieldType
	description string
	analysis    []string
	value       any
	err         error
	done        bool
}

type stage struct {
	name string
	run  func(g *GuidedGenerator, ctx context.Context, s *generationState)
}

// pipeline runs strictly in order; a stage may mark the run done.
var pipeline = []stage{
	{"analyze", (*GuidedGenerator).analyze},
	{"generate", (*GuidedGenerator).generate},
	{"validate", (*GuidedGenerator).validate},
}

// Generate returns a value for the field. It never fails: a blank description
// skips the model entirely, and any stage failure yields a fallback value.
func (g *GuidedGenerator) Generate(ctx context.Context, fieldName string, fieldType types.FieldType, description string) (value any) {
	if strings.TrimSpace(description) == "" {
		return g.fallback.Synthesize(fieldType, fieldName)
	}

	g.metrics.GuidedAttempt()
	state := &generationState{
		fieldName:   fieldName,
		fieldType:   fieldType,
		description: description,
	}

	current := ""
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("guided generation panicked", "field", fieldName, "stage", current, "panic", r)
			g.metrics.StageFailed(current)
			g.metrics.Fallback("panic")
			value = g.fallback.Synthesize(fieldType, fieldName)
		}
	}()

	for _, st := range pipeline {
		if state.done {
			break
		}
		current = st.name
		st.run(g, ctx, state)
	}
	return state.value
}

func (g *GuidedGenerator) analyze(ctx context.Context, s *generationState) {
	user := fmt.Sprintf(`Field name: %s
Field type: %s
User description: %s

Analyze this description and provide structured analysis for generating realistic synthetic data.`,
		s.fieldName, s.fieldType, s.description)

	resp, err := g.client.Complete(ctx, analysisSystemPrompt, user)
	if err != nil {
		g.log.Warn("analyze stage failed", "field", s.fieldName, "error", err)
		g.metrics.StageFailed("analyze")
		s.err = err
		return
	}
	s.analysis = append(s.analysis, "Analysis: "+strings.TrimSpace(resp))
}

func (g *GuidedGenerator) generate(ctx context.Context, s *generationState) {
	if s.err != nil {
		g.metrics.Fallback("analyze_failed")
		s.value = g.fallback.Synthesize(s.fieldType, s.fieldName)
		s.done = true
		return
	}

	system := fmt.Sprintf(generationSystemPrompt, s.fieldType, formatHint(s.fieldType))
	user := fmt.Sprintf(`Generate a single %s value for field '%s'.
Requirements: %s
%s
Return only the generated value.`, s.fieldType, s.fieldName, s.description, strings.Join(s.analysis, "\n"))

	resp, err := g.client.Complete(ctx, system, user)
	if err != nil {
		g.log.Warn("generate stage failed", "field", s.fieldName, "error", err)
		g.metrics.StageFailed("generate")
		g.metrics.Fallback("service_error")
		s.value = g.fallback.Synthesize(s.fieldType, s.fieldName)
		return
	}

	raw := strings.TrimSpace(resp)
	value, err := g.convert(raw, s.fieldType)
	if err != nil {
		g.log.Debug("generated value rejected", "field", s.fieldName, "raw", raw, "error", err)
		g.metrics.Fallback("coercion")
		value = g.fallback.Synthesize(s.fieldType, "")
	}
	s.value = value
}

func (g *GuidedGenerator) validate(_ context.Context, s *generationState) {
	s.value = g.fallback.conform(s.value, s.fieldType)
	s.done = true
}

func formatHint(t types.FieldType) string {
	switch t {
	case types.FieldNumber:
		return "\n- Output a whole number without units"
	case types.FieldDecimal:
		return "\n- Output a decimal number without units"
	case types.FieldBoolean:
		return "\n- Output true or false"
	case types.FieldDate:
		return "\n- Output the date as YYYY-MM-DD"
	case types.FieldDateTime:
		return "\n- Output the timestamp as YYYY-MM-DD HH:MM:SS"
	case types.FieldEmail:
		return "\n- Output a full email address"
	case types.FieldURL:
		return "\n- Output an absolute URL starting with https://"
	default:
		return ""
	}
}
