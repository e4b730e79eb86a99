package seeder

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Rana718/datagen/internal/llm"
	"github.com/Rana718/datagen/internal/metrics"
	"github.com/Rana718/datagen/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGuidedGeneratorRequiresClient(t *testing.T) {
	_, err := NewGuidedGenerator(nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, llm.ErrConfiguration)
}

func TestGuidedGenerateBlankDescriptionSkipsClient(t *testing.T) {
	client := constantClient("unused")
	g, err := NewGuidedGenerator(client, NewSeededDataGenerator(1))
	require.NoError(t, err)

	value := g.Generate(context.Background(), "score", types.FieldNumber, "   ")
	assert.IsType(t, int64(0), value)
	assert.Zero(t, client.calls.Load())
}

func TestGuidedGenerateStages(t *testing.T) {
	var prompts []string
	client := &countingClient{respond: func(system, user string) (string, error) {
		prompts = append(prompts, user)
		if system == analysisSystemPrompt {
			return "ages between 20 and 30", nil
		}
		return " 27 \n", nil
	}}
	g, err := NewGuidedGenerator(client, nil)
	require.NoError(t, err)

	value := g.Generate(context.Background(), "age", types.FieldNumber, "adult age")
	assert.Equal(t, int64(27), value)
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "User description: adult age")
	assert.Contains(t, prompts[1], "Analysis: ages between 20 and 30")
}

func TestGuidedGenerateGenerateFailure(t *testing.T) {
	collector := metrics.NewCollector()
	client := &countingClient{respond: func(system, _ string) (string, error) {
		if system == analysisSystemPrompt {
			return "fine", nil
		}
		return "", &llm.ServiceError{Op: "chat completion", Err: errors.New("timeout")}
	}}
	g, err := NewGuidedGenerator(client, nil, WithGuidedMetrics(collector))
	require.NoError(t, err)

	value := g.Generate(context.Background(), "born", types.FieldDate, "birthdays in 1990")
	require.IsType(t, time.Time{}, value)
	assert.EqualValues(t, 2, client.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StageFailures.WithLabelValues("generate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Fallbacks.WithLabelValues("service_error")))
}

func TestGuidedGenerateCoercion(t *testing.T) {
	tests := []struct {
		name      string
		fieldType types.FieldType
		raw       string
		check     func(t *testing.T, v any)
	}{
		{"number with separators", types.FieldNumber, "1,234.9", func(t *testing.T, v any) {
			assert.Equal(t, int64(1234), v)
		}},
		{"decimal", types.FieldDecimal, "19.99", func(t *testing.T, v any) {
			assert.Equal(t, 19.99, v)
		}},
		{"boolean keyword", types.FieldBoolean, "YES", func(t *testing.T, v any) {
			assert.Equal(t, true, v)
		}},
		{"boolean other", types.FieldBoolean, "nope", func(t *testing.T, v any) {
			assert.Equal(t, false, v)
		}},
		{"date", types.FieldDate, "2021-03-04", func(t *testing.T, v any) {
			assert.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), v)
		}},
		{"datetime", types.FieldDateTime, "2021-03-04 05:06:07", func(t *testing.T, v any) {
			assert.Equal(t, time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC), v)
		}},
		{"bad date", types.FieldDate, "next tuesday", func(t *testing.T, v any) {
			assertRepresentation(t, types.FieldDate, v)
		}},
		{"bad number", types.FieldNumber, "many", func(t *testing.T, v any) {
			require.IsType(t, int64(0), v)
			n := v.(int64)
			assert.True(t, n >= 1 && n <= 1000)
		}},
		{"number at int64 bound", types.FieldNumber, "9223372036854775807", func(t *testing.T, v any) {
			require.IsType(t, int64(0), v)
			n := v.(int64)
			assert.True(t, n >= 1 && n <= 1000)
		}},
		{"number below int64 bound", types.FieldNumber, "9223372036854774784", func(t *testing.T, v any) {
			assert.Equal(t, int64(9223372036854774784), v)
		}},
		{"number at negative bound", types.FieldNumber, "-9223372036854775808", func(t *testing.T, v any) {
			assert.Equal(t, int64(math.MinInt64), v)
		}},
		{"bad decimal", types.FieldDecimal, "NaN", func(t *testing.T, v any) {
			assert.IsType(t, float64(0), v)
		}},
		{"email without at", types.FieldEmail, "not-an-email", func(t *testing.T, v any) {
			assertRepresentation(t, types.FieldEmail, v)
			assert.NotEqual(t, "not-an-email", v)
		}},
		{"email", types.FieldEmail, "ana@example.org", func(t *testing.T, v any) {
			assert.Equal(t, "ana@example.org", v)
		}},
		{"relative url", types.FieldURL, "www.example.org", func(t *testing.T, v any) {
			assertRepresentation(t, types.FieldURL, v)
		}},
		{"list not json", types.FieldList, "red, green", func(t *testing.T, v any) {
			assertRepresentation(t, types.FieldList, v)
		}},
		{"list json", types.FieldList, `["red","green"]`, func(t *testing.T, v any) {
			assert.Equal(t, `["red","green"]`, v)
		}},
		{"text", types.FieldText, "A quiet street.", func(t *testing.T, v any) {
			assert.Equal(t, "A quiet street.", v)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGuidedGenerator(constantClient(tt.raw), NewSeededDataGenerator(5))
			require.NoError(t, err)
			tt.check(t, g.Generate(context.Background(), "value", tt.fieldType, "anything"))
		})
	}
}

func TestGuidedGenerateRecoversFromPanic(t *testing.T) {
	collector := metrics.NewCollector()
	client := llm.ClientFunc(func(context.Context, string, string) (string, error) {
		panic("client exploded")
	})
	g, err := NewGuidedGenerator(client, nil, WithGuidedMetrics(collector))
	require.NoError(t, err)

	var value any
	assert.NotPanics(t, func() {
		value = g.Generate(context.Background(), "score", types.FieldNumber, "a score")
	})
	assert.IsType(t, int64(0), value)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Fallbacks.WithLabelValues("panic")))
}

func TestGuidedGenerateHonorsCancelledContext(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, _, _ string) (string, error) {
		return "", &llm.ServiceError{Op: "chat completion", Err: ctx.Err()}
	})
	g, err := NewGuidedGenerator(client, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	value := g.Generate(ctx, "title", types.FieldString, "book titles")
	require.IsType(t, "", value)
	assert.NotEmpty(t, strings.TrimSpace(value.(string)))
}
