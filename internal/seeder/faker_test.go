package seeder

import (
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/Rana718/datagen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeIsTotal(t *testing.T) {
	g := NewSeededDataGenerator(42)
	for _, ft := range types.AllFieldTypes {
		for i := 0; i < 20; i++ {
			assertRepresentation(t, ft, g.Synthesize(ft, "value"))
		}
	}

	unknown := g.Synthesize(types.FieldType("geometry"), "shape")
	require.IsType(t, "", unknown)
	assert.NotEmpty(t, unknown)
}

func TestSynthesizeNameHeuristicsOverrideType(t *testing.T) {
	g := NewSeededDataGenerator(9)

	// preserved as observed: the field name wins over the declared type
	assert.IsType(t, "", g.Synthesize(types.FieldNumber, "company_name"))
	assert.Contains(t, g.Synthesize(types.FieldString, "Work_Email"), "@")
	assert.IsType(t, "", g.Synthesize(types.FieldBoolean, "home_city"))
}

func TestSynthesizeEmailsAreDistinct(t *testing.T) {
	g := NewDataGenerator()
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				email := g.Synthesize(types.FieldEmail, "").(string)
				mu.Lock()
				seen[email] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 400)
}

func TestFromFakerType(t *testing.T) {
	g := NewSeededDataGenerator(1)
	assert.Len(t, g.FromFakerType("uuid"), 36)
	assert.Contains(t, g.FromFakerType("EMAIL"), "@")
	assert.NotEmpty(t, g.FromFakerType("does_not_exist"))
}

func TestChoiceAndList(t *testing.T) {
	g := NewSeededDataGenerator(2)
	for i := 0; i < 50; i++ {
		assert.Contains(t, types.DefaultChoices, g.Choice(nil))
		assert.Equal(t, "only", g.Choice([]string{"only"}))

		var words []string
		require.NoError(t, json.Unmarshal([]byte(g.List()), &words))
		assert.True(t, len(words) >= 1 && len(words) <= 5)
	}
}

func TestInt64Range(t *testing.T) {
	g := NewSeededDataGenerator(3)
	for i := 0; i < 200; i++ {
		v := g.Int64Range(-5, 5)
		assert.True(t, v >= -5 && v <= 5)
	}
	assert.Equal(t, int64(7), g.Int64Range(7, 7))
}

func TestInt64RangeWideBounds(t *testing.T) {
	g := NewSeededDataGenerator(11)
	tests := []struct {
		name   string
		lo, hi int64
	}{
		{"zero to max", 0, math.MaxInt64},
		{"min to max", math.MinInt64, math.MaxInt64},
		{"min to zero", math.MinInt64, 0},
		{"min to one", math.MinInt64, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				for i := 0; i < 200; i++ {
					v := g.Int64Range(tt.lo, tt.hi)
					assert.True(t, v >= tt.lo && v <= tt.hi, "%d outside [%d, %d]", v, tt.lo, tt.hi)
				}
			})
		})
	}
}

func TestSynthesizeStringFitsDefaultLength(t *testing.T) {
	g := NewSeededDataGenerator(4)
	for i := 0; i < 100; i++ {
		s := g.Synthesize(types.FieldString, "title").(string)
		assert.LessOrEqual(t, len([]rune(s)), 50)
		assert.NotEmpty(t, strings.TrimSpace(s))
	}
}
