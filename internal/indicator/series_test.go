package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const floatTolerance = 1e-9

func assertSeriesEqual(t *testing.T, want, got []float64) {
	t.Helper()
	assert.Equal(t, len(want), len(got), "series length mismatch")
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "expected NaN at index %d, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], floatTolerance, "value mismatch at index %d", i)
	}
}

func TestSMA(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		input  []float64
		period int
		want   []float64
	}{
		{
			name:   "three period over rising series",
			input:  []float64{1, 2, 3, 4, 5},
			period: 3,
			want:   []float64{nan, nan, 2, 3, 4},
		},
		{
			name:   "period longer than series stays undefined",
			input:  []float64{1, 2},
			period: 3,
			want:   []float64{nan, nan},
		},
		{
			name:   "zero period returns nil",
			input:  []float64{1, 2, 3},
			period: 0,
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertSeriesEqual(t, tt.want, SMA(tt.input, tt.period))
		})
	}
}

func TestEMA(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		input  []float64
		period int
		want   []float64
	}{
		{
			name:   "seeded with SMA then smoothed",
			input:  []float64{2, 4, 6, 8, 10},
			period: 3,
			want:   []float64{nan, nan, 4, 6, 8},
		},
		{
			name:   "leading NaNs shift the seed window",
			input:  []float64{nan, 2, 4, 6, 8, 10},
			period: 3,
			want:   []float64{nan, nan, nan, 4, 6, 8},
		},
		{
			name:   "not enough defined points",
			input:  []float64{nan, nan, 1, 2},
			period: 3,
			want:   []float64{nan, nan, nan, nan},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertSeriesEqual(t, tt.want, EMA(tt.input, tt.period))
		})
	}
}

func TestWilderRMA(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		input  []float64
		period int
		want   []float64
	}{
		{
			name:   "seeded with plain average",
			input:  []float64{3, 6, 9, 12},
			period: 3,
			want:   []float64{nan, nan, 6, 8},
		},
		{
			name:   "period one tracks the input",
			input:  []float64{5, 7, 9},
			period: 1,
			want:   []float64{5, 7, 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertSeriesEqual(t, tt.want, WilderRMA(tt.input, tt.period))
		})
	}
}

func TestDefined(t *testing.T) {
	assert.True(t, Defined(1.5))
	assert.True(t, Defined(0))
	assert.False(t, Defined(math.NaN()))
	assert.False(t, Defined(math.Inf(1)))
	assert.False(t, Defined(math.Inf(-1)))
}
