package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNiceTicks(t *testing.T) {
	tests := []struct {
		name       string
		lo, hi     float64
		count      int
		wantLen    int
		first, end float64
	}{
		{"unit range", 0, 1, 10, 11, 0, 1},
		{"fractional step", 98, 102, 10, 9, 98, 102},
		{"integer step", 0, 100, 10, 11, 0, 100},
		{"wide range", 12, 987, 10, 9, 100, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticks := NiceTicks(tt.lo, tt.hi, tt.count)
			require.Len(t, ticks, tt.wantLen)
			assert.InDelta(t, tt.first, ticks[0], 1e-9)
			assert.InDelta(t, tt.end, ticks[len(ticks)-1], 1e-9)
		})
	}
}

func TestNiceTicksEdgeCases(t *testing.T) {
	assert.Equal(t, []float64{5}, NiceTicks(5, 5, 10))
	assert.Nil(t, NiceTicks(0, 1, 0))

	rev := NiceTicks(1, 0, 10)
	require.NotEmpty(t, rev)
	assert.Equal(t, 1.0, rev[0])
}

func TestPriceTicksLabels(t *testing.T) {
	ticks := PriceTicks(NewLinearScale(98, 102, 300, 0), 10)
	require.Len(t, ticks, 9)
	assert.Equal(t, "98", ticks[0].Label)
	assert.Equal(t, "98.5", ticks[1].Label)
	assert.InDelta(t, 300, ticks[0].Pos, 1e-9)
	assert.InDelta(t, 0, ticks[8].Pos, 1e-9)

	big := PriceTicks(NewLinearScale(60000, 80000, 300, 0), 10)
	require.NotEmpty(t, big)
	assert.Equal(t, "60,000", big[0].Label)
}
