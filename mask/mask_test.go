package mask

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanmask/filter"
	"chanmask/scan"
)

func TestFromFrame(t *testing.T) {
	start := time.Now()
	end := start.Add(5 * time.Second)
	f := scan.Frame[float64]{
		Identifier: "run-1",
		Source:     "csv",
		Channels:   4,
		FreqLow:    0,
		FreqHigh:   4000,
		Raw:        []float64{0.5, 2, 3, 4, 0.5, 2, 3, 4},
		Start:      start,
		End:        end,
	}
	eval := &filter.Evaluation{
		Profile:   []float64{0.5, 2, 3, 4},
		Median:    2.5,
		Threshold: 1.25,
		Mask:      []bool{true, false, false, false},
	}

	results := FromFrame(f, "tsys", eval)
	require.Len(t, results, 4)

	first := results[0]
	assert.Equal(t, "run-1", first.Identifier)
	assert.Equal(t, "csv", first.Source)
	assert.Equal(t, "tsys", first.Filter)
	assert.Equal(t, 0, first.Channel)
	assert.Equal(t, int64(0), first.FreqLow)
	assert.Equal(t, int64(1000), first.FreqHigh)
	assert.Equal(t, 0.5, first.Power)
	assert.Equal(t, 2.5, first.Median)
	assert.Equal(t, 1.25, first.Threshold)
	assert.True(t, first.Flagged)
	assert.Equal(t, int64(2), first.SampleCount)
	assert.Equal(t, start, first.Start)
	assert.Equal(t, end, first.End)

	for c, r := range results[1:] {
		assert.Equal(t, c+1, r.Channel)
		assert.False(t, r.Flagged)
	}
}
