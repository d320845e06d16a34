package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanmask/scan"
)

func TestChannelRange(t *testing.T) {
	v := mustView(t, []float64{1, 2, 3, 4, 5, 6}, 6)
	f := &ChannelRange[float64]{Low: 1, High: 4}

	m, err := f.Mask(v)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, false, false, true}, m)
}

func TestApplyZeroesFlaggedChannels(t *testing.T) {
	raw := []float64{0.5, 2, 3, 4, 0.5, 2, 3, 4}
	in := make(chan scan.Frame[float64], 1)
	in <- scan.Frame[float64]{Channels: 4, Raw: raw}
	close(in)

	out := make(chan scan.Frame[float64], 1)
	err := Apply(in, out, []Filter[float64]{&Tsys[float64]{Tolerance: 0.5}})
	require.NoError(t, err)

	got := <-out
	assert.Equal(t, []float64{0, 2, 3, 4, 0, 2, 3, 4}, got.Raw)
	// The input frame's buffer is left untouched.
	assert.Equal(t, []float64{0.5, 2, 3, 4, 0.5, 2, 3, 4}, raw)
}

func TestApplyCombinesFilterMasks(t *testing.T) {
	in := make(chan scan.Frame[float64], 1)
	in <- scan.Frame[float64]{Channels: 4, Raw: []float64{0.5, 2, 3, 4}}
	close(in)

	out := make(chan scan.Frame[float64], 1)
	err := Apply(in, out, []Filter[float64]{
		&Tsys[float64]{Tolerance: 0.5},          // flags channel 0
		&ChannelRange[float64]{Low: 0, High: 2}, // flags channel 3
	})
	require.NoError(t, err)

	got := <-out
	assert.Equal(t, []float64{0, 2, 3, 0}, got.Raw)
}

func TestApplyRejectsShapeMismatch(t *testing.T) {
	in := make(chan scan.Frame[float64], 1)
	in <- scan.Frame[float64]{Channels: 4, Raw: []float64{1, 2, 3}}
	close(in)

	out := make(chan scan.Frame[float64], 1)
	err := Apply(in, out, []Filter[float64]{&Tsys[float64]{Tolerance: 0.5}})
	require.Error(t, err)
}
