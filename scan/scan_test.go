package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanmask/spectra"
)

func TestChannelBand(t *testing.T) {
	low, high := ChannelBand(0, 4000, 4, 0)
	assert.Equal(t, int64(0), low)
	assert.Equal(t, int64(1000), high)

	low, high = ChannelBand(0, 4000, 4, 3)
	assert.Equal(t, int64(3000), low)
	assert.Equal(t, int64(4000), high)
}

func TestChannelBandClampsToUpperBound(t *testing.T) {
	// 1000 Hz over 3 channels leaves a remainder; the last channel must not
	// extend past the band.
	low, high := ChannelBand(0, 1000, 3, 2)
	assert.Equal(t, int64(666), low)
	assert.Equal(t, int64(999), high)

	_, high = ChannelBand(0, 1000, 1, 0)
	assert.Equal(t, int64(1000), high)
}

func TestFrameSpectra(t *testing.T) {
	f := Frame[uint16]{
		Channels: 4,
		Raw:      []uint16{1, 2, 3, 4, 5, 6, 7, 8},
	}
	v, err := f.Spectra()
	require.NoError(t, err)
	assert.Equal(t, 2, v.Samples())
	assert.Equal(t, uint16(6), v.At(1, 1))
}

func TestFrameSpectraShapeMismatch(t *testing.T) {
	f := Frame[uint16]{
		Channels: 4,
		Raw:      []uint16{1, 2, 3},
	}
	_, err := f.Spectra()
	require.ErrorIs(t, err, spectra.ErrShape)
}
