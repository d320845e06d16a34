package spectra

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShape(t *testing.T) {
	buf := make([]uint16, 2048*16)
	v, err := New(buf, 2048)
	require.NoError(t, err)
	assert.Equal(t, 16, v.Samples())
	assert.Equal(t, 2048, v.Channels())
}

func TestNewRejectsBadShapes(t *testing.T) {
	buf := []float64{1, 2, 3, 4, 5}

	_, err := New(buf, 4)
	require.ErrorIs(t, err, ErrShape)

	_, err = New(buf, 0)
	require.ErrorIs(t, err, ErrShape)

	_, err = New(buf, -1)
	require.ErrorIs(t, err, ErrShape)
}

func TestViewRoundTrip(t *testing.T) {
	buf := make([]int32, 24)
	for i := range buf {
		buf[i] = int32(i)
	}
	for _, channels := range []int{1, 2, 3, 4, 6, 8, 12, 24} {
		v, err := New(buf, channels)
		require.NoError(t, err)
		require.Equal(t, len(buf)/channels, v.Samples())
		for s := 0; s < v.Samples(); s++ {
			for c := 0; c < v.Channels(); c++ {
				assert.Equal(t, buf[s*channels+c], v.At(s, c))
			}
		}
	}
}

func TestBandpass(t *testing.T) {
	raw := []uint16{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}
	v, err := New(raw, 4)
	require.NoError(t, err)

	bp, err := Bandpass(v)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, bp)
}

func TestBandpassSingleSample(t *testing.T) {
	raw := []float64{4.5, 0.25, 17, 3}
	v, err := New(raw, 4)
	require.NoError(t, err)

	bp, err := Bandpass(v)
	require.NoError(t, err)
	assert.Equal(t, raw, bp)
}

func TestBandpassFractionalMean(t *testing.T) {
	// Integer inputs must still produce fractional means.
	raw := []uint8{1, 2, 2, 3}
	v, err := New(raw, 2)
	require.NoError(t, err)

	bp, err := Bandpass(v)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, bp)
}

func TestBandpassNoIntegerOverflow(t *testing.T) {
	// 1000 full-scale uint8 samples per channel sum well past the element
	// type's range; the float64 accumulator must not wrap.
	raw := make([]uint8, 1000*2)
	for i := range raw {
		raw[i] = 255
	}
	v, err := New(raw, 2)
	require.NoError(t, err)

	bp, err := Bandpass(v)
	require.NoError(t, err)
	assert.Equal(t, []float64{255, 255}, bp)
}

func TestBandpassRowPermutationInvariant(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	b := []float64{9, 10, 11, 12, 1, 2, 3, 4, 5, 6, 7, 8}

	va, err := New(a, 4)
	require.NoError(t, err)
	vb, err := New(b, 4)
	require.NoError(t, err)

	bpa, err := Bandpass(va)
	require.NoError(t, err)
	bpb, err := Bandpass(vb)
	require.NoError(t, err)
	assert.Equal(t, bpa, bpb)
}

func TestBandpassColumnPermutation(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	reversed := []float64{4, 3, 2, 1, 8, 7, 6, 5}

	va, err := New(a, 4)
	require.NoError(t, err)
	vr, err := New(reversed, 4)
	require.NoError(t, err)

	bpa, err := Bandpass(va)
	require.NoError(t, err)
	bpr, err := Bandpass(vr)
	require.NoError(t, err)

	for c := range bpa {
		assert.Equal(t, bpa[c], bpr[len(bpr)-1-c])
	}
}

func TestBandpassEmpty(t *testing.T) {
	v, err := New([]uint16{}, 8)
	require.NoError(t, err)

	_, err = Bandpass(v)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestBandpassParallelMatches(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	raw := make([]float64, 16*31)
	for i := range raw {
		raw[i] = rnd.Float64() * 100
	}
	v, err := New(raw, 31)
	require.NoError(t, err)

	want, err := Bandpass(v)
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 2, 4, 7, 31, 100} {
		got, err := BandpassParallel(v, workers)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestBandpassParallelEmpty(t *testing.T) {
	v, err := New([]float64{}, 4)
	require.NoError(t, err)

	_, err = BandpassParallel(v, 4)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestMedianOdd(t *testing.T) {
	m, err := Median([]float64{7, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, m)
}

func TestMedianEvenMidpoint(t *testing.T) {
	m, err := Median([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2.5, m)
}

func TestMedianEmpty(t *testing.T) {
	_, err := Median(nil)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	profile := []float64{4, 1, 3, 2}
	_, err := Median(profile)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1, 3, 2}, profile)
}
