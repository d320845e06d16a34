package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanmask/scan"
)

func TestScanFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectra.csv")
	content := "1,2\n3,4\n5,6\n7,8\n9,10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	src := &Source{Identifier: "test", Path: path}
	frames := make(chan scan.Frame[float64], 8)
	require.NoError(t, src.Scan(&scan.Options{Channels: 2, FrameSamples: 2}, frames))
	close(frames)

	var got []scan.Frame[float64]
	for f := range frames {
		got = append(got, f)
	}
	// Two full frames plus a final partial frame with the leftover spectrum.
	require.Len(t, got, 3)
	assert.Equal(t, []float64{1, 2, 3, 4}, got[0].Raw)
	assert.Equal(t, []float64{5, 6, 7, 8}, got[1].Raw)
	assert.Equal(t, []float64{9, 10}, got[2].Raw)
	assert.Equal(t, "test", got[0].Identifier)
	assert.Equal(t, SourceName, got[0].Source)
	assert.Equal(t, 2, got[0].Channels)
}

func TestScanSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectra.csv")
	content := "1,2\nnope,4\n5,6\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	src := &Source{Identifier: "test", Path: path}
	frames := make(chan scan.Frame[float64], 8)
	require.NoError(t, src.Scan(&scan.Options{Channels: 2, FrameSamples: 2}, frames))
	close(frames)

	got := <-frames
	assert.Equal(t, []float64{1, 2, 5, 6}, got.Raw)
}

func TestScanMissingFile(t *testing.T) {
	src := &Source{Identifier: "test", Path: "/does/not/exist.csv"}
	frames := make(chan scan.Frame[float64], 1)
	require.Error(t, src.Scan(&scan.Options{Channels: 2, FrameSamples: 2}, frames))
}
