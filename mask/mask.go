// Package mask defines the per-channel result rows produced by running a
// filter over a frame, the currency between masking and export.
package mask

import (
	"time"

	"chanmask/filter"
	"chanmask/scan"
	"chanmask/spectra"
)

// Result is the outcome of one filter decision for one frequency channel of
// one frame.
type Result struct {
	// Metadata
	Identifier string
	Source     string
	Filter     string

	// Channel Data
	Channel   int
	FreqLow   int64
	FreqHigh  int64
	Power     float64
	Median    float64
	Threshold float64
	Flagged   bool

	SampleCount int64
	Start       time.Time
	End         time.Time
}

// FromFrame expands a per-channel evaluation of a frame into one Result row
// per channel.
func FromFrame[T spectra.Sample](f scan.Frame[T], filterName string, eval *filter.Evaluation) []Result {
	var samples int64
	if f.Channels > 0 {
		samples = int64(len(f.Raw) / f.Channels)
	}

	results := make([]Result, 0, len(eval.Mask))
	for c, flagged := range eval.Mask {
		low, high := scan.ChannelBand(f.FreqLow, f.FreqHigh, len(eval.Mask), c)
		results = append(results, Result{
			Identifier:  f.Identifier,
			Source:      f.Source,
			Filter:      filterName,
			Channel:     c,
			FreqLow:     low,
			FreqHigh:    high,
			Power:       eval.Profile[c],
			Median:      eval.Median,
			Threshold:   eval.Threshold,
			Flagged:     flagged,
			SampleCount: samples,
			Start:       f.Start,
			End:         f.End,
		})
	}
	return results
}
