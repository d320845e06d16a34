// Package filter turns dynamic spectra into per-channel exclusion masks.
package filter

import (
	"chanmask/scan"
	"chanmask/spectra"
)

// Filter produces one exclusion decision per frequency channel of a view,
// where true indicates the channel should be removed downstream. A mask is a
// pure function of the view contents: repeated invocations on the same data
// yield the same mask, and the view is never mutated. The returned mask is
// one-dimensional (one element per channel); consumers that need a full
// (samples, channels) grid broadcast the channel decision across the time
// axis, as Apply does.
type Filter[T spectra.Sample] interface {
	Name() string
	Mask(spectra.View[T]) ([]bool, error)
}

// Apply streams frames from input to output, zeroing every channel flagged
// by any of the filters across all time samples of the frame. The frame
// buffer is copied before modification, so upstream holders of the raw
// buffer are unaffected.
func Apply[T spectra.Sample](input <-chan scan.Frame[T], output chan<- scan.Frame[T], filters []Filter[T]) error {
	for f := range input {
		view, err := f.Spectra()
		if err != nil {
			return err
		}

		combined := make([]bool, view.Channels())
		for _, flt := range filters {
			m, err := flt.Mask(view)
			if err != nil {
				return err
			}
			for c, drop := range m {
				combined[c] = combined[c] || drop
			}
		}

		out := f
		out.Raw = make([]T, len(f.Raw))
		copy(out.Raw, f.Raw)
		for s := 0; s < view.Samples(); s++ {
			for c, drop := range combined {
				if drop {
					out.Raw[s*f.Channels+c] = 0
				}
			}
		}
		output <- out
	}
	return nil
}

// ChannelRange flags every channel outside the [Low, High] index range, e.g.
// to cut the bandpass roll-off at the edges of the digitized band.
type ChannelRange[T spectra.Sample] struct {
	Low  int
	High int
}

func (f *ChannelRange[T]) Name() string { return "channelrange" }

func (f *ChannelRange[T]) Mask(v spectra.View[T]) ([]bool, error) {
	m := make([]bool, v.Channels())
	for c := range m {
		m[c] = c < f.Low || c > f.High
	}
	return m, nil
}
