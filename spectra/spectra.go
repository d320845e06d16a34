// Package spectra provides a read-only two-dimensional view over dynamic
// spectra (time samples x frequency channels) and the per-channel power
// statistics computed from them.
package spectra

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Sample is the set of element types a View can be built over. Every
// permitted type supports ordering and conversion to float64, so threshold
// filters never encounter an unsupported element type at runtime.
type Sample interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

var (
	// ErrShape indicates a raw buffer whose length is incompatible with the
	// requested channel count.
	ErrShape = errors.New("buffer length is not a multiple of the channel count")

	// ErrEmptyInput indicates a reduction or statistic over zero elements.
	ErrEmptyInput = errors.New("empty input")
)

// View is a non-owning, read-only reinterpretation of a caller-owned buffer
// as a (samples, channels) grid. Subsequent frequency channels are adjacent
// in memory, so the layout is sample-major. A View is only valid as long as
// the backing buffer is; it never copies or mutates it.
type View[T Sample] struct {
	data     []T
	samples  int
	channels int
}

// New reinterprets buf as a (len(buf)/channels, channels) grid. It fails
// with ErrShape if channels is not positive or len(buf) is not evenly
// divisible by channels; partial trailing spectra are never silently
// dropped.
func New[T Sample](buf []T, channels int) (View[T], error) {
	if channels <= 0 {
		return View[T]{}, fmt.Errorf("%w: channels=%d", ErrShape, channels)
	}
	if len(buf)%channels != 0 {
		return View[T]{}, fmt.Errorf("%w: len=%d, channels=%d", ErrShape, len(buf), channels)
	}
	return View[T]{
		data:     buf,
		samples:  len(buf) / channels,
		channels: channels,
	}, nil
}

// At returns the element at time sample s and frequency channel c.
func (v View[T]) At(s, c int) T {
	return v.data[s*v.channels+c]
}

// Samples returns the number of time samples in the view.
func (v View[T]) Samples() int { return v.samples }

// Channels returns the number of frequency channels in the view.
func (v View[T]) Channels() int { return v.channels }

// Bandpass computes the mean power of each channel across the time axis.
// Sums are accumulated in float64 so narrow integer inputs neither overflow
// nor lose their fractional mean.
// This won't be super fast: the data is sample-major, so every per-channel
// sum walks the buffer with a stride of Channels().
func Bandpass[T Sample](v View[T]) ([]float64, error) {
	if v.samples == 0 {
		return nil, fmt.Errorf("bandpass: %w: view has no time samples", ErrEmptyInput)
	}
	profile := make([]float64, v.channels)
	for c := 0; c < v.channels; c++ {
		sum := 0.0
		for s := 0; s < v.samples; s++ {
			sum += float64(v.data[s*v.channels+c])
		}
		profile[c] = sum / float64(v.samples)
	}
	return profile, nil
}

// BandpassParallel computes the same profile as Bandpass with the channel
// axis sharded across the given number of goroutines. Channels are
// independent, and the group Wait is the barrier between the reduction and
// whatever statistic is computed from the profile afterwards.
func BandpassParallel[T Sample](v View[T], workers int) ([]float64, error) {
	if v.samples == 0 {
		return nil, fmt.Errorf("bandpass: %w: view has no time samples", ErrEmptyInput)
	}
	if workers < 1 {
		workers = 1
	}
	if workers > v.channels {
		workers = v.channels
	}

	profile := make([]float64, v.channels)
	chunk := (v.channels + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > v.channels {
			hi = v.channels
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for c := lo; c < hi; c++ {
				sum := 0.0
				for s := 0; s < v.samples; s++ {
					sum += float64(v.data[s*v.channels+c])
				}
				profile[c] = sum / float64(v.samples)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}
