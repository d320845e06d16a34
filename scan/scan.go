// Package scan defines the frame currency of the masking pipeline and the
// source interface raw spectra are read through.
package scan

import (
	"time"

	"chanmask/spectra"
)

// Frame is one integration block of raw spectral data: a number of
// consecutive spectra of Channels channels each, channel-minor within every
// spectrum.
type Frame[T spectra.Sample] struct {
	// Metadata
	Identifier string
	Source     string

	// Spectral Data
	Channels int
	FreqLow  int64
	FreqHigh int64
	Raw      []T
	Start    time.Time
	End      time.Time
}

// Spectra reinterprets the frame's raw buffer as a (samples, channels) view
// without copying it.
func (f *Frame[T]) Spectra() (spectra.View[T], error) {
	return spectra.New(f.Raw, f.Channels)
}

type Source[T spectra.Sample] interface {
	Name() string
	Scan(opts *Options, frames chan<- Frame[T]) error
}

type Options struct {
	// Channels is the number of frequency channels per spectrum.
	Channels int
	// FrameSamples is the number of spectra collected into one frame.
	FrameSamples int

	// FreqLow is the frequency covered by the first channel in Hz.
	FreqLow int64
	// FreqHigh is the frequency covered by the last channel in Hz.
	FreqHigh int64
}

// ChannelBand calculates the lowest and highest frequencies covered by a channel.
func ChannelBand(freqLow, freqHigh int64, channels, c int) (int64, int64) {
	if channels <= 0 {
		return freqLow, freqHigh
	}
	width := (freqHigh - freqLow) / int64(channels)
	low := freqLow + int64(c)*width
	high := low + width
	if high > freqHigh {
		high = freqHigh
	}
	return low, high
}
