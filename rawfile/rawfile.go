// Package rawfile reads dynamic spectra from raw dumps of little-endian
// 16-bit unsigned samples, e.g. the channelized output of a digitizer,
// channel-minor within each spectrum.
package rawfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"chanmask/scan"
)

const SourceName = "raw"

type Source struct {
	Identifier string
	Path       string
}

func (s Source) Name() string {
	return SourceName
}

func (s *Source) Scan(opts *scan.Options, frames chan<- scan.Frame[uint16]) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("unable to open raw file %q: %s", s.Path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	buf := make([]byte, 2*opts.Channels*opts.FrameSamples)
	for {
		start := time.Now()
		n, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return nil
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return err
		}

		// Only complete spectra form a frame; a trailing partial spectrum is
		// dropped here so the view construction downstream never sees a
		// buffer with a shape mismatch.
		n -= n % (2 * opts.Channels)
		if n == 0 {
			return nil
		}

		raw := make([]uint16, n/2)
		for i := range raw {
			raw[i] = binary.LittleEndian.Uint16(buf[2*i:])
		}
		frames <- scan.Frame[uint16]{
			Identifier: s.Identifier,
			Source:     s.Name(),
			Channels:   opts.Channels,
			FreqLow:    opts.FreqLow,
			FreqHigh:   opts.FreqHigh,
			Raw:        raw,
			Start:      start,
			End:        time.Now(),
		}

		if err == io.ErrUnexpectedEOF {
			return nil
		}
	}
}
