// Package csvfile reads dynamic spectra from a CSV file with one spectrum
// per line and one column per frequency channel.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"chanmask/scan"
)

const SourceName = "csv"

type Source struct {
	Identifier string
	Path       string
}

func (s Source) Name() string {
	return SourceName
}

func (s *Source) Scan(opts *scan.Options, frames chan<- scan.Frame[float64]) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("unable to open CSV file %q: %s", s.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = opts.Channels

	var (
		raw   []float64
		rows  int
		start = time.Now()
	)
	flush := func() {
		if rows == 0 {
			return
		}
		frames <- scan.Frame[float64]{
			Identifier: s.Identifier,
			Source:     s.Name(),
			Channels:   opts.Channels,
			FreqLow:    opts.FreqLow,
			FreqHigh:   opts.FreqHigh,
			Raw:        raw,
			Start:      start,
			End:        time.Now(),
		}
		raw = nil
		rows = 0
		start = time.Now()
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			glog.Warningf("error parsing line: %s\n", err)
			continue
		}

		row := make([]float64, 0, len(record))
		ok := true
		for _, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				glog.Warningf("error parsing field %q: %s\n", field, err)
				ok = false
				break
			}
			row = append(row, v)
		}
		if !ok {
			continue
		}

		raw = append(raw, row...)
		rows++
		if rows >= opts.FrameSamples {
			flush()
		}
	}
	flush()

	return nil
}
