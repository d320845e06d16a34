package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"chanmask/mask"
)

type CSV struct {
	// Out is the destination of the CSV stream. Defaults to stdout.
	Out io.Writer
}

func (c *CSV) Write(ctx context.Context, results <-chan mask.Result) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	w := csv.NewWriter(out)
	w.Write([]string{
		"Identifier",
		"Source",
		"Filter",
		"Channel",
		"FreqLow",
		"FreqHigh",
		"Power",
		"Median",
		"Threshold",
		"Flagged",
		"SampleCount",
		"StartUnixMilli",
		"EndUnixMilli",
	})

	for r := range results {
		if err := w.Write([]string{
			r.Identifier,
			r.Source,
			r.Filter,
			fmt.Sprintf("%d", r.Channel),
			fmt.Sprintf("%d", r.FreqLow),
			fmt.Sprintf("%d", r.FreqHigh),
			fmt.Sprintf("%f", r.Power),
			fmt.Sprintf("%f", r.Median),
			fmt.Sprintf("%f", r.Threshold),
			fmt.Sprintf("%t", r.Flagged),
			fmt.Sprintf("%d", r.SampleCount),
			fmt.Sprintf("%d", r.Start.UnixMilli()),
			fmt.Sprintf("%d", r.End.UnixMilli()),
		}); err != nil {
			glog.Warningf("error while writing CSV line: %s\n", err)
		}

		w.Flush()
		if err := w.Error(); err != nil {
			glog.Warningf("error flushing CSV: %s\n", err)
		}
	}
	return nil
}
