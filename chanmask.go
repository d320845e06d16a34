package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"chanmask/csvfile"
	"chanmask/export"
	"chanmask/filter"
	"chanmask/mask"
	"chanmask/rawfile"
	"chanmask/scan"
	"chanmask/spectra"

	// Blind import support for sqlite3 used by sqlite.go.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	identifier   = flag.String("id", "", "unique identifier of source instance (defaults to a random UUID)")
	input        = flag.String("input", "", "path of the raw spectra file to read")
	format       = flag.String("format", "", "input format (one of: csv, raw)")
	channels     = flag.Int("channels", 2048, "number of frequency channels per spectrum")
	frameSamples = flag.Int("frameSamples", 256, "number of spectra to aggregate per frame")
	lowFreq      = flag.Int64("lowFreq", 400000000, "lower frequency boundary in Hz")
	highFreq     = flag.Int64("highFreq", 450000000, "upper frequency boundary in Hz")
	tolerance    = flag.Float64("tolerance", 0.2, "fraction of the median bandpass power below which a channel is flagged")
	workers      = flag.Int("workers", 1, "number of goroutines to shard the bandpass reduction over")
	lowChannel   = flag.Int("lowChannel", 0, "lowest channel index to keep when scrubbing")
	highChannel  = flag.Int("highChannel", -1, "highest channel index to keep when scrubbing (negative disables the range filter)")
	scrubOut     = flag.String("scrubOut", "", "write filtered spectra (flagged channels zeroed) as CSV to this file instead of exporting mask results")
	output       = flag.String("output", "", "Export mechanism to use (one of: csv, sqlite, mysql, server)")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/chanmask", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "chanmask", "Name of the DB to use.")

	// Chanmask Server
	chanmaskServer        = flag.String("chanmaskServer", "https://localhost:8443", "URL scheme, address and port of the chanmask server.")
	chanmaskServerResults = flag.Int("chanmaskServerResults", 0, "Defines how many results should be sent to the server at once.")
)

func main() {
	ctx := context.Background()
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	if *identifier == "" {
		*identifier = uuid.NewString()
	}

	opts := &scan.Options{
		Channels:     *channels,
		FrameSamples: *frameSamples,
		FreqLow:      *lowFreq,
		FreqHigh:     *highFreq,
	}

	if *scrubOut != "" {
		switch strings.ToLower(*format) {
		case csvfile.SourceName:
			runScrub[float64](&csvfile.Source{Identifier: *identifier, Path: *input}, opts, *scrubOut)
		case rawfile.SourceName:
			runScrub[uint16](&rawfile.Source{Identifier: *identifier, Path: *input}, opts, *scrubOut)
		default:
			glog.Exitf("%q is not a supported input format, pick one of: csv, raw", *format)
		}
		glog.Flush()
		return
	}

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "csv":
		exporter = &export.CSV{}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		exporter = &export.SQLite{
			DB: db,
		}
	case "mysql":
		pass, err := os.ReadFile(*mysqlPasswordFile)
		if err != nil {
			glog.Exitf("unable to read MySQL password file %q: %s\n", *mysqlPasswordFile, err)
		}
		cfg := mysql.Config{
			User:   *mysqlUser,
			Passwd: strings.TrimSpace(string(pass)),
			Net:    "tcp",
			Addr:   *mysqlServer,
			DBName: *mysqlDBName,
		}
		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		exporter = &export.MySQL{
			DB: db,
		}
	case "server":
		exporter = &export.ChanmaskServer{
			Server:            *chanmaskServer,
			SendResultsAmount: *chanmaskServerResults,
		}
	default:
		glog.Exitf("%q is not a supported export method, pick one of: csv, sqlite, mysql, server", *output)
	}

	// Run
	switch strings.ToLower(*format) {
	case csvfile.SourceName:
		runMask[float64](ctx, &csvfile.Source{Identifier: *identifier, Path: *input}, opts, exporter)
	case rawfile.SourceName:
		runMask[uint16](ctx, &rawfile.Source{Identifier: *identifier, Path: *input}, opts, exporter)
	default:
		glog.Exitf("%q is not a supported input format, pick one of: csv, raw", *format)
	}

	glog.Flush()
}

func runMask[T spectra.Sample](ctx context.Context, src scan.Source[T], opts *scan.Options, exporter export.Exporter) {
	frames := make(chan scan.Frame[T])
	go func() {
		defer close(frames)
		if err := src.Scan(opts, frames); err != nil {
			glog.Fatal(err)
		}
	}()

	results := make(chan mask.Result, 1000)
	go func() {
		defer close(results)
		tsys := &filter.Tsys[T]{Tolerance: *tolerance, Workers: *workers}
		for f := range frames {
			view, err := f.Spectra()
			if err != nil {
				glog.Warningf("skipping frame: %s\n", err)
				continue
			}
			eval, err := tsys.Evaluate(view)
			if err != nil {
				glog.Warningf("unable to mask frame: %s\n", err)
				continue
			}
			glog.V(2).Infof("frame %s: %d spectra, mean power %.3f, median %.3f, %d of %d channels flagged",
				f.Identifier, view.Samples(), stat.Mean(eval.Profile, nil), eval.Median, countFlagged(eval.Mask), len(eval.Mask))
			for _, r := range mask.FromFrame(f, tsys.Name(), eval) {
				results <- r
			}
		}
	}()

	if err := exporter.Write(ctx, results); err != nil {
		glog.Fatal(err)
	}
}

func runScrub[T spectra.Sample](src scan.Source[T], opts *scan.Options, outPath string) {
	frames := make(chan scan.Frame[T])
	go func() {
		defer close(frames)
		if err := src.Scan(opts, frames); err != nil {
			glog.Fatal(err)
		}
	}()

	filtered := make(chan scan.Frame[T])
	go func() {
		defer close(filtered)
		if err := filter.Apply(frames, filtered, buildFilters[T]()); err != nil {
			glog.Fatal(err)
		}
	}()

	f, err := os.Create(outPath)
	if err != nil {
		glog.Exitf("unable to create scrub output file %q: %s", outPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for fr := range filtered {
		view, err := fr.Spectra()
		if err != nil {
			glog.Warningf("skipping frame: %s\n", err)
			continue
		}
		record := make([]string, view.Channels())
		for s := 0; s < view.Samples(); s++ {
			for c := range record {
				record[c] = fmt.Sprintf("%v", view.At(s, c))
			}
			if err := w.Write(record); err != nil {
				glog.Warningf("error while writing CSV line: %s\n", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			glog.Warningf("error flushing CSV: %s\n", err)
		}
	}
}

func buildFilters[T spectra.Sample]() []filter.Filter[T] {
	filters := []filter.Filter[T]{
		&filter.Tsys[T]{Tolerance: *tolerance, Workers: *workers},
	}
	if *highChannel >= 0 {
		filters = append(filters, &filter.ChannelRange[T]{Low: *lowChannel, High: *highChannel})
	}
	return filters
}

func countFlagged(m []bool) int {
	n := 0
	for _, flagged := range m {
		if flagged {
			n++
		}
	}
	return n
}
