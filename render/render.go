package main

/*
This application renders channel/time waterfalls for mask results
collected with chanmask.

It currently only supports results exported into sqlite.
*/

import (
	"database/sql"
	"flag"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	"chanmask/waterfall"

	// Blind import support for sqlite3 used by sqlite.go.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	sqliteFile   = flag.String("sqliteFile", "/tmp/chanmask", "File path of the sqlite DB file to use.")
	source       = flag.String("source", "csv", "Source type, e.g. csv or raw.")
	identifier   = flag.String("id", "%", "Identifier of the run to render (sqlite LIKE pattern).")
	filterName   = flag.String("filter", "tsys", "Name of the filter whose results should be rendered.")
	startTimeRaw = flag.String("startTime", "2000-01-02T15:04:05", "Select results collected after this time. Format: 2006-01-02T15:04:05")
	endTimeRaw   = flag.String("endTime", "2100-01-02T15:04:05", "Select results collected before this time. Format: 2006-01-02T15:04:05")
	imgPath      = flag.String("imgPath", "/tmp/out.jpg", "Path where the rendered image should be written to.")
	imgWidth     = flag.Int("imgWidth", 0, "Width of output image in pixels (0 uses the channel count).")
	imgHeight    = flag.Int("imgHeight", 0, "Height of output image in pixels (0 uses the frame count).")
	addGrid      = flag.Bool("grid", true, "Draw a labeled frequency/time grid around the waterfall.")
)

const timeFmt = "2006-01-02T15:04:05"

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	startTime, err := time.Parse(timeFmt, *startTimeRaw)
	if err != nil {
		glog.Fatalf("unable to parse startTime (value: %q, format: %q): %s", *startTimeRaw, timeFmt, err)
	}
	endTime, err := time.Parse(timeFmt, *endTimeRaw)
	if err != nil {
		glog.Fatalf("unable to parse endTime (value: %q, format: %q): %s", *endTimeRaw, timeFmt, err)
	}

	db, err := sql.Open("sqlite3", *sqliteFile)
	if err != nil {
		glog.Fatalf("unable to open sqlite DB %q: %s", *sqliteFile, err)
	}

	result, err := waterfall.Render(db, &waterfall.RenderRequest{
		Filter: &waterfall.FilterOptions{
			Source:     *source,
			Identifier: *identifier,
			Filter:     *filterName,
			StartTime:  startTime,
			EndTime:    endTime,
		},
		Image: &waterfall.ImageOptions{
			Height:  *imgHeight,
			Width:   *imgWidth,
			AddGrid: *addGrid,
		},
	})
	if err != nil {
		glog.Fatal(err)
	}

	fmt.Println("Selected source metadata:")
	fmt.Printf("  - Low frequency: %d Hz\n", result.SourceMeta.LowFreq)
	fmt.Printf("  - High frequency: %d Hz\n", result.SourceMeta.HighFreq)
	fmt.Printf("  - Start time: %s (%d)\n", result.SourceMeta.StartTime.Format(timeFmt), result.SourceMeta.StartTime.Unix())
	fmt.Printf("  - End time: %s (%d)\n", result.SourceMeta.EndTime.Format(timeFmt), result.SourceMeta.EndTime.Unix())
	fmt.Printf("Rendered image (%d x %d)\n", result.ImageMeta.ImageWidth, result.ImageMeta.ImageHeight)

	fmt.Printf("Writing image to %q\n", *imgPath)
	f, err := os.Create(*imgPath)
	if err != nil {
		glog.Fatalf("unable to create image file %q: %s", *imgPath, err)
	}
	defer f.Close()
	switch {
	case strings.HasSuffix(*imgPath, ".png"):
		png.Encode(f, result.Image)
	case strings.HasSuffix(*imgPath, ".jpg"):
		jpeg.Encode(f, result.Image, &jpeg.Options{Quality: jpeg.DefaultQuality})
	default:
		glog.Exitf("unsupported image suffix in %q, pick one of: .png, .jpg", *imgPath)
	}
}
