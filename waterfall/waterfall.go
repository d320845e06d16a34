// Package waterfall renders channel/time waterfalls from the mask results a
// chanmask run exported into sqlite, marking flagged channels.
package waterfall

import (
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/golang/glog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/floats"
)

var (
	// Colors defining the gradient in the heatmap. The higher the index, the warmer.
	colors = map[int]color.RGBA{
		0: {0, 0, 0, 255},       // black
		1: {0, 0, 255, 255},     // blue
		2: {0, 255, 255, 255},   // cyan
		3: {0, 255, 0, 255},     // green
		4: {255, 255, 0, 255},   // yellow
		5: {255, 0, 0, 255},     // red
		6: {255, 255, 255, 255}, // white
	}

	// flagColor marks cells whose channel was flagged by the filter.
	flagColor = color.RGBA{255, 0, 255, 255} // magenta

	gridColor           = color.RGBA{0, 0, 0, 255}
	gridBackgroundColor = color.RGBA{255, 255, 255, 255}

	expSuffixLookup = map[int]string{
		0: "Hz",  // 10^0
		1: "kHz", // 10^3
		2: "MHz", // 10^6
		3: "GHz", // 10^9
		4: "THz", // 10^12
	}
)

const (
	timeFmt        = "2006-01-02T15:04:05"
	gridMarginTop  = 20  // pixels
	gridMarginLeft = 150 // pixels
	gridTickLen    = 10  // pixels
	gridMinStepX   = 100 // pixels
	gridMinStepY   = 20  // pixels
	// getChannelResolutionTmpl is the sqlite query to get the number of
	// distinct channels in the DB. This results in the maximum amount of
	// pixels in the X axis we should render. Every frame of a run emits one
	// row per channel, so the channel set is stable across a run.
	getChannelResolutionTmpl = `SELECT
		COUNT(DISTINCT(Channel))
	FROM
		chanmask
	WHERE
		Source = ?
		AND Identifier LIKE ?
		AND Filter = ?
		AND Start >= ?
		AND End <= ?;`
	// getTimeResolutionTmpl is the sqlite query to get the number of distinct
	// frame timestamps in the DB. This results in the maximum amount of
	// pixels in the Y axis we should render. All channels of a frame share
	// the frame's Start, so no per-channel disambiguation is needed.
	getTimeResolutionTmpl = `SELECT
		COUNT(DISTINCT(Start))
	FROM
		chanmask
	WHERE
		Source = ?
		AND Identifier LIKE ?
		AND Filter = ?
		AND Start >= ?
		AND End <= ?;`
	getImgDataTmpl = `SELECT
			MIN(FreqLow),
			MAX(FreqHigh),
			MAX(Power),
			MAX(Flagged),
			MIN(Start),
			MAX(End),
			TimeBucket,
			ChannelBucket
		FROM (
			SELECT
				FreqLow,
				FreqHigh,
				Power,
				Flagged,
				Start,
				End,
				NTILE (?) OVER (ORDER BY Start) TimeBucket,
				NTILE (?) OVER (ORDER BY Channel) ChannelBucket
			FROM
				chanmask
			WHERE
				Source = ?
				AND Identifier LIKE ?
				AND Filter = ?
				AND Start >= ?
				AND End <= ?
			ORDER BY
				TimeBucket ASC,
				ChannelBucket ASC
		)
		GROUP BY TimeBucket, ChannelBucket;`
)

func GetMaxImageHeight(db *sql.DB, source, identifier, filter string, startTime, endTime time.Time) (int, error) {
	statement, err := db.Prepare(getTimeResolutionTmpl)
	if err != nil {
		return 0, err
	}
	var count int
	return count, statement.QueryRow(source, identifier, filter, startTime.UnixMilli(), endTime.UnixMilli()).Scan(&count)
}

func GetMaxImageWidth(db *sql.DB, source, identifier, filter string, startTime, endTime time.Time) (int, error) {
	statement, err := db.Prepare(getChannelResolutionTmpl)
	if err != nil {
		return 0, err
	}
	var count int
	return count, statement.QueryRow(source, identifier, filter, startTime.UnixMilli(), endTime.UnixMilli()).Scan(&count)
}

// GetColor determines the color of a pixel based on a color gradient and a pixel "level".
// http://www.andrewnoske.com/wiki/Code_-_heatmaps_and_color_gradients
func GetColor(lvl uint16) color.RGBA {
	// Find the first color in the gradient where the "level" is higher than the level we're looking for.
	// Then determine how far along we are between the previous and next color in the gradient and use that
	// to calculate the color between the two.
	for i := 0; i < len(colors); i++ {
		currC := colors[i]
		currV := uint16(i * math.MaxUint16 / len(colors))
		if lvl < currV {
			prevC := colors[int(math.Max(0.0, float64(i-1)))]
			diff := uint16(math.Max(0.0, float64(i-1)))*math.MaxUint16/uint16(len(colors)) - currV
			fract := 0.0
			if diff != 0 {
				fract = float64(lvl) - float64(currV)/float64(diff)
			}
			return color.RGBA{
				uint8(float64(prevC.R-currC.R)*fract + float64(currC.R)),
				uint8(float64(prevC.G-currC.G)*fract + float64(currC.G)),
				uint8(float64(prevC.B-currC.B)*fract + float64(currC.B)),
				uint8(float64(prevC.A-currC.A)*fract + float64(currC.A)),
			}
		}
	}
	return colors[len(colors)-1]
}

func GetReadableFreq(freq int64) string {
	exp := 0
	for f := float64(freq); f > 1000; f = f / 1000.0 {
		exp += 1
	}
	suffix, ok := expSuffixLookup[exp]
	if !ok {
		return fmt.Sprintf("%d Hz", freq)
	}
	return fmt.Sprintf("%.2f %s", float64(freq)/math.Pow(1000, float64(exp)), suffix)
}

func drawTick(canvas *image.RGBA, start image.Point, length int, horizontal bool) {
	for i := 0; i <= length; i++ {
		if horizontal {
			canvas.SetRGBA(start.X+i, start.Y, gridColor)
		} else {
			canvas.SetRGBA(start.X, start.Y+i, gridColor)
		}
	}
}

func findGridStepSize(step int, horizontal bool) int {
	gridMinStep := gridMinStepY
	if horizontal {
		gridMinStep = gridMinStepX
	}
	for step > gridMinStep {
		n := step / 2
		if n < gridMinStep {
			return step
		}
		step = n
	}
	return step
}

// DrawGrid enlarges the waterfall by a margin on the top and left and draws
// labeled frequency (X) and time (Y) ticks into it.
func DrawGrid(source *image.RGBA, lowFreq, highFreq int64, startTime, endTime time.Time) *image.RGBA {
	// Enlarge existing image.
	canvas := image.NewRGBA(image.Rectangle{
		Min: image.Point{source.Bounds().Min.X, source.Bounds().Min.Y},
		Max: image.Point{source.Bounds().Max.X - 1 + gridMarginLeft, source.Bounds().Max.Y - 1 + gridMarginTop},
	})
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{gridBackgroundColor}, canvas.Bounds().Min, draw.Src)
	r := canvas.Bounds()
	r.Min.X += gridMarginLeft
	r.Min.Y += gridMarginTop
	draw.Draw(canvas, r, source, source.Bounds().Min, draw.Src)

	// Draw X ticks (frequency).
	xStep := findGridStepSize(source.Bounds().Max.X, true)
	for i := source.Bounds().Min.X; i < source.Bounds().Max.X; i += xStep {
		drawTick(canvas, image.Point{
			canvas.Bounds().Min.X + gridMarginLeft + i,
			canvas.Bounds().Min.Y + gridMarginTop - gridTickLen,
		}, gridTickLen, false)
		point := fixed.Point26_6{
			X: fixed.Int26_6((canvas.Bounds().Min.X + gridMarginLeft + i + 5) * 64),
			Y: fixed.Int26_6((canvas.Bounds().Min.Y + gridMarginTop - 2) * 64),
		}
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(gridColor),
			Face: basicfont.Face7x13,
			Dot:  point,
		}
		freq := lowFreq + ((int64(i) * (highFreq - lowFreq)) / int64(source.Bounds().Max.X))
		d.DrawString(GetReadableFreq(freq))
	}

	// Draw Y ticks (time into the run).
	yStep := findGridStepSize(source.Bounds().Max.Y, false)
	for i := source.Bounds().Min.Y; i < source.Bounds().Max.Y; i += yStep {
		drawTick(canvas, image.Point{
			canvas.Bounds().Min.X + gridMarginLeft - gridTickLen,
			canvas.Bounds().Min.Y + gridMarginTop + i,
		}, gridTickLen, true)
		timePoint := fixed.Point26_6{
			X: fixed.Int26_6((canvas.Bounds().Min.X + 5) * 64),
			Y: fixed.Int26_6((canvas.Bounds().Min.Y + gridMarginTop + i + 17) * 64),
		}
		timeDrawer := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(gridColor),
			Face: basicfont.Face7x13,
			Dot:  timePoint,
		}
		durPoint := fixed.Point26_6{
			X: fixed.Int26_6((canvas.Bounds().Min.X + 5) * 64),
			Y: fixed.Int26_6((canvas.Bounds().Min.Y + gridMarginTop + i + 5) * 64),
		}
		durDrawer := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(gridColor),
			Face: basicfont.Face7x13,
			Dot:  durPoint,
		}
		t := (int64(i) * endTime.Sub(startTime).Milliseconds()) / int64(source.Bounds().Max.Y)
		dur, _ := time.ParseDuration(fmt.Sprintf("%dms", t))
		timeDrawer.DrawString(startTime.Add(dur).Format(timeFmt))
		durDrawer.DrawString(dur.String())
	}

	return canvas
}

type FilterOptions struct {
	Source     string
	Identifier string
	Filter     string
	StartTime  time.Time
	EndTime    time.Time
}

type ImageOptions struct {
	Height int
	Width  int

	AddGrid bool
}

type RenderRequest struct {
	Filter *FilterOptions
	Image  *ImageOptions
}

type SourceMetadata struct {
	LowFreq   int64
	HighFreq  int64
	StartTime time.Time
	EndTime   time.Time
}

type RenderMetadata struct {
	ImageHeight  int
	ImageWidth   int
	FreqPerPixel float64
	SecPerPixel  float64
}

type RenderResult struct {
	Image image.Image

	SourceMeta *SourceMetadata
	ImageMeta  *RenderMetadata
}

type cell struct {
	row     int
	col     int
	power   float64
	flagged bool
}

func Render(db *sql.DB, req *RenderRequest) (*RenderResult, error) {
	maxImgHeight, err := GetMaxImageHeight(db, req.Filter.Source, req.Filter.Identifier, req.Filter.Filter, req.Filter.StartTime, req.Filter.EndTime)
	if err != nil {
		return nil, fmt.Errorf("unable to query sqlite DB to determine image height: %s", err)
	}
	switch {
	case req.Image.Height == 0:
		req.Image.Height = maxImgHeight
	case req.Image.Height > 0 && req.Image.Height > maxImgHeight:
		glog.Warningf("-imgHeight is set to %d which is more than what the data in the sqlite DB can provide. Reducing image height to %d pixels\n", req.Image.Height, maxImgHeight)
		req.Image.Height = maxImgHeight
	}
	maxImgWidth, err := GetMaxImageWidth(db, req.Filter.Source, req.Filter.Identifier, req.Filter.Filter, req.Filter.StartTime, req.Filter.EndTime)
	if err != nil {
		return nil, fmt.Errorf("unable to query sqlite DB to determine image width: %s", err)
	}
	switch {
	case req.Image.Width == 0:
		req.Image.Width = maxImgWidth
	case req.Image.Width > 0 && req.Image.Width > maxImgWidth:
		glog.Warningf("-imgWidth is set to %d which is more than what the data in the sqlite DB can provide. Reducing image width to %d pixels\n", req.Image.Width, maxImgWidth)
		req.Image.Width = maxImgWidth
	}

	statement, err := db.Prepare(getImgDataTmpl)
	if err != nil {
		return nil, err
	}
	imgData, err := statement.Query(req.Image.Height, req.Image.Width, req.Filter.Source, req.Filter.Identifier, req.Filter.Filter, req.Filter.StartTime.UnixMilli(), req.Filter.EndTime.UnixMilli())
	if err != nil {
		return nil, err
	}

	lowFreq := int64(math.MaxInt64)
	highFreq := int64(0)
	sTime := time.Now()
	var eTime time.Time

	var cells []cell
	var powers []float64
	for imgData.Next() {
		var freqLow, freqHigh int64
		var timeStart, timeEnd int64
		var power float64
		var flagged int
		var rowIdx, colIdx int
		if err := imgData.Scan(&freqLow, &freqHigh, &power, &flagged, &timeStart, &timeEnd, &rowIdx, &colIdx); err != nil {
			glog.Warningf("unable to get result from DB: %s\n", err)
			continue
		}

		start := time.Unix(0, timeStart*int64(time.Millisecond))
		if start.Before(sTime) {
			sTime = start
		}
		end := time.Unix(0, timeEnd*int64(time.Millisecond))
		if end.After(eTime) {
			eTime = end
		}

		if freqLow < lowFreq {
			lowFreq = freqLow
		}
		if freqHigh > highFreq {
			highFreq = freqHigh
		}

		cells = append(cells, cell{
			row:     rowIdx - 1, // NTILE buckets are 1-based
			col:     colIdx - 1,
			power:   power,
			flagged: flagged != 0,
		})
		powers = append(powers, power)
	}
	imgData.Close()

	// Create image canvas.
	canvas := image.NewRGBA(image.Rectangle{
		Min: image.Point{0, 0},
		Max: image.Point{req.Image.Width, req.Image.Height},
	})

	// Draw waterfall. Power levels are normalized over the full selection so
	// the gradient spans exactly the observed dynamic range; flagged channels
	// are overdrawn in a color outside the gradient.
	if len(powers) > 0 {
		minPower := floats.Min(powers)
		powerRange := floats.Max(powers) - minPower
		for _, cl := range cells {
			if cl.flagged {
				canvas.SetRGBA(cl.col, cl.row, flagColor)
				continue
			}
			lvl := uint16(0)
			if powerRange > 0 {
				lvl = uint16((cl.power - minPower) * math.MaxUint16 / powerRange)
			}
			canvas.SetRGBA(cl.col, cl.row, GetColor(lvl))
		}
	}

	// Draw grid.
	if req.Image.AddGrid {
		canvas = DrawGrid(canvas, lowFreq, highFreq, sTime, eTime)
	}

	return &RenderResult{
		Image: canvas,
		SourceMeta: &SourceMetadata{
			LowFreq:   lowFreq,
			HighFreq:  highFreq,
			StartTime: sTime,
			EndTime:   eTime,
		},
		ImageMeta: &RenderMetadata{
			ImageHeight:  req.Image.Height,
			ImageWidth:   req.Image.Width,
			FreqPerPixel: float64(highFreq-lowFreq) / float64(req.Image.Width),
			SecPerPixel:  eTime.Sub(sTime).Seconds() / float64(req.Image.Height),
		},
	}, nil
}
