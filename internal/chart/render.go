package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/multierr"

	"github.com/KaramelBytes/estatelens-cli/internal/utils"
)

// Format selects the image encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ErrNoRows is returned when there is nothing to draw.
var ErrNoRows = errors.New("no chart rows")

// Options controls chart rendering.
type Options struct {
	Width  int
	Height int
	Format Format
}

// DefaultOptions sizes a chart for a half-width panel.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 320, Format: PNG}
}

var (
	priceColor  = drawing.ColorFromHex("8884d8")
	demandColor = drawing.ColorFromHex("82ca9d")
)

// ParseFormat accepts "png" or "svg" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "svg":
		return SVG, nil
	}
	return "", fmt.Errorf("unsupported chart format: %s (use png or svg)", s)
}

func (o Options) provider() gochart.RendererProvider {
	if o.Format == SVG {
		return gochart.SVG
	}
	return gochart.PNG
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Format == "" {
		o.Format = d.Format
	}
	return o
}

// RenderPrice draws the price trend line for one location.
func RenderPrice(w io.Writer, location string, rows []ChartRow, opt Options) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	opt = opt.normalized()
	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	ticks := make([]gochart.Tick, len(rows))
	for i, r := range rows {
		// positional x keeps the received year order
		xs[i] = float64(i + 1)
		ys[i] = r.Price
		ticks[i] = gochart.Tick{Value: xs[i], Label: r.Year}
	}
	// go-chart takes the x range from the ticks and needs two distinct x values
	lo, hi := 0.5, float64(len(rows))+0.5
	if len(rows) == 1 {
		xs = append(xs, xs[0]+0.5)
		ys = append(ys, ys[0])
		ticks = append([]gochart.Tick{{Value: lo}}, append(ticks, gochart.Tick{Value: hi})...)
	}
	ch := gochart.Chart{
		Title:      location + " - Price Trends",
		Width:      opt.Width,
		Height:     opt.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 24}},
		XAxis: gochart.XAxis{
			Name:  "Year",
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{Name: "₹/sqft", Range: valueRange(ys)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Avg Price (₹/sqft)",
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeWidth: 2,
					StrokeColor: priceColor,
					DotWidth:    4,
					DotColor:    priceColor,
				},
			},
		},
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	if err := ch.Render(opt.provider(), w); err != nil {
		return fmt.Errorf("render price chart for %s: %w", location, err)
	}
	return nil
}

// RenderDemand draws units sold per year as bars for one location.
func RenderDemand(w io.Writer, location string, rows []ChartRow, opt Options) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	opt = opt.normalized()
	bars := make([]gochart.Value, len(rows))
	ys := make([]float64, len(rows))
	for i, r := range rows {
		bars[i] = gochart.Value{
			Label: r.Year,
			Value: r.Demand,
			Style: gochart.Style{FillColor: demandColor, StrokeColor: demandColor},
		}
		ys[i] = r.Demand
	}
	bc := gochart.BarChart{
		Title:      location + " - Demand Trends (Units Sold)",
		Width:      opt.Width,
		Height:     opt.Height,
		BarWidth:   barWidth(opt.Width, len(rows)),
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		YAxis:      gochart.YAxis{Range: valueRange(ys)},
		Bars:       bars,
	}
	if err := bc.Render(opt.provider(), w); err != nil {
		return fmt.Errorf("render demand chart for %s: %w", location, err)
	}
	return nil
}

// WriteCharts renders price and demand charts for every well-formed location
// into dir and returns the written paths. Locations carrying an error or no
// rows are skipped. A location that fails to render or write is reported in
// the returned error while the remaining locations are still written.
func WriteCharts(dir string, charts []LocationChart, opt Options) ([]string, error) {
	opt = opt.normalized()
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create charts dir: %w", err)
	}
	var (
		written []string
		errs    error
	)
	used := map[string]bool{}
	for _, c := range charts {
		if c.Err != nil || len(c.Rows) == 0 {
			continue
		}
		paths, err := writeLocation(filepath.Join(dir, uniqueSlug(used, c.Location)), c, opt)
		written = append(written, paths...)
		errs = multierr.Append(errs, err)
	}
	return written, errs
}

func writeLocation(base string, c LocationChart, opt Options) ([]string, error) {
	var written []string
	for _, kind := range []struct {
		suffix string
		render func(io.Writer, string, []ChartRow, Options) error
	}{
		{"-price", RenderPrice},
		{"-demand", RenderDemand},
	} {
		var buf bytes.Buffer
		if err := kind.render(&buf, c.Location, c.Rows, opt); err != nil {
			return written, err
		}
		path := base + kind.suffix + "." + string(opt.Format)
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return written, fmt.Errorf("write chart for %s: %w", c.Location, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// uniqueSlug numbers repeated slugs so distinct locations never share a file.
func uniqueSlug(used map[string]bool, location string) string {
	base := Slug(location)
	name := base
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	used[name] = true
	return name
}

// Slug turns a location name into a file-safe lowercase token.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "location"
	}
	return out
}

func valueRange(ys []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, y := range ys {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi * 1.1}
}

func barWidth(width, n int) int {
	if n <= 0 {
		return 40
	}
	w := width / (n * 2)
	if w < 10 {
		w = 10
	}
	if w > 80 {
		w = 80
	}
	return w
}
