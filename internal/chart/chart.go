// Package chart renders the two-panel price and volume figure embedded in the dashboard.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"StockDashboard/internal/calculator"
	"StockDashboard/internal/model"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	priceBlue = color.RGBA{R: 0x00, G: 0x66, B: 0xcc, A: 0xff}
	priceFill = color.NRGBA{R: 0x00, G: 0x66, B: 0xcc, A: 77}
	upGreen   = color.RGBA{G: 0x80, A: 0xff}
	downRed   = color.RGBA{R: 0xff, A: 0xff}
	upBar     = color.NRGBA{G: 0x80, A: 153}
	downBar   = color.NRGBA{R: 0xff, A: 153}
	gridGrey  = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 77}
)

// Options controls the rendered size. Width and Height are the logical size in
// the sheet; Scale multiplies the pixel density of the PNG.
type Options struct {
	Width  int
	Height int
	Scale  float64
}

// DefaultOptions is a 600x450 figure rendered at twice the pixel density.
var DefaultOptions = Options{Width: 600, Height: 450, Scale: 2}

// Render draws the price panel over the volume panel (3:1) and returns a PNG.
func Render(ticker string, bars []model.OHLCV, opts Options) ([]byte, error) {
	if len(bars) == 0 {
		return nil, errors.New("chart: no bars to plot")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("chart: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	price, err := pricePlot(strings.ToUpper(ticker), bars)
	if err != nil {
		return nil, err
	}
	volume, err := volumePlot(bars)
	if err != nil {
		return nil, err
	}

	w, h := vg.Length(opts.Width), vg.Length(opts.Height)
	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(int(math.Round(float64(vg.Inch)*opts.Scale))))
	dc := draw.New(img)
	dc.SetColor(color.White)
	dc.Fill(dc.Rectangle.Path())

	top := draw.Crop(dc, 0, 0, h/4, 0)
	bottom := draw.Crop(dc, 0, 0, 0, -h*3/4)
	price.Draw(top)
	volume.Draw(bottom)

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func pricePlot(ticker string, bars []model.OHLCV) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = ticker + " - 30 Day Price Chart"
	p.Y.Label.Text = "Price ($)"
	setXRange(p, len(bars))
	p.X.Tick.Marker = dateTicks(bars, false)

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridGrey
	grid.Horizontal.Color = gridGrey
	p.Add(grid)

	xys := make(plotter.XYs, len(bars))
	for i, b := range bars {
		xys[i] = plotter.XY{X: float64(i), Y: b.Close}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("chart: price line: %w", err)
	}
	line.Color = priceBlue
	line.Width = vg.Points(2)
	line.FillColor = priceFill
	p.Add(line)
	p.Legend.Add("Close Price", line)
	p.Legend.Top = true

	maxIdx, minIdx, err := calculator.CloseExtremes(bars)
	if err != nil {
		return nil, err
	}
	hi, err := marker(float64(maxIdx), bars[maxIdx].Close, upGreen, draw.PyramidGlyph{})
	if err != nil {
		return nil, err
	}
	lo, err := marker(float64(minIdx), bars[minIdx].Close, downRed, invertedPyramidGlyph{})
	if err != nil {
		return nil, err
	}
	p.Add(hi, lo)

	// Tight axis around the prices; the fill runs down to the axis minimum.
	minClose, maxClose := bars[minIdx].Close, bars[maxIdx].Close
	pad := (maxClose - minClose) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(maxClose)*0.01, 1)
	}
	p.Y.Min = minClose - pad
	p.Y.Max = maxClose + pad
	return p, nil
}

func marker(x, y float64, c color.Color, shape draw.GlyphDrawer) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(plotter.XYs{{X: x, Y: y}})
	if err != nil {
		return nil, fmt.Errorf("chart: marker: %w", err)
	}
	s.GlyphStyle = draw.GlyphStyle{Color: c, Radius: vg.Points(5), Shape: shape}
	return s, nil
}

func volumePlot(bars []model.OHLCV) (*plot.Plot, error) {
	p := plot.New()
	p.Y.Label.Text = "Volume"
	p.X.Label.Text = "Date"
	setXRange(p, len(bars))
	p.X.Tick.Marker = dateTicks(bars, true)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Tick.Marker = volumeTicks{}
	p.Y.Min = 0

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridGrey
	grid.Horizontal.Color = gridGrey
	p.Add(grid)

	up, down := splitVolume(bars)
	width := vg.Points(8)
	for _, set := range []struct {
		vals plotter.Values
		c    color.Color
	}{{up, upBar}, {down, downBar}} {
		bc, err := plotter.NewBarChart(set.vals, width)
		if err != nil {
			return nil, fmt.Errorf("chart: volume bars: %w", err)
		}
		bc.Color = set.c
		bc.LineStyle.Width = 0
		p.Add(bc)
	}
	return p, nil
}

// splitVolume puts each bar's volume in the up series when it closed at or
// above its open and in the down series otherwise. The other series holds 0
// at that position so both stay aligned with the date ticks.
func splitVolume(bars []model.OHLCV) (up, down plotter.Values) {
	up = make(plotter.Values, len(bars))
	down = make(plotter.Values, len(bars))
	for i, b := range bars {
		if b.Close >= b.Open {
			up[i] = b.Volume
		} else {
			down[i] = b.Volume
		}
	}
	return up, down
}

func setXRange(p *plot.Plot, n int) {
	p.X.Min = -0.5
	p.X.Max = float64(n) - 0.5
}

// dateTicks places one tick per bar. Labels are only drawn on the bottom panel.
func dateTicks(bars []model.OHLCV, labelled bool) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(bars))
	for i, b := range bars {
		ticks[i] = plot.Tick{Value: float64(i)}
		if labelled {
			ticks[i].Label = b.Time.Format("2006-01-02")
		}
	}
	return ticks
}

// volumeTicks formats volume axis labels with SI suffixes.
type volumeTicks struct{}

func (volumeTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = humanize.SIWithDigits(ticks[i].Value, 1, "")
		}
	}
	return ticks
}
