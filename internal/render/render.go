// Package render draws a models.Chart as an SVG or PNG image with go-chart.
package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rewired-gh/bodyweight-dash/internal/models"
)

// Format is an output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// ContentType is the HTTP content type for f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatPNG {
		return chart.PNG
	}
	return chart.SVG
}

// Renderer draws charts at a fixed size.
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a Renderer for images of width x height pixels.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{width: width, height: height}
}

// Render writes c to w. Charts without traces are drawn as bare axes.
func (r *Renderer) Render(w io.Writer, c *models.Chart, format Format) error {
	ch := chart.Chart{
		Title:      c.Layout.Title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		XAxis: chart.XAxis{
			Name:      c.Layout.XAxis.Title,
			Ticks:     xTicks(c.Layout.XAxis, c.Data),
			TickStyle: chart.Style{TextRotationDegrees: float64(-c.Layout.XAxis.TickAngle)},
		},
		YAxis: chart.YAxis{
			Name: c.Layout.YAxis.Title,
		},
	}

	if c.Empty() {
		ch.Series = []chart.Series{placeholderSeries()}
		ch.XAxis.ValueFormatter = blankFormatter
		ch.YAxis.ValueFormatter = blankFormatter
		ch.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	} else {
		ch.Series = series(c.Data)
		ch.YAxis.Range = yRange(c.Data)
	}

	if err := ch.Render(format.provider(), w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// xTicks converts the axis ticks. go-chart clamps the x range to the outer
// ticks, so unlabelled ticks are added at the data extent when it reaches
// past them; otherwise a single month collapses to a zero-width range.
func xTicks(axis models.Axis, traces []models.Trace) []chart.Tick {
	if len(axis.TickVals) == 0 {
		return nil
	}
	ticks := make([]chart.Tick, 0, len(axis.TickVals)+2)
	for i, t := range axis.TickVals {
		label := ""
		if i < len(axis.TickText) {
			label = axis.TickText[i]
		}
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: label})
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Value < ticks[j].Value })

	lo, hi, ok := xExtent(traces)
	if !ok {
		return ticks
	}
	if lo < ticks[0].Value {
		ticks = append([]chart.Tick{{Value: lo}}, ticks...)
	}
	if hi > ticks[len(ticks)-1].Value {
		ticks = append(ticks, chart.Tick{Value: hi})
	}
	return ticks
}

func xExtent(traces []models.Trace) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, tr := range traces {
		for _, x := range tr.X {
			v := chart.TimeToFloat64(x)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi, !math.IsInf(lo, 0)
}

func series(traces []models.Trace) []chart.Series {
	out := make([]chart.Series, 0, len(traces)*2)
	for _, tr := range traces {
		if len(tr.X) == 0 {
			continue
		}
		color := ParseColor(tr.Line.Color)
		style := chart.Style{
			StrokeColor: color,
			StrokeWidth: tr.Line.Width,
		}
		if tr.Mode == models.TraceLinesMarkers {
			style.DotColor = color
			style.DotWidth = 3
		}
		if style.StrokeWidth == 0 {
			style.StrokeWidth = 1
		}
		out = append(out, chart.TimeSeries{
			Name:    tr.Name,
			XValues: tr.X,
			YValues: tr.Y,
			Style:   style,
		})

		if labels := annotations(tr); len(labels.Annotations) > 0 {
			out = append(out, labels)
		}
	}
	return out
}

func annotations(tr models.Trace) chart.AnnotationSeries {
	labels := chart.AnnotationSeries{Name: tr.Name + " labels"}
	if tr.TextFont != nil {
		labels.Style = chart.Style{
			FontColor:   ParseColor(tr.TextFont.Color),
			FontSize:    float64(tr.TextFont.Size),
			StrokeColor: drawing.ColorTransparent,
			FillColor:   drawing.ColorTransparent,
		}
	}
	for i, text := range tr.Text {
		if text == "" || i >= len(tr.X) || i >= len(tr.Y) {
			continue
		}
		labels.Annotations = append(labels.Annotations, chart.Value2{
			XValue: chart.TimeToFloat64(tr.X[i]),
			YValue: tr.Y[i],
			Label:  text,
		})
	}
	return labels
}

// yRange pads the data extent so flat series still get a non-zero range.
func yRange(traces []models.Trace) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, tr := range traces {
		for _, y := range tr.Y {
			lo = math.Min(lo, y)
			hi = math.Max(hi, y)
		}
	}
	if math.IsInf(lo, 0) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	pad := math.Max(1, (hi-lo)*0.1)
	return &chart.ContinuousRange{Min: math.Floor(lo - pad), Max: math.Ceil(hi + pad)}
}

// placeholderSeries gives go-chart a visible-but-transparent series so that
// an empty chart still draws its axes.
func placeholderSeries() chart.TimeSeries {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	return chart.TimeSeries{
		XValues: []time.Time{start, start.AddDate(0, 1, 0)},
		YValues: []float64{0, 0},
		Style:   chart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: 1},
	}
}

func blankFormatter(v interface{}) string {
	return ""
}
