package trend

import (
	"fmt"
	"time"

	"github.com/rewired-gh/bodyweight-dash/internal/logger"
	"github.com/rewired-gh/bodyweight-dash/internal/models"
)

// Default styling.
const (
	DefaultTitleFormat = "Body Weight per Month for %s"
	DefaultXAxisTitle  = "Date"
	DefaultYAxisTitle  = "Weight (lbs)"
	DefaultSegmentDays = 30

	dailyTraceName   = "Daily Avg Weight"
	monthlyTraceName = "Monthly Avg Weight"
	dailyColor       = "rgba(0,128,128,0.15)"
	monthlyColor     = "navy"
	monthlyWidth     = 2
	labelPosition    = "top center"
	tickLayout       = "Jan 06"
	tickAngle        = -45
)

var labelFont = models.Font{Color: "darkred", Family: "Arial", Size: 12}

// Options configures chart text and the monthly segment length.
// Zero values fall back to the defaults above.
type Options struct {
	TitleFormat string
	XAxisTitle  string
	YAxisTitle  string
	SegmentDays int
}

// Builder renders filtered views of a dataset into chart descriptions.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder, filling unset options with defaults.
func NewBuilder(opts Options) *Builder {
	if opts.TitleFormat == "" {
		opts.TitleFormat = DefaultTitleFormat
	}
	if opts.XAxisTitle == "" {
		opts.XAxisTitle = DefaultXAxisTitle
	}
	if opts.YAxisTitle == "" {
		opts.YAxisTitle = DefaultYAxisTitle
	}
	if opts.SegmentDays <= 0 {
		opts.SegmentDays = DefaultSegmentDays
	}
	return &Builder{opts: opts}
}

// Aggregate computes the daily and monthly averages visible under f.
func (b *Builder) Aggregate(ds *models.Dataset, f models.Filter) models.Aggregates {
	subset := Select(ds, f)
	return models.Aggregates{
		Filter:  f,
		Daily:   DailyAverages(subset),
		Monthly: MonthlyAverages(subset),
	}
}

// Render builds the chart for f. An unresolved filter yields a blank chart;
// a filter that matches nothing yields titled axes with no traces.
func (b *Builder) Render(ds *models.Dataset, f models.Filter) *models.Chart {
	if !f.Resolved() {
		return &models.Chart{Data: []models.Trace{}}
	}

	agg := b.Aggregate(ds, f)
	chart := &models.Chart{
		Data:   make([]models.Trace, 0, 2*len(agg.Monthly)),
		Layout: b.layout(f, agg.Monthly),
	}

	for _, segment := range PartitionByMonth(agg.Daily, agg.Monthly) {
		chart.Data = append(chart.Data, dailyTrace(segment))
	}
	for _, month := range agg.Monthly {
		chart.Data = append(chart.Data, b.monthlyTrace(month))
	}

	logger.Debug("Rendered chart for %s: %d daily points, %d months, %d traces",
		f, len(agg.Daily), len(agg.Monthly), len(chart.Data))
	return chart
}

// SegmentEnd is where the monthly segment starting at start ends.
func (b *Builder) SegmentEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, b.opts.SegmentDays)
}

func (b *Builder) layout(f models.Filter, monthly []models.MonthlyAggregate) models.Layout {
	tickVals := make([]time.Time, len(monthly))
	tickText := make([]string, len(monthly))
	for i, month := range monthly {
		tickVals[i] = month.Start
		tickText[i] = month.Start.Format(tickLayout)
	}

	return models.Layout{
		Title: fmt.Sprintf(b.opts.TitleFormat, f.DisplayTarget()),
		XAxis: models.Axis{
			Title:     b.opts.XAxisTitle,
			TickMode:  "array",
			TickVals:  tickVals,
			TickText:  tickText,
			TickAngle: tickAngle,
		},
		YAxis:      models.Axis{Title: b.opts.YAxisTitle},
		ShowLegend: false,
	}
}

func dailyTrace(segment []models.DailyAggregate) models.Trace {
	x := make([]time.Time, len(segment))
	y := make([]float64, len(segment))
	for i, d := range segment {
		x[i] = d.Date
		y[i] = d.MeanWeight
	}
	return models.Trace{
		Name:       dailyTraceName,
		Mode:       models.TraceLinesMarkers,
		X:          x,
		Y:          y,
		Line:       models.Line{Color: dailyColor},
		ShowLegend: false,
	}
}

func (b *Builder) monthlyTrace(month models.MonthlyAggregate) models.Trace {
	font := labelFont
	return models.Trace{
		Name:         monthlyTraceName,
		Mode:         models.TraceLinesText,
		X:            []time.Time{month.Start, b.SegmentEnd(month.Start)},
		Y:            []float64{month.MeanWeight, month.MeanWeight},
		Text:         []string{"", FormatWeight(month.MeanWeight)},
		TextPosition: labelPosition,
		TextFont:     &font,
		Line:         models.Line{Color: monthlyColor, Width: monthlyWidth},
		ShowLegend:   false,
	}
}

// FormatWeight formats a mean weight the way chart labels show it.
func FormatWeight(w float64) string {
	return fmt.Sprintf("%.1f", w)
}
