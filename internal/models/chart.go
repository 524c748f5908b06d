package models

import "time"

// Trace modes understood by the rendering surface.
const (
	TraceLinesMarkers = "lines+markers"
	TraceLinesText    = "lines+text"
)

// Chart is a rendering-agnostic chart description. Its JSON form is accepted
// directly by plotly.js as {data, layout}.
type Chart struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one line series.
type Trace struct {
	Name         string      `json:"name"`
	Mode         string      `json:"mode"`
	X            []time.Time `json:"x"`
	Y            []float64   `json:"y"`
	Text         []string    `json:"text,omitempty"`
	TextPosition string      `json:"textposition,omitempty"`
	TextFont     *Font       `json:"textfont,omitempty"`
	Line         Line        `json:"line"`
	ShowLegend   bool        `json:"showlegend"`
}

// Line styles a trace.
type Line struct {
	Color string  `json:"color"`
	Width float64 `json:"width,omitempty"`
}

// Font styles trace labels.
type Font struct {
	Color  string `json:"color"`
	Family string `json:"family"`
	Size   int    `json:"size"`
}

// Layout holds the chart-level settings.
type Layout struct {
	Title      string `json:"title,omitempty"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
	ShowLegend bool   `json:"showlegend"`
}

// Axis describes one axis. TickVals and TickText are parallel.
type Axis struct {
	Title     string      `json:"title,omitempty"`
	TickMode  string      `json:"tickmode,omitempty"`
	TickVals  []time.Time `json:"tickvals,omitempty"`
	TickText  []string    `json:"ticktext,omitempty"`
	TickAngle int         `json:"tickangle,omitempty"`
}

// Empty reports whether the chart has no traces.
func (c *Chart) Empty() bool {
	return c == nil || len(c.Data) == 0
}
