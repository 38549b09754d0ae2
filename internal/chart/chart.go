// Package chart is a thin adapter over a charting library. It owns the
// default visual styling, the panel containers of the host page and the
// per-panel render flows; the concrete library lives behind Library.
package chart

import "github.com/newthinker/mtfdash/internal/core"

// Options is a set of chart or series options in the charting library's
// vocabulary (camelCase keys, nested objects as maps).
type Options map[string]any

// Merge returns defaults overlaid with overrides. The merge is shallow: a
// key present in overrides replaces the whole default value.
func Merge(defaults, overrides Options) Options {
	out := make(Options, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// SeriesKind is the type of a series attached to a chart.
type SeriesKind string

const (
	Candlestick SeriesKind = "candlestick"
	Line        SeriesKind = "line"
	Histogram   SeriesKind = "histogram"
	Area        SeriesKind = "area"
)

// Library enum values shared with the browser.
const (
	CrosshairModeNormal = 0
	LineStyleSolid      = 0
	LineStyleDashed     = 2
)

// Marker is the shape a series marker takes in the charting layer.
type Marker struct {
	Time     core.Time `json:"time"`
	Position string    `json:"position"`
	Color    string    `json:"color"`
	Shape    string    `json:"shape"`
	Text     string    `json:"text"`
}

// Series is a typed data series attached to a chart.
type Series interface {
	Kind() SeriesKind
	SetData(data any)
	SetMarkers(markers []Marker)
}

// Chart is a live chart widget bound to one container.
type Chart interface {
	AddSeries(kind SeriesKind, opts Options) Series
	ApplyOptions(opts Options)
	ApplyPriceScaleOptions(scaleID string, opts Options)
	FitContent()
	Remove()
}

// Library creates charts inside containers.
type Library interface {
	CreateChart(container *Container, opts Options) Chart
}
