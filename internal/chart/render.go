package chart

import (
	"sync"

	"github.com/newthinker/mtfdash/internal/core"
)

// Panel identifies one chart panel of the dashboard.
type Panel string

const (
	PanelDaily  Panel = "daily"
	PanelH1     Panel = "h1"
	PanelRegime Panel = "regime"
)

// Panels lists every chart panel in page order.
var Panels = []Panel{PanelDaily, PanelH1, PanelRegime}

var panelSpecs = map[Panel]struct {
	container string
	height    int
}{
	PanelDaily:  {DailyContainer, 400},
	PanelH1:     {H1Container, 350},
	PanelRegime: {RegimeContainer, 200},
}

// Container returns the host page container of the panel.
func (p Panel) Container() string {
	return panelSpecs[p].container
}

// Regime histogram colours.
var regimeColors = map[string]string{
	core.RegimeBull:    "rgba(38, 166, 154, 0.3)",
	core.RegimeBear:    "rgba(239, 83, 80, 0.3)",
	core.RegimeNeutral: "rgba(158, 158, 158, 0.3)",
}

// RenderObserver is notified after every panel render.
type RenderObserver interface {
	ObserveChartRender(panel string)
}

// Renderer keeps at most one live chart per panel.
type Renderer struct {
	factory  *Factory
	observer RenderObserver

	mu     sync.Mutex
	charts map[Panel]Chart
}

// NewRenderer creates a renderer drawing through factory.
func NewRenderer(factory *Factory) *Renderer {
	return &Renderer{
		factory: factory,
		charts:  make(map[Panel]Chart),
	}
}

// SetObserver registers a render observer.
func (r *Renderer) SetObserver(o RenderObserver) {
	r.observer = o
}

// Chart returns the live chart of a panel, or nil when the panel is empty.
func (r *Renderer) Chart(p Panel) Chart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.charts[p]
}

// Clear destroys the panel's chart and leaves it empty.
func (r *Renderer) Clear(p Panel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked(p)
}

func (r *Renderer) clearLocked(p Panel) {
	if c := r.charts[p]; c != nil {
		c.Remove()
	}
	delete(r.charts, p)
}

// begin destroys the panel's previous chart and creates a fresh one.
// Must be called with r.mu held.
func (r *Renderer) begin(p Panel) (Chart, error) {
	r.clearLocked(p)

	spec := panelSpecs[p]
	c, err := r.factory.CreateChart(spec.container, Options{"height": spec.height})
	if err != nil {
		return nil, err
	}
	r.charts[p] = c
	return c, nil
}

func (r *Renderer) finish(p Panel, c Chart) {
	c.FitContent()
	if r.observer != nil {
		r.observer.ObserveChartRender(string(p))
	}
}

// RenderDaily draws daily candles with EMA and ATR overlays and trade markers.
func (r *Renderer) RenderDaily(data *core.DailyChart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.begin(PanelDaily)
	if err != nil {
		return err
	}
	if data == nil {
		data = &core.DailyChart{}
	}

	candles := CreateCandlestickSeries(c, nil)
	candles.SetData(data.Bars)

	overlays := []struct {
		points []core.Point
		opts   Options
	}{
		{data.EMA20, Options{"color": "#2962FF", "lineWidth": 2, "title": "EMA 20"}},
		{data.EMA50, Options{"color": "#FF6D00", "lineWidth": 2, "title": "EMA 50"}},
		{data.ATRUpper, Options{"color": "rgba(239, 83, 80, 0.5)", "lineWidth": 1, "lineStyle": LineStyleDashed, "title": "ATR Upper"}},
		{data.ATRLower, Options{"color": "rgba(239, 83, 80, 0.5)", "lineWidth": 1, "lineStyle": LineStyleDashed, "title": "ATR Lower"}},
	}
	for _, o := range overlays {
		if len(o.points) == 0 {
			continue
		}
		CreateLineSeries(c, o.opts).SetData(o.points)
	}

	if len(data.Markers) > 0 {
		candles.SetMarkers(toMarkers(data.Markers))
	}

	r.finish(PanelDaily, c)
	return nil
}

// RenderHourly draws H1 candles with RSI and RVOL on their own scales.
func (r *Renderer) RenderHourly(data *core.HourlyChart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.begin(PanelH1)
	if err != nil {
		return err
	}
	if data == nil {
		data = &core.HourlyChart{}
	}

	candles := CreateCandlestickSeries(c, nil)
	candles.SetData(data.Bars)

	if len(data.RSI) > 0 {
		rsi := CreateLineSeries(c, Options{
			"color":        "#9C27B0",
			"lineWidth":    2,
			"title":        "RSI",
			"priceScaleId": "rsi",
		})
		c.ApplyPriceScaleOptions("rsi", Options{
			"scaleMargins": map[string]any{"top": 0.8, "bottom": 0},
		})
		rsi.SetData(data.RSI)
	}

	if len(data.RVOL) > 0 {
		rvol := CreateLineSeries(c, Options{
			"color":        "#00BCD4",
			"lineWidth":    2,
			"title":        "RVOL",
			"priceScaleId": "rvol",
		})
		c.ApplyPriceScaleOptions("rvol", Options{
			"scaleMargins": map[string]any{"top": 0.9, "bottom": 0},
		})
		rvol.SetData(data.RVOL)
	}

	if len(data.Markers) > 0 {
		candles.SetMarkers(toMarkers(data.Markers))
	}

	r.finish(PanelH1, c)
	return nil
}

// RenderRegime draws the regime timeline as a signed histogram strip.
func (r *Renderer) RenderRegime(data *core.RegimeData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.begin(PanelRegime)
	if err != nil {
		return err
	}

	if data != nil && len(data.Regimes) > 0 {
		series := CreateHistogramSeries(c, Options{
			"priceFormat": map[string]any{"type": "price", "precision": 0},
		})
		series.SetData(RegimeHistogram(data.Regimes))
	}

	r.finish(PanelRegime, c)
	return nil
}

// HistogramPoint is a coloured histogram value.
type HistogramPoint struct {
	Time  core.Time `json:"time"`
	Value float64   `json:"value"`
	Color string    `json:"color"`
}

// RegimeHistogram maps regime labels to +1 (bull), -1 (bear) or 0 with a
// translucent colour per label. Unknown labels are drawn as neutral.
func RegimeHistogram(regimes []core.RegimePoint) []HistogramPoint {
	out := make([]HistogramPoint, len(regimes))
	for i, rp := range regimes {
		var value float64
		switch rp.Regime {
		case core.RegimeBull:
			value = 1
		case core.RegimeBear:
			value = -1
		}
		color, ok := regimeColors[rp.Regime]
		if !ok {
			color = regimeColors[core.RegimeNeutral]
		}
		out[i] = HistogramPoint{Time: rp.Time, Value: value, Color: color}
	}
	return out
}

func toMarkers(in []core.Marker) []Marker {
	out := make([]Marker, len(in))
	for i, m := range in {
		out[i] = Marker{
			Time:     m.Time,
			Position: m.Position,
			Color:    m.Color,
			Shape:    m.Shape,
			Text:     m.Text,
		}
	}
	return out
}
