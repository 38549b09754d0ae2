package chart_test

import (
	"errors"
	"testing"

	"github.com/newthinker/mtfdash/internal/chart"
	"github.com/newthinker/mtfdash/internal/chart/lwc"
	"github.com/newthinker/mtfdash/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer() (*chart.Renderer, *lwc.Library) {
	lib := lwc.New()
	f := chart.NewFactory(chart.DefaultSurface(), lib, nil)
	return chart.NewRenderer(f), lib
}

func bars(n int) []core.Bar {
	out := make([]core.Bar, n)
	for i := range out {
		out[i] = core.Bar{Time: core.UnixTime(int64(1700000000 + i*3600)), Open: 1, High: 2, Low: 0.5, Close: 1.5}
	}
	return out
}

func points(n int) []core.Point {
	out := make([]core.Point, n)
	for i := range out {
		out[i] = core.Point{Time: core.UnixTime(int64(1700000000 + i*3600)), Value: float64(i)}
	}
	return out
}

func specFor(t *testing.T, lib *lwc.Library, container string) lwc.ChartSpec {
	t.Helper()
	for _, s := range lib.Specs() {
		if s.Container == container {
			return s
		}
	}
	t.Fatalf("no live chart in %s", container)
	return lwc.ChartSpec{}
}

func TestRenderDaily_Full(t *testing.T) {
	r, lib := newRenderer()

	err := r.RenderDaily(&core.DailyChart{
		Bars:     bars(5),
		EMA20:    points(5),
		EMA50:    points(5),
		ATRUpper: points(5),
		ATRLower: points(5),
		Markers: []core.Marker{
			{Time: core.UnixTime(1700000000), Position: "belowBar", Color: "#26a69a", Shape: "arrowUp", Text: "BUY"},
		},
	})
	require.NoError(t, err)

	spec := specFor(t, lib, chart.DailyContainer)
	assert.Equal(t, 400, spec.Options["height"])
	assert.True(t, spec.FitContent)
	require.Len(t, spec.Series, 5)

	assert.Equal(t, chart.Candlestick, spec.Series[0].Type)
	require.Len(t, spec.Series[0].Markers, 1)
	assert.Equal(t, "BUY", spec.Series[0].Markers[0].Text)
	assert.Equal(t, "arrowUp", spec.Series[0].Markers[0].Shape)

	assert.Equal(t, "EMA 20", spec.Series[1].Options["title"])
	assert.Equal(t, "#2962FF", spec.Series[1].Options["color"])
	assert.Equal(t, "EMA 50", spec.Series[2].Options["title"])
	assert.Equal(t, "#FF6D00", spec.Series[2].Options["color"])
	assert.Equal(t, "ATR Upper", spec.Series[3].Options["title"])
	assert.Equal(t, chart.LineStyleDashed, spec.Series[3].Options["lineStyle"])
	assert.Equal(t, 1, spec.Series[4].Options["lineWidth"])
}

func TestRenderDaily_SkipsEmptyOverlays(t *testing.T) {
	r, lib := newRenderer()

	require.NoError(t, r.RenderDaily(&core.DailyChart{Bars: bars(3), EMA20: []core.Point{}}))

	spec := specFor(t, lib, chart.DailyContainer)
	require.Len(t, spec.Series, 1)
	assert.Empty(t, spec.Series[0].Markers)
}

func TestRenderDaily_TwiceLeavesOneChart(t *testing.T) {
	r, lib := newRenderer()

	require.NoError(t, r.RenderDaily(&core.DailyChart{Bars: bars(3)}))
	first := r.Chart(chart.PanelDaily)
	require.NoError(t, r.RenderDaily(&core.DailyChart{Bars: bars(4)}))

	assert.Equal(t, 1, lib.LiveIn(chart.DailyContainer))
	assert.Equal(t, 1, lib.Live())
	assert.NotSame(t, first, r.Chart(chart.PanelDaily))
	assert.Len(t, specFor(t, lib, chart.DailyContainer).Series[0].Data, 4)
}

func TestRenderDaily_NilData(t *testing.T) {
	r, lib := newRenderer()

	require.NoError(t, r.RenderDaily(nil))
	spec := specFor(t, lib, chart.DailyContainer)
	assert.Len(t, spec.Series, 1)
}

func TestRenderHourly_PriceScales(t *testing.T) {
	r, lib := newRenderer()

	require.NoError(t, r.RenderHourly(&core.HourlyChart{Bars: bars(4), RSI: points(4), RVOL: points(4)}))

	spec := specFor(t, lib, chart.H1Container)
	assert.Equal(t, 350, spec.Options["height"])
	require.Len(t, spec.Series, 3)
	assert.Equal(t, "rsi", spec.Series[1].Options["priceScaleId"])
	assert.Equal(t, "#9C27B0", spec.Series[1].Options["color"])
	assert.Equal(t, "rvol", spec.Series[2].Options["priceScaleId"])
	assert.Equal(t, "#00BCD4", spec.Series[2].Options["color"])

	require.Contains(t, spec.PriceScales, "rsi")
	assert.Equal(t, map[string]any{"top": 0.8, "bottom": 0}, spec.PriceScales["rsi"]["scaleMargins"])
	assert.Equal(t, map[string]any{"top": 0.9, "bottom": 0}, spec.PriceScales["rvol"]["scaleMargins"])
}

func TestRenderHourly_NoOverlays(t *testing.T) {
	r, lib := newRenderer()

	require.NoError(t, r.RenderHourly(&core.HourlyChart{Bars: bars(2)}))
	spec := specFor(t, lib, chart.H1Container)
	assert.Len(t, spec.Series, 1)
	assert.Empty(t, spec.PriceScales)
}

func TestRenderRegime(t *testing.T) {
	r, lib := newRenderer()

	err := r.RenderRegime(&core.RegimeData{Regimes: []core.RegimePoint{
		{Time: core.DayTime("2024-01-01"), Regime: "bull"},
		{Time: core.DayTime("2024-01-02"), Regime: "bear"},
		{Time: core.DayTime("2024-01-03"), Regime: "neutral"},
	}})
	require.NoError(t, err)

	spec := specFor(t, lib, chart.RegimeContainer)
	assert.Equal(t, 200, spec.Options["height"])
	require.Len(t, spec.Series, 1)
	assert.Equal(t, chart.Histogram, spec.Series[0].Type)
	assert.Equal(t, map[string]any{"type": "price", "precision": 0}, spec.Series[0].Options["priceFormat"])

	hist := spec.Series[0].Data.([]chart.HistogramPoint)
	assert.Equal(t, []float64{1, -1, 0}, []float64{hist[0].Value, hist[1].Value, hist[2].Value})
}

func TestRenderRegime_EmptyStillCreatesChart(t *testing.T) {
	r, lib := newRenderer()

	require.NoError(t, r.RenderRegime(&core.RegimeData{}))
	spec := specFor(t, lib, chart.RegimeContainer)
	assert.Empty(t, spec.Series)
	assert.True(t, spec.FitContent)
}

func TestRegimeHistogram_Colors(t *testing.T) {
	hist := chart.RegimeHistogram([]core.RegimePoint{
		{Regime: "bull"},
		{Regime: "bear"},
		{Regime: "neutral"},
		{Regime: "sideways"},
	})

	assert.Equal(t, "rgba(38, 166, 154, 0.3)", hist[0].Color)
	assert.Equal(t, "rgba(239, 83, 80, 0.3)", hist[1].Color)
	assert.Equal(t, "rgba(158, 158, 158, 0.3)", hist[2].Color)
	assert.Equal(t, "rgba(158, 158, 158, 0.3)", hist[3].Color)
	assert.Equal(t, 0.0, hist[3].Value)
}

func TestRenderer_Clear(t *testing.T) {
	r, lib := newRenderer()

	require.NoError(t, r.RenderDaily(&core.DailyChart{Bars: bars(1)}))
	require.NoError(t, r.RenderRegime(nil))
	r.Clear(chart.PanelDaily)

	assert.Nil(t, r.Chart(chart.PanelDaily))
	assert.Equal(t, 0, lib.LiveIn(chart.DailyContainer))
	assert.Equal(t, 1, lib.Live())
	r.Clear(chart.PanelDaily)
}

func TestRenderer_MissingContainer(t *testing.T) {
	lib := lwc.New()
	r := chart.NewRenderer(chart.NewFactory(chart.NewSurface(), lib, nil))

	err := r.RenderDaily(&core.DailyChart{Bars: bars(1)})
	assert.True(t, errors.Is(err, core.ErrContainerNotFound))
	assert.Nil(t, r.Chart(chart.PanelDaily))
}

type countingObserver map[string]int

func (c countingObserver) ObserveChartRender(panel string) { c[panel]++ }

func TestRenderer_Observer(t *testing.T) {
	r, _ := newRenderer()
	obs := countingObserver{}
	r.SetObserver(obs)

	require.NoError(t, r.RenderDaily(nil))
	require.NoError(t, r.RenderDaily(nil))
	require.NoError(t, r.RenderHourly(nil))

	assert.Equal(t, 2, obs["daily"])
	assert.Equal(t, 1, obs["h1"])
}

func TestPanel_Container(t *testing.T) {
	assert.Equal(t, "daily-chart", chart.PanelDaily.Container())
	assert.Equal(t, "h1-chart", chart.PanelH1.Container())
	assert.Equal(t, "regime-chart", chart.PanelRegime.Container())
}
