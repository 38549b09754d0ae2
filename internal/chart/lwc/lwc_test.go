package lwc

import (
	"encoding/json"
	"testing"

	"github.com/newthinker/mtfdash/internal/chart"
	"github.com/newthinker/mtfdash/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_RecordsCalls(t *testing.T) {
	lib := New()
	c := lib.CreateChart(chart.NewContainer(chart.DailyContainer, 800, 400), chart.Options{"height": 400})

	s := c.AddSeries(chart.Line, chart.Options{"color": "#2196F3"})
	s.SetData([]core.Point{{Time: core.DayTime("2024-01-02"), Value: 101.5}})
	s.SetMarkers([]chart.Marker{{Time: core.DayTime("2024-01-02"), Position: "belowBar", Shape: "arrowUp", Text: "BUY"}})
	c.ApplyPriceScaleOptions("volume", chart.Options{"scaleMargins": chart.Options{"top": 0.8, "bottom": 0}})
	c.ApplyOptions(chart.Options{"width": 640})
	c.FitContent()

	assert.Equal(t, chart.Line, s.Kind())

	specs := lib.Specs()
	require.Len(t, specs, 1)
	spec := specs[0]
	assert.Equal(t, chart.DailyContainer, spec.Container)
	assert.Equal(t, 400, spec.Options["height"])
	assert.Equal(t, 640, spec.Options["width"])
	assert.True(t, spec.FitContent)
	require.Len(t, spec.Series, 1)
	assert.Len(t, spec.Series[0].Markers, 1)
	assert.Contains(t, spec.PriceScales, "volume")
}

func TestLibrary_SpecJSON(t *testing.T) {
	lib := New()
	c := lib.CreateChart(chart.NewContainer(chart.H1Container, 800, 350), nil)
	c.AddSeries(chart.Candlestick, nil).SetData([]core.Bar{{Time: core.UnixTime(1704186000), Open: 1, High: 2, Low: 0.5, Close: 1.5}})

	raw, err := json.Marshal(lib.Specs())
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, chart.H1Container, decoded[0]["container"])
	assert.NotContains(t, decoded[0], "priceScales")

	series := decoded[0]["series"].([]any)[0].(map[string]any)
	assert.Equal(t, "candlestick", series["type"])
	bar := series["data"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(1704186000), bar["time"])
}

func TestLibrary_Remove(t *testing.T) {
	lib := New()
	daily := lib.CreateChart(chart.NewContainer(chart.DailyContainer, 0, 0), nil)
	lib.CreateChart(chart.NewContainer(chart.RegimeContainer, 0, 0), nil)
	assert.Equal(t, 2, lib.Live())

	daily.Remove()
	daily.Remove()
	daily.ApplyOptions(chart.Options{"width": 1})

	assert.Equal(t, 1, lib.Live())
	assert.Equal(t, 0, lib.LiveIn(chart.DailyContainer))
	assert.Equal(t, 1, lib.LiveIn(chart.RegimeContainer))
}

func TestLibrary_SpecsOrderedAndCopied(t *testing.T) {
	lib := New()
	lib.CreateChart(chart.NewContainer(chart.RegimeContainer, 0, 0), nil)
	h1 := lib.CreateChart(chart.NewContainer(chart.H1Container, 0, 0), chart.Options{"height": 350})
	lib.CreateChart(chart.NewContainer(chart.DailyContainer, 0, 0), nil)

	specs := lib.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, []string{chart.DailyContainer, chart.H1Container, chart.RegimeContainer},
		[]string{specs[0].Container, specs[1].Container, specs[2].Container})

	specs[1].Options["height"] = 1
	assert.Equal(t, 350, h1.(*Chart).Spec().Options["height"])
}
