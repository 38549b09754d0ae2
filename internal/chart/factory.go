package chart

import (
	"sync"

	"github.com/newthinker/mtfdash/internal/core"
	"go.uber.org/zap"
)

const defaultChartHeight = 400

// Factory creates charts with the dashboard's default styling.
type Factory struct {
	surface *Surface
	lib     Library
	logger  *zap.Logger
}

// NewFactory creates a factory drawing into surface through lib.
func NewFactory(surface *Surface, lib Library, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{surface: surface, lib: lib, logger: logger}
}

// Surface returns the containers the factory draws into.
func (f *Factory) Surface() *Surface {
	return f.surface
}

// CreateChart creates a chart inside the container with the given ID.
// Caller options win over the defaults. The chart follows the container's
// size until it is removed.
func (f *Factory) CreateChart(containerID string, opts Options) (Chart, error) {
	container, ok := f.surface.Container(containerID)
	if !ok {
		f.logger.Error("chart container not found", zap.String("container", containerID))
		return nil, core.WrapError(core.ErrContainerNotFound, nil)
	}

	width, height := container.Size()
	if height == 0 {
		height = defaultChartHeight
	}

	defaults := Options{
		"width":  width,
		"height": height,
		"layout": map[string]any{
			"background": map[string]any{"color": "#ffffff"},
			"textColor":  "#333",
		},
		"grid": map[string]any{
			"vertLines": map[string]any{"color": "#e0e0e0"},
			"horzLines": map[string]any{"color": "#e0e0e0"},
		},
		"crosshair": map[string]any{
			"mode": CrosshairModeNormal,
		},
		"rightPriceScale": map[string]any{
			"borderColor": "#cccccc",
		},
		"timeScale": map[string]any{
			"borderColor":    "#cccccc",
			"timeVisible":    true,
			"secondsVisible": false,
		},
	}

	c := f.lib.CreateChart(container, Merge(defaults, opts))
	disconnect := container.Observe(func(w, h int) {
		c.ApplyOptions(Options{"width": w, "height": h})
	})

	return &observedChart{Chart: c, disconnect: disconnect}, nil
}

// observedChart detaches its resize observer when removed.
type observedChart struct {
	Chart
	once       sync.Once
	disconnect func()
}

func (c *observedChart) Remove() {
	c.once.Do(func() {
		c.disconnect()
		c.Chart.Remove()
	})
}

// CreateCandlestickSeries attaches a candlestick series.
func CreateCandlestickSeries(c Chart, opts Options) Series {
	defaults := Options{
		"upColor":         "#26a69a",
		"downColor":       "#ef5350",
		"borderUpColor":   "#26a69a",
		"borderDownColor": "#ef5350",
		"wickUpColor":     "#26a69a",
		"wickDownColor":   "#ef5350",
	}
	return c.AddSeries(Candlestick, Merge(defaults, opts))
}

// CreateLineSeries attaches a line series.
func CreateLineSeries(c Chart, opts Options) Series {
	defaults := Options{
		"color":     "#2962FF",
		"lineWidth": 2,
	}
	return c.AddSeries(Line, Merge(defaults, opts))
}

// CreateHistogramSeries attaches a histogram series on an overlay scale.
func CreateHistogramSeries(c Chart, opts Options) Series {
	defaults := Options{
		"color": "#26a69a",
		"priceFormat": map[string]any{
			"type": "volume",
		},
		"priceScaleId": "",
	}
	return c.AddSeries(Histogram, Merge(defaults, opts))
}

// CreateAreaSeries attaches an area series.
func CreateAreaSeries(c Chart, opts Options) Series {
	defaults := Options{
		"topColor":    "rgba(38, 166, 154, 0.4)",
		"bottomColor": "rgba(38, 166, 154, 0.0)",
		"lineColor":   "rgba(38, 166, 154, 1)",
		"lineWidth":   2,
	}
	return c.AddSeries(Area, Merge(defaults, opts))
}
