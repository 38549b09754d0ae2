// Package lwc backs the chart adapter with TradingView Lightweight Charts.
// Charts are recorded as JSON specifications that the dashboard page replays
// in the browser with the same calls (createChart, addSeries, setData,
// setMarkers, priceScale().applyOptions, timeScale().fitContent).
package lwc

import (
	"sort"
	"sync"

	"github.com/newthinker/mtfdash/internal/chart"
)

// SeriesSpec is the recorded state of one series.
type SeriesSpec struct {
	Type    chart.SeriesKind `json:"type"`
	Options chart.Options    `json:"options"`
	Data    any              `json:"data"`
	Markers []chart.Marker   `json:"markers,omitempty"`
}

// ChartSpec is the recorded state of one chart.
type ChartSpec struct {
	Container   string                   `json:"container"`
	Options     chart.Options            `json:"options"`
	PriceScales map[string]chart.Options `json:"priceScales,omitempty"`
	Series      []SeriesSpec             `json:"series"`
	FitContent  bool                     `json:"fitContent"`
}

// Library records charts created through the adapter.
type Library struct {
	mu     sync.Mutex
	live   map[int]*Chart
	nextID int
}

// New creates an empty library.
func New() *Library {
	return &Library{live: make(map[int]*Chart)}
}

// CreateChart implements chart.Library.
func (l *Library) CreateChart(container *chart.Container, opts chart.Options) chart.Chart {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	c := &Chart{
		lib: l,
		id:  id,
		spec: ChartSpec{
			Container: container.ID,
			Options:   chart.Merge(nil, opts),
		},
	}
	l.live[id] = c
	return c
}

// Live returns the number of charts not yet removed.
func (l *Library) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

// LiveIn returns the number of live charts drawn into a container.
func (l *Library) LiveIn(containerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.live {
		if c.spec.Container == containerID {
			n++
		}
	}
	return n
}

// Specs returns a snapshot of every live chart ordered by container.
func (l *Library) Specs() []ChartSpec {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ChartSpec, 0, len(l.live))
	for _, c := range l.live {
		out = append(out, c.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Container < out[j].Container })
	return out
}

// Chart is a recorded chart. All mutations go through the library lock.
type Chart struct {
	lib     *Library
	id      int
	spec    ChartSpec
	removed bool
}

func (c *Chart) AddSeries(kind chart.SeriesKind, opts chart.Options) chart.Series {
	c.lib.mu.Lock()
	defer c.lib.mu.Unlock()

	c.spec.Series = append(c.spec.Series, SeriesSpec{Type: kind, Options: opts})
	return &Series{chart: c, index: len(c.spec.Series) - 1}
}

func (c *Chart) ApplyOptions(opts chart.Options) {
	c.lib.mu.Lock()
	defer c.lib.mu.Unlock()
	if c.removed {
		return
	}
	c.spec.Options = chart.Merge(c.spec.Options, opts)
}

func (c *Chart) ApplyPriceScaleOptions(scaleID string, opts chart.Options) {
	c.lib.mu.Lock()
	defer c.lib.mu.Unlock()
	if c.spec.PriceScales == nil {
		c.spec.PriceScales = make(map[string]chart.Options)
	}
	c.spec.PriceScales[scaleID] = chart.Merge(c.spec.PriceScales[scaleID], opts)
}

func (c *Chart) FitContent() {
	c.lib.mu.Lock()
	defer c.lib.mu.Unlock()
	c.spec.FitContent = true
}

// Remove destroys the chart. Removing twice is a no-op.
func (c *Chart) Remove() {
	c.lib.mu.Lock()
	defer c.lib.mu.Unlock()
	c.removed = true
	delete(c.lib.live, c.id)
}

// Spec returns a snapshot of the chart.
func (c *Chart) Spec() ChartSpec {
	c.lib.mu.Lock()
	defer c.lib.mu.Unlock()
	return c.snapshot()
}

// snapshot must be called with the library lock held.
func (c *Chart) snapshot() ChartSpec {
	out := c.spec
	out.Options = chart.Merge(nil, c.spec.Options)
	out.Series = append([]SeriesSpec(nil), c.spec.Series...)
	if c.spec.PriceScales != nil {
		out.PriceScales = make(map[string]chart.Options, len(c.spec.PriceScales))
		for k, v := range c.spec.PriceScales {
			out.PriceScales[k] = chart.Merge(nil, v)
		}
	}
	return out
}

// Series is a recorded series.
type Series struct {
	chart *Chart
	index int
}

func (s *Series) Kind() chart.SeriesKind {
	s.chart.lib.mu.Lock()
	defer s.chart.lib.mu.Unlock()
	return s.chart.spec.Series[s.index].Type
}

func (s *Series) SetData(data any) {
	s.chart.lib.mu.Lock()
	defer s.chart.lib.mu.Unlock()
	s.chart.spec.Series[s.index].Data = data
}

func (s *Series) SetMarkers(markers []chart.Marker) {
	s.chart.lib.mu.Lock()
	defer s.chart.lib.mu.Unlock()
	s.chart.spec.Series[s.index].Markers = markers
}
