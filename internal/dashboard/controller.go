// Package dashboard orchestrates the dashboard page: it owns the selection
// state, fetches from the results backend and renders components and chart
// panels.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"

	"github.com/google/uuid"
	"github.com/newthinker/mtfdash/internal/chart"
	"github.com/newthinker/mtfdash/internal/chart/lwc"
	"github.com/newthinker/mtfdash/internal/client"
	"github.com/newthinker/mtfdash/internal/core"
	"github.com/newthinker/mtfdash/internal/view"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Flow names, used in logs and metrics.
const (
	FlowInit         = "init"
	FlowSelectRun    = "select_run"
	FlowSelectSymbol = "select_symbol"
)

// Flow results.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultStale = "stale"
)

// Backend is the results API the controller reads from.
type Backend interface {
	GetLatestRuns(ctx context.Context, limit int) ([]core.Run, error)
	GetRunSymbols(ctx context.Context, runID string) (*core.SymbolList, error)
	GetRunKPIs(ctx context.Context, runID string) (*core.KPISet, error)
	GetRunGLRS(ctx context.Context, runID string) (*core.GLRS, error)
	GetRunScorecard(ctx context.Context, runID string) (*core.Scorecard, error)
	GetDailyChart(ctx context.Context, runID, symbol string) (*core.DailyChart, error)
	GetH1Chart(ctx context.Context, runID, symbol string) (*core.HourlyChart, error)
	GetRegimeData(ctx context.Context, runID string) (*core.RegimeData, error)
}

var _ Backend = (*client.Client)(nil)

// Metrics receives flow outcomes and chart renders.
type Metrics interface {
	chart.RenderObserver
	ObserveFlow(flow, result string)
	ObserveStaleFlow(flow string)
}

// State is the current selection and the data it was rendered from.
type State struct {
	CurrentRunID  string       `json:"current_run_id"`
	CurrentSymbol string       `json:"current_symbol"`
	Runs          []core.Run   `json:"runs"`
	Symbols       []string     `json:"symbols"`
	GLRS          *core.GLRS   `json:"glrs,omitempty"`
	KPIs          *core.KPISet `json:"kpis,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// Snapshot is a consistent copy of everything the page shows.
type Snapshot struct {
	State      State
	Components map[string]template.HTML
	Charts     []lwc.ChartSpec
}

// Controller owns the dashboard state. It is safe for concurrent use.
type Controller struct {
	backend  Backend
	logger   *zap.Logger
	metrics  Metrics
	runLimit int

	doc     *view.Document
	surface *chart.Surface
	lib     *lwc.Library
	charts  *chart.Renderer

	mu          sync.Mutex
	state       State
	runToken    uint64
	symbolToken uint64
}

// New creates a controller reading from backend.
func New(backend Backend, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}

	surface := chart.DefaultSurface()
	lib := lwc.New()
	factory := chart.NewFactory(surface, lib, logger)

	return &Controller{
		backend:  backend,
		logger:   logger,
		runLimit: client.DefaultRunLimit,
		doc:      view.DefaultDocument(),
		surface:  surface,
		lib:      lib,
		charts:   chart.NewRenderer(factory),
	}
}

// SetRunLimit sets how many runs Init fetches.
func (c *Controller) SetRunLimit(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > 0 {
		c.runLimit = n
	}
}

// SetMetrics registers a metrics sink.
func (c *Controller) SetMetrics(m Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
	c.charts.SetObserver(m)
}

// Surface returns the chart containers, for resize reports.
func (c *Controller) Surface() *chart.Surface {
	return c.surface
}

// Init loads the latest runs and selects the first one.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	tok := c.nextRunToken()
	limit := c.runLimit
	c.mu.Unlock()

	log := c.flowLogger(FlowInit, zap.Int("limit", limit))
	log.Debug("loading runs")

	runs, err := c.backend.GetLatestRuns(ctx, limit)

	c.mu.Lock()
	if c.runToken != tok {
		staleErr := c.stale(log, FlowInit)
		c.mu.Unlock()
		return staleErr
	}
	if err != nil {
		c.fail(log, FlowInit, "Failed to load dashboard", err)
		c.mu.Unlock()
		return err
	}
	if len(runs) == 0 {
		c.state = State{}
		c.renderComponent(log, view.RenderRunList(c.doc, nil, ""))
		c.fail(log, FlowInit, "No simulation runs found", nil)
		c.mu.Unlock()
		return core.ErrNoRuns
	}

	c.state.Runs = runs
	c.state.Error = ""
	c.renderComponent(log, view.RenderRunList(c.doc, runs, c.state.CurrentRunID))
	c.mu.Unlock()

	log.Info("runs loaded", zap.Int("count", len(runs)))
	err = c.SelectRun(ctx, runs[0].RunID)

	// The init flow succeeds only when its first run selection does.
	result := ResultOK
	switch {
	case errors.Is(err, core.ErrStaleFlow):
		result = ResultStale
	case err != nil:
		result = ResultError
	}
	c.mu.Lock()
	c.observeFlow(FlowInit, result)
	c.mu.Unlock()
	return err
}

// runData is the joined result of a run selection.
type runData struct {
	glrs      *core.GLRS
	symbols   *core.SymbolList
	kpis      *core.KPISet
	scorecard *core.Scorecard
}

// SelectRun makes runID current, loads its readiness data and selects its
// first symbol. A selection superseded by a newer one returns
// core.ErrStaleFlow without touching the page.
func (c *Controller) SelectRun(ctx context.Context, runID string) error {
	c.mu.Lock()
	tok := c.nextRunToken()
	c.state.CurrentRunID = runID
	log := c.flowLogger(FlowSelectRun, zap.String("run_id", runID))
	c.renderComponent(log, view.UpdateRunListSelection(c.doc, c.state.Runs, runID))
	c.mu.Unlock()

	var data runData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.glrs, err = c.backend.GetRunGLRS(gctx, runID)
		return err
	})
	g.Go(func() (err error) {
		data.symbols, err = c.backend.GetRunSymbols(gctx, runID)
		return err
	})
	g.Go(func() (err error) {
		data.kpis, err = c.backend.GetRunKPIs(gctx, runID)
		return err
	})
	g.Go(func() (err error) {
		data.scorecard, err = c.backend.GetRunScorecard(gctx, runID)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	if c.runToken != tok {
		staleErr := c.stale(log, FlowSelectRun)
		c.mu.Unlock()
		return staleErr
	}
	if err != nil {
		c.fail(log, FlowSelectRun, "Failed to load run", err)
		c.mu.Unlock()
		return err
	}

	var symbols []string
	if data.symbols != nil {
		symbols = data.symbols.Symbols
	}
	c.state.Symbols = symbols
	c.state.GLRS = data.glrs
	c.state.KPIs = data.kpis
	c.state.Error = ""

	c.renderComponent(log, view.RenderGLRSBar(c.doc, data.glrs))
	c.renderComponent(log, view.RenderKPIBadges(c.doc, data.kpis))
	c.renderComponent(log, view.RenderScorecard(c.doc, data.scorecard))

	if len(symbols) == 0 {
		c.state.CurrentSymbol = ""
		c.renderComponent(log, view.RenderSymbolSelector(c.doc, nil, ""))
		for _, p := range chart.Panels {
			c.charts.Clear(p)
		}
		c.observeFlow(FlowSelectRun, ResultOK)
		c.mu.Unlock()
		log.Info("run selected", zap.Int("symbols", 0))
		return nil
	}

	first := symbols[0]
	c.renderComponent(log, view.RenderSymbolSelector(c.doc, symbols, first))
	c.observeFlow(FlowSelectRun, ResultOK)
	c.mu.Unlock()

	log.Info("run selected", zap.Int("symbols", len(symbols)))
	return c.selectSymbol(ctx, tok, first)
}

// SelectSymbol makes symbol current within the current run and renders its
// chart panels.
func (c *Controller) SelectSymbol(ctx context.Context, symbol string) error {
	c.mu.Lock()
	tok := c.runToken
	c.mu.Unlock()
	return c.selectSymbol(ctx, tok, symbol)
}

// chartData is the joined result of a symbol selection.
type chartData struct {
	daily  *core.DailyChart
	hourly *core.HourlyChart
	regime *core.RegimeData
}

func (c *Controller) selectSymbol(ctx context.Context, runTok uint64, symbol string) error {
	c.mu.Lock()
	log := c.flowLogger(FlowSelectSymbol, zap.String("symbol", symbol))
	if c.runToken != runTok {
		staleErr := c.stale(log, FlowSelectSymbol)
		c.mu.Unlock()
		return staleErr
	}
	c.symbolToken++
	tok := c.symbolToken
	runID := c.state.CurrentRunID
	log = log.With(zap.String("run_id", runID))
	c.state.CurrentSymbol = symbol
	c.renderComponent(log, view.RenderSymbolSelector(c.doc, c.state.Symbols, symbol))
	c.mu.Unlock()

	var data chartData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.daily, err = c.backend.GetDailyChart(gctx, runID, symbol)
		return err
	})
	g.Go(func() (err error) {
		data.hourly, err = c.backend.GetH1Chart(gctx, runID, symbol)
		return err
	})
	g.Go(func() (err error) {
		data.regime, err = c.backend.GetRegimeData(gctx, runID)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.symbolToken != tok {
		return c.stale(log, FlowSelectSymbol)
	}
	if err != nil {
		c.fail(log, FlowSelectSymbol, "Failed to load chart", err)
		return err
	}

	c.renderPanel(log, chart.PanelDaily, c.charts.RenderDaily(data.daily))
	c.renderPanel(log, chart.PanelH1, c.charts.RenderHourly(data.hourly))
	c.renderPanel(log, chart.PanelRegime, c.charts.RenderRegime(data.regime))
	c.observeFlow(FlowSelectSymbol, ResultOK)

	log.Info("symbol selected")
	return nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyState()
}

// Snapshot returns the state together with the rendered components and the
// live chart specs, all taken under one lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:      c.copyState(),
		Components: c.doc.Snapshot(),
		Charts:     c.lib.Specs(),
	}
}

// Charts returns the live chart specs. Panels being rebuilt by a flow are
// never returned half drawn.
func (c *Controller) Charts() []lwc.ChartSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lib.Specs()
}

func (c *Controller) copyState() State {
	s := c.state
	s.Runs = append([]core.Run(nil), c.state.Runs...)
	s.Symbols = append([]string(nil), c.state.Symbols...)
	return s
}

// nextRunToken starts a run-level flow, invalidating every pending run and
// symbol flow. Must be called with c.mu held.
func (c *Controller) nextRunToken() uint64 {
	c.runToken++
	c.symbolToken++
	return c.runToken
}

func (c *Controller) flowLogger(flow string, fields ...zap.Field) *zap.Logger {
	return c.logger.With(append([]zap.Field{
		zap.String("flow", flow),
		zap.String("flow_id", uuid.NewString()),
	}, fields...)...)
}

// fail surfaces a flow failure in the error banner. Must be called with c.mu
// held.
func (c *Controller) fail(log *zap.Logger, flow, prefix string, err error) {
	msg := prefix
	if err != nil {
		msg = fmt.Sprintf("%s: %v", prefix, err)
		log.Error(prefix, zap.Error(err))
	} else {
		log.Warn(prefix)
	}
	c.state.Error = msg
	c.renderComponent(log, view.ShowError(c.doc, msg))
	c.observeFlow(flow, ResultError)
}

// stale records a superseded flow. Must be called with c.mu held.
func (c *Controller) stale(log *zap.Logger, flow string) error {
	log.Debug("discarding superseded flow")
	if c.metrics != nil {
		c.metrics.ObserveStaleFlow(flow)
	}
	c.observeFlow(flow, ResultStale)
	return core.ErrStaleFlow
}

func (c *Controller) observeFlow(flow, result string) {
	if c.metrics != nil {
		c.metrics.ObserveFlow(flow, result)
	}
}

func (c *Controller) renderComponent(log *zap.Logger, err error) {
	if err != nil {
		log.Error("rendering component", zap.Error(err))
	}
}

func (c *Controller) renderPanel(log *zap.Logger, p chart.Panel, err error) {
	if err != nil {
		log.Error("rendering chart panel", zap.String("panel", string(p)), zap.Error(err))
	}
}
