// internal/api/handler/web/dashboard.go
package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/newthinker/mtfdash/internal/chart"
	"github.com/newthinker/mtfdash/internal/chart/lwc"
	"github.com/newthinker/mtfdash/internal/core"
	"github.com/newthinker/mtfdash/internal/metrics"
	"github.com/newthinker/mtfdash/internal/view"
	"go.uber.org/zap"
)

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title         string
	CurrentRunID  string
	CurrentSymbol string
	RunList       template.HTML
	GLRSBar       template.HTML
	KPIBadges     template.HTML
	Scorecard     template.HTML
	SymbolOptions template.HTML
	Containers    []ChartContainer
	Charts        []lwc.ChartSpec
	ReportSizes   bool
}

// ChartContainer is one chart panel slot of the page.
type ChartContainer struct {
	ID    string
	Title string
}

var chartContainers = []ChartContainer{
	{ID: chart.DailyContainer, Title: "Daily Chart"},
	{ID: chart.H1Container, Title: "Hourly Chart"},
	{ID: chart.RegimeContainer, Title: "Market Regime"},
}

// Dashboard renders the dashboard page
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.ctrl.Snapshot()

	data := DashboardData{
		Title:         h.opts.Title,
		CurrentRunID:  snap.State.CurrentRunID,
		CurrentSymbol: snap.State.CurrentSymbol,
		RunList:       snap.Components[view.RunListID],
		GLRSBar:       snap.Components[view.GLRSBarID],
		KPIBadges:     snap.Components[view.KPIBadgesID],
		Scorecard:     snap.Components[view.ScorecardID],
		SymbolOptions: snap.Components[view.SymbolSelectID],
		Containers:    chartContainers,
		Charts:        snap.Charts,
		ReportSizes:   h.opts.ReportSizes,
	}
	if data.Charts == nil {
		data.Charts = []lwc.ChartSpec{}
	}

	h.render(w, "dashboard.html", data)
}

// SelectRun handles a click on a run list item.
func (h *Handler) SelectRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	h.finish(w, r, "select run", h.ctrl.SelectRun(r.Context(), runID))
}

// SelectSymbol handles a change of the symbol selector. The symbol comes
// from the path or, for the selector form, the "symbol" form value.
func (h *Handler) SelectSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		symbol = r.FormValue("symbol")
	}
	if symbol == "" {
		http.Error(w, "symbol required", http.StatusBadRequest)
		return
	}
	h.finish(w, r, "select symbol", h.ctrl.SelectSymbol(r.Context(), symbol))
}

// Refresh reloads the run list and selects the latest run.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, "refresh", h.ctrl.Init(r.Context()))
}

// finish redirects back to the page. Flow errors are already on the page as
// the error banner; superseded flows are silently dropped.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, action string, err error) {
	if err != nil && !errors.Is(err, core.ErrStaleFlow) {
		h.logger.Warn(action+" failed",
			zap.String("request_id", metrics.RequestID(r.Context())),
			zap.Error(err),
		)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
