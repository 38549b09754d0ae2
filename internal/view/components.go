package view

import (
	"math"

	"github.com/newthinker/mtfdash/internal/core"
)

type runItem struct {
	ID      string
	Date    string
	GLRS    float64
	Status  Status
	Trades  int
	WinRate float64
	Active  bool
}

// RenderRunList renders one item per run, flagging currentRunID as active.
func RenderRunList(doc *Document, runs []core.Run, currentRunID string) error {
	if len(runs) == 0 {
		return placeholder(doc, RunListID, "No runs available")
	}

	items := make([]runItem, len(runs))
	for i, run := range runs {
		items[i] = runItem{
			ID:      run.RunID,
			Date:    run.Date(),
			GLRS:    run.GLRS,
			Status:  GLRSStatus(run.GLRS),
			Trades:  run.TotalTrades,
			WinRate: run.WinRate,
			Active:  run.RunID == currentRunID,
		}
	}
	return render(doc, RunListID, "run-list", items)
}

// UpdateRunListSelection moves the active flag to runID.
func UpdateRunListSelection(doc *Document, runs []core.Run, runID string) error {
	return RenderRunList(doc, runs, runID)
}

type subscore struct {
	Label string
	Score float64
	Max   int
}

type glrsView struct {
	Score     float64
	Width     float64
	Status    Status
	Subscores []subscore
}

// RenderGLRSBar renders the readiness score bar with its subscores.
func RenderGLRSBar(doc *Document, glrs *core.GLRS) error {
	if glrs == nil {
		return placeholder(doc, GLRSBarID, "No GLRS data available")
	}

	v := glrsView{
		Score:  glrs.TotalScore,
		Width:  math.Max(0, math.Min(100, glrs.TotalScore)),
		Status: GLRSStatus(glrs.TotalScore),
		Subscores: []subscore{
			{"In-Sample", glrs.InSampleScore, core.MaxInSampleScore},
			{"Out-of-Sample", glrs.OutOfSampleScore, core.MaxOutOfSampleScore},
			{"Paper Trading", glrs.PaperTradeScore, core.MaxPaperTradeScore},
			{"Pilot", glrs.PilotScore, core.MaxPilotScore},
		},
	}
	return render(doc, GLRSBarID, "glrs-bar", v)
}

// RenderKPIBadges renders one pass/fail badge per KPI.
func RenderKPIBadges(doc *Document, kpis *core.KPISet) error {
	if kpis == nil {
		return placeholder(doc, KPIBadgesID, "No KPI data available")
	}
	return render(doc, KPIBadgesID, "kpi-badges", EvaluateKPIs(*kpis))
}

type gateView struct {
	Name         string
	Passed       bool
	Score        float64
	MaxScore     float64
	Requirements []core.Requirement
}

type scorecardView struct {
	Gates    []gateView
	KPIs     []Badge
	Blockers []string
}

// RenderScorecard renders phase gates, the KPI summary and blockers.
func RenderScorecard(doc *Document, sc *core.Scorecard) error {
	if sc == nil {
		return placeholder(doc, ScorecardID, "No scorecard data available")
	}

	gate := func(name string, g core.PhaseGate) gateView {
		return gateView{
			Name:         name,
			Passed:       g.Passed,
			Score:        g.Score,
			MaxScore:     g.MaxScore,
			Requirements: g.Requirements,
		}
	}

	v := scorecardView{
		Gates: []gateView{
			gate("In-Sample", sc.PhaseGates.InSample),
			gate("Out-of-Sample", sc.PhaseGates.OutOfSample),
			gate("Paper Trading", sc.PhaseGates.PaperTrading),
			gate("Pilot", sc.PhaseGates.Pilot),
		},
		KPIs:     EvaluateKPIs(sc.KPIs),
		Blockers: sc.Blockers,
	}
	return render(doc, ScorecardID, "scorecard", v)
}

type symbolOption struct {
	Symbol   string
	Selected bool
}

// RenderSymbolSelector renders one option per symbol, marking selected.
func RenderSymbolSelector(doc *Document, symbols []string, selected string) error {
	opts := make([]symbolOption, len(symbols))
	for i, s := range symbols {
		opts[i] = symbolOption{Symbol: s, Selected: s == selected}
	}
	return render(doc, SymbolSelectID, "symbol-options", opts)
}

// ShowError replaces the readiness bar with an error banner.
func ShowError(doc *Document, message string) error {
	return render(doc, GLRSBarID, "error-banner", message)
}
