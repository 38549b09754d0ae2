package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/url"
	"strconv"

	"github.com/newthinker/mtfdash/internal/core"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"fixed": fixed,
	"pct": func(v float64) string {
		return fixed(v*100, 1)
	},
	"pathEscape": url.PathEscape,
}

var components = template.Must(template.New("components").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))

// render executes a component template and writes it into a container.
func render(doc *Document, containerID, name string, data any) error {
	var buf bytes.Buffer
	if err := components.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return doc.Set(containerID, template.HTML(buf.String()))
}

func placeholder(doc *Document, containerID, message string) error {
	return render(doc, containerID, "no-data", message)
}

// Status is the readiness verdict derived from a GLRS score.
type Status struct {
	Class string `json:"class"`
	Text  string `json:"text"`
}

// Readiness thresholds.
const (
	ReadyThreshold   = 85
	CautionThreshold = 70
)

// GLRSStatus classifies a readiness score.
func GLRSStatus(score float64) Status {
	switch {
	case score >= ReadyThreshold:
		return Status{Class: "status-ready", Text: "READY"}
	case score >= CautionThreshold:
		return Status{Class: "status-caution", Text: "CAUTION"}
	default:
		return Status{Class: "status-blocked", Text: "BLOCKED"}
	}
}

// Badge is one KPI verdict.
type Badge struct {
	Key          string
	Label        string
	SummaryLabel string
	Value        string
	Suffix       string
	Passing      bool
}

// Icon is the badge glyph.
func (b Badge) Icon() string {
	if b.Passing {
		return "✓"
	}
	return "⚠"
}

// KPI thresholds.
const (
	MinExpectancy  = 0.0
	MinPayoffRatio = 1.3
	MinWinRate     = 0.45
	MaxDrawdown    = 0.35
	MinMARRatio    = 0.30
	MinTotalTrades = 150
)

// EvaluateKPIs checks every metric of k against its threshold, in display
// order.
func EvaluateKPIs(k core.KPISet) []Badge {
	return []Badge{
		{
			Key: "expectancy", Label: "Expectancy", SummaryLabel: "Expectancy",
			Value: fixed(k.Expectancy, 2), Suffix: "$",
			Passing: k.Expectancy > MinExpectancy,
		},
		{
			Key: "payoff_ratio", Label: "Payoff", SummaryLabel: "Payoff Ratio",
			Value:   fixed(k.PayoffRatio, 2),
			Passing: k.PayoffRatio >= MinPayoffRatio,
		},
		{
			Key: "win_rate", Label: "Win Rate", SummaryLabel: "Win Rate",
			Value: fixed(k.WinRate*100, 1), Suffix: "%",
			Passing: k.WinRate >= MinWinRate,
		},
		{
			Key: "max_drawdown", Label: "Drawdown", SummaryLabel: "Max Drawdown",
			Value: fixed(k.MaxDrawdown*100, 1), Suffix: "%",
			Passing: k.MaxDrawdown <= MaxDrawdown,
		},
		{
			Key: "mar_ratio", Label: "MAR", SummaryLabel: "MAR Ratio",
			Value:   fixed(k.MARRatio, 2),
			Passing: k.MARRatio >= MinMARRatio,
		},
		{
			Key: "total_trades", Label: "Trades", SummaryLabel: "Total Trades",
			Value:   strconv.Itoa(k.TotalTrades),
			Passing: k.TotalTrades >= MinTotalTrades,
		},
	}
}

// fixed formats v with prec decimals, rounding halves away from zero.
func fixed(v float64, prec int) string {
	scale := math.Pow10(prec)
	return strconv.FormatFloat(math.Round(v*scale)/scale, 'f', prec, 64)
}
