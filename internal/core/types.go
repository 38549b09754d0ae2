package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Time is a chart time value exactly as the backend sent it: a business
// day string ("2024-01-02"), a UNIX timestamp or a business day object
// ({"year":2024,"month":1,"day":2}). The raw JSON is kept and re-emitted
// unchanged so the chart layer receives what the backend produced.
type Time struct {
	raw string
}

// DayTime returns a business day time value.
func DayTime(day string) Time {
	b, _ := json.Marshal(day)
	return Time{raw: string(b)}
}

// UnixTime returns a timestamp time value.
func UnixTime(sec int64) Time { return Time{raw: strconv.FormatInt(sec, 10)} }

// IsZero reports whether the value is unset.
func (t Time) IsZero() bool { return t.raw == "" }

// String renders the time for display and logs.
func (t Time) String() string {
	if strings.HasPrefix(t.raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(t.raw), &s); err == nil {
			return s
		}
	}
	return t.raw
}

// MarshalJSON emits the value in its original representation.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.raw == "" {
		return []byte("null"), nil
	}
	return []byte(t.raw), nil
}

// UnmarshalJSON accepts a string, a number or a business day object.
func (t *Time) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Time{}
		return nil
	}
	switch c := data[0]; {
	case c == '"', c == '{', c == '-', c >= '0' && c <= '9':
	default:
		return fmt.Errorf("chart time must be a string, number or business day object, got %s", data)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*t = Time{raw: buf.String()}
	return nil
}

// Run is one completed simulation/backtest execution.
type Run struct {
	RunID       string  `json:"run_id"`
	Timestamp   string  `json:"timestamp"`
	GLRS        float64 `json:"glrs"`
	TotalTrades int     `json:"total_trades"`
	WinRate     float64 `json:"win_rate"`
}

// Date returns the run date for display. Unparseable timestamps are
// returned unchanged.
func (r Run) Date() string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, r.Timestamp); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	return r.Timestamp
}

// SymbolList is the symbols payload of a run.
type SymbolList struct {
	Symbols []string `json:"symbols"`
}

// GLRS is the Go-Live Readiness Score breakdown.
type GLRS struct {
	TotalScore       float64 `json:"total_score"`
	InSampleScore    float64 `json:"in_sample_score"`
	OutOfSampleScore float64 `json:"out_of_sample_score"`
	PaperTradeScore  float64 `json:"paper_trade_score"`
	PilotScore       float64 `json:"pilot_score"`
}

// Subscore maxima of the GLRS components.
const (
	MaxInSampleScore    = 30
	MaxOutOfSampleScore = 25
	MaxPaperTradeScore  = 30
	MaxPilotScore       = 15
)

// KPISet holds the summary performance metrics of a run.
type KPISet struct {
	Expectancy  float64 `json:"expectancy"`
	PayoffRatio float64 `json:"payoff_ratio"`
	WinRate     float64 `json:"win_rate"`
	MaxDrawdown float64 `json:"max_drawdown"`
	MARRatio    float64 `json:"mar_ratio"`
	TotalTrades int     `json:"total_trades"`
}

// Requirement is a single pass/fail condition of a phase gate.
type Requirement struct {
	Description string `json:"description"`
	Met         bool   `json:"met"`
}

// PhaseGate is a named checkpoint toward live trading.
type PhaseGate struct {
	Passed       bool          `json:"passed"`
	Score        float64       `json:"score"`
	MaxScore     float64       `json:"max_score"`
	Requirements []Requirement `json:"requirements"`
}

// PhaseGates groups the four gates of a scorecard.
type PhaseGates struct {
	InSample     PhaseGate `json:"in_sample"`
	OutOfSample  PhaseGate `json:"out_of_sample"`
	PaperTrading PhaseGate `json:"paper_trading"`
	Pilot        PhaseGate `json:"pilot"`
}

// Scorecard is the success scorecard of a run.
type Scorecard struct {
	GLRS       *GLRS      `json:"glrs,omitempty"`
	PhaseGates PhaseGates `json:"phase_gates"`
	KPIs       KPISet     `json:"kpis"`
	Blockers   []string   `json:"blockers"`
}

// Extra holds per-point fields the dashboard does not interpret, such as
// color, wickColor or borderColor. They are emitted back unchanged.
type Extra map[string]json.RawMessage

// Bar is an OHLC candle.
type Bar struct {
	Time  Time    `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	Extra Extra   `json:"-"`
}

func (b *Bar) UnmarshalJSON(data []byte) error {
	type plain Bar
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "time", "open", "high", "low", "close")
	if err != nil {
		return err
	}
	p.Extra = extra
	*b = Bar(p)
	return nil
}

func (b Bar) MarshalJSON() ([]byte, error) {
	type plain Bar
	return withExtra(plain(b), b.Extra)
}

// Point is a single line/histogram value.
type Point struct {
	Time  Time    `json:"time"`
	Value float64 `json:"value"`
	Extra Extra   `json:"-"`
}

func (p *Point) UnmarshalJSON(data []byte) error {
	type plain Point
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := extraFields(data, "time", "value")
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = Point(v)
	return nil
}

func (p Point) MarshalJSON() ([]byte, error) {
	type plain Point
	return withExtra(plain(p), p.Extra)
}

// extraFields returns the members of a JSON object not named in known.
func extraFields(data []byte, known ...string) (Extra, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return Extra(all), nil
}

// withExtra encodes v and adds the extra members it does not already have.
func withExtra(v any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}

// Marker annotates a bar with an entry/exit sign.
type Marker struct {
	Time     Time   `json:"time"`
	Position string `json:"position"`
	Color    string `json:"color"`
	Shape    string `json:"shape"`
	Text     string `json:"text"`
}

// DailyChart is the daily timeframe payload.
type DailyChart struct {
	Bars     []Bar    `json:"bars"`
	EMA20    []Point  `json:"ema20,omitempty"`
	EMA50    []Point  `json:"ema50,omitempty"`
	ATRUpper []Point  `json:"atr_upper,omitempty"`
	ATRLower []Point  `json:"atr_lower,omitempty"`
	Markers  []Marker `json:"markers,omitempty"`
}

// HourlyChart is the H1 timeframe payload.
type HourlyChart struct {
	Bars    []Bar    `json:"bars"`
	RSI     []Point  `json:"rsi,omitempty"`
	RVOL    []Point  `json:"rvol,omitempty"`
	Markers []Marker `json:"markers,omitempty"`
}

// Regime labels.
const (
	RegimeBull    = "bull"
	RegimeBear    = "bear"
	RegimeNeutral = "neutral"
)

// RegimePoint labels a time period with a market regime.
type RegimePoint struct {
	Time   Time   `json:"time"`
	Regime string `json:"regime"`
}

// RegimeData is the regime timeline payload.
type RegimeData struct {
	Regimes []RegimePoint `json:"regimes"`
}
