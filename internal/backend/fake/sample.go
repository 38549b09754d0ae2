package fake

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/mtfdash/internal/core"
)

// NewSample returns a backend seeded with deterministic demo runs ending at
// end. It is what the fake-backend command serves.
func NewSample(end time.Time) *Backend {
	b := New()

	type spec struct {
		id      string
		glrs    core.GLRS
		kpis    core.KPISet
		symbols []string
	}
	specs := []spec{
		{
			id:      "run_" + end.Format("20060102") + "_003",
			glrs:    core.GLRS{TotalScore: 88, InSampleScore: 28, OutOfSampleScore: 22, PaperTradeScore: 26, PilotScore: 12},
			kpis:    core.KPISet{Expectancy: 42.5, PayoffRatio: 1.8, WinRate: 0.52, MaxDrawdown: 0.18, MARRatio: 0.61, TotalTrades: 212},
			symbols: []string{"AAPL", "MSFT", "NVDA"},
		},
		{
			id:      "run_" + end.AddDate(0, 0, -1).Format("20060102") + "_002",
			glrs:    core.GLRS{TotalScore: 74, InSampleScore: 26, OutOfSampleScore: 20, PaperTradeScore: 22, PilotScore: 6},
			kpis:    core.KPISet{Expectancy: 12.1, PayoffRatio: 1.1, WinRate: 0.48, MaxDrawdown: 0.27, MARRatio: 0.35, TotalTrades: 168},
			symbols: []string{"AAPL", "AMZN"},
		},
		{
			id:      "run_" + end.AddDate(0, 0, -2).Format("20060102") + "_001",
			glrs:    core.GLRS{TotalScore: 51, InSampleScore: 21, OutOfSampleScore: 12, PaperTradeScore: 18, PilotScore: 0},
			kpis:    core.KPISet{Expectancy: -3.4, PayoffRatio: 0.9, WinRate: 0.41, MaxDrawdown: 0.39, MARRatio: 0.12, TotalTrades: 96},
			symbols: []string{"TSLA"},
		},
	}

	for i, s := range specs {
		glrs := s.glrs
		kpis := s.kpis
		b.AddRun(RunFixture{
			Run: core.Run{
				RunID:       s.id,
				Timestamp:   end.AddDate(0, 0, -i).UTC().Format(time.RFC3339),
				GLRS:        glrs.TotalScore,
				TotalTrades: kpis.TotalTrades,
				WinRate:     kpis.WinRate,
			},
			Symbols:   s.symbols,
			KPIs:      &kpis,
			GLRS:      &glrs,
			Scorecard: sampleScorecard(glrs, kpis),
			Regime:    sampleRegime(end, 120),
		})
		for j, sym := range s.symbols {
			base := 100 + 40*float64(j) + 10*float64(i)
			b.SetCharts(s.id, sym, sampleDaily(end, base, 120), sampleHourly(end, base, 200))
		}
	}

	return b
}

func sampleScorecard(glrs core.GLRS, kpis core.KPISet) *core.Scorecard {
	gate := func(score, maxScore float64, reqs ...core.Requirement) core.PhaseGate {
		passed := true
		for _, r := range reqs {
			passed = passed && r.Met
		}
		return core.PhaseGate{Passed: passed, Score: score, MaxScore: maxScore, Requirements: reqs}
	}

	sc := &core.Scorecard{
		GLRS: &glrs,
		PhaseGates: core.PhaseGates{
			InSample: gate(glrs.InSampleScore, core.MaxInSampleScore,
				core.Requirement{Description: "Expectancy > 0", Met: kpis.Expectancy > 0},
				core.Requirement{Description: "At least 150 trades", Met: kpis.TotalTrades >= 150},
			),
			OutOfSample: gate(glrs.OutOfSampleScore, core.MaxOutOfSampleScore,
				core.Requirement{Description: "Payoff ratio >= 1.3", Met: kpis.PayoffRatio >= 1.3},
				core.Requirement{Description: "Max drawdown <= 35%", Met: kpis.MaxDrawdown <= 0.35},
			),
			PaperTrading: gate(glrs.PaperTradeScore, core.MaxPaperTradeScore,
				core.Requirement{Description: "Win rate >= 45%", Met: kpis.WinRate >= 0.45},
			),
			Pilot: gate(glrs.PilotScore, core.MaxPilotScore,
				core.Requirement{Description: "MAR ratio >= 0.30", Met: kpis.MARRatio >= 0.30},
				core.Requirement{Description: "Pilot capital allocated", Met: glrs.PilotScore > 0},
			),
		},
		KPIs:     kpis,
		Blockers: []string{},
	}

	gates := []struct {
		name string
		gate core.PhaseGate
	}{
		{"In-Sample", sc.PhaseGates.InSample},
		{"Out-of-Sample", sc.PhaseGates.OutOfSample},
		{"Paper Trading", sc.PhaseGates.PaperTrading},
		{"Pilot", sc.PhaseGates.Pilot},
	}
	for _, g := range gates {
		for _, r := range g.gate.Requirements {
			if !r.Met {
				sc.Blockers = append(sc.Blockers, fmt.Sprintf("%s: %s", g.name, r.Description))
			}
		}
	}
	return sc
}

func sampleDaily(end time.Time, base float64, n int) *core.DailyChart {
	start := end.AddDate(0, 0, -n)
	bars := make([]core.Bar, n)
	for i := range bars {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		bars[i] = sampleBar(core.DayTime(day), base, i)
	}

	closes := make([]float64, n)
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	ema20 := ema(closes, 20)
	ema50 := ema(closes, 50)

	out := &core.DailyChart{Bars: bars}
	for i, bar := range bars {
		out.EMA20 = append(out.EMA20, core.Point{Time: bar.Time, Value: ema20[i]})
		out.EMA50 = append(out.EMA50, core.Point{Time: bar.Time, Value: ema50[i]})
		band := (bar.High - bar.Low) * 1.5
		out.ATRUpper = append(out.ATRUpper, core.Point{Time: bar.Time, Value: ema20[i] + band})
		out.ATRLower = append(out.ATRLower, core.Point{Time: bar.Time, Value: ema20[i] - band})
	}
	for i := 25; i < n; i += 30 {
		out.Markers = append(out.Markers,
			core.Marker{Time: bars[i].Time, Position: "belowBar", Color: "#26a69a", Shape: "arrowUp", Text: "BUY"},
		)
		if i+10 < n {
			out.Markers = append(out.Markers,
				core.Marker{Time: bars[i+10].Time, Position: "aboveBar", Color: "#ef5350", Shape: "arrowDown", Text: "SELL"},
			)
		}
	}
	return out
}

func sampleHourly(end time.Time, base float64, n int) *core.HourlyChart {
	start := end.Add(-time.Duration(n) * time.Hour).Truncate(time.Hour)
	out := &core.HourlyChart{Bars: make([]core.Bar, n)}
	for i := range out.Bars {
		ts := core.UnixTime(start.Add(time.Duration(i) * time.Hour).Unix())
		out.Bars[i] = sampleBar(ts, base, i)
		out.RSI = append(out.RSI, core.Point{Time: ts, Value: 50 + 20*math.Sin(float64(i)/9)})
		out.RVOL = append(out.RVOL, core.Point{Time: ts, Value: 1 + 0.5*math.Abs(math.Cos(float64(i)/5))})
	}
	for i := 40; i < n; i += 50 {
		out.Markers = append(out.Markers,
			core.Marker{Time: out.Bars[i].Time, Position: "belowBar", Color: "#26a69a", Shape: "arrowUp", Text: "ENTRY"},
		)
	}
	return out
}

func sampleRegime(end time.Time, n int) *core.RegimeData {
	start := end.AddDate(0, 0, -n)
	labels := []string{core.RegimeBull, core.RegimeNeutral, core.RegimeBear, core.RegimeNeutral}
	out := &core.RegimeData{Regimes: make([]core.RegimePoint, n)}
	for i := range out.Regimes {
		out.Regimes[i] = core.RegimePoint{
			Time:   core.DayTime(start.AddDate(0, 0, i).Format("2006-01-02")),
			Regime: labels[(i/20)%len(labels)],
		}
	}
	return out
}

func sampleBar(t core.Time, base float64, i int) core.Bar {
	x := float64(i)
	mid := base + 8*math.Sin(x/11) + 0.15*x
	open := mid + math.Sin(x*1.7)
	closePrice := mid + math.Cos(x*1.3)
	return core.Bar{
		Time:  t,
		Open:  round2(open),
		High:  round2(math.Max(open, closePrice) + 1 + math.Abs(math.Sin(x))),
		Low:   round2(math.Min(open, closePrice) - 1 - math.Abs(math.Cos(x))),
		Close: round2(closePrice),
	}
}

func ema(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = round2(values[i]*k + out[i-1]*(1-k))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
