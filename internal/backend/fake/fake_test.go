package fake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/mtfdash/internal/core"
)

func sample() *Backend {
	return NewSample(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestBackend_LatestRunsLimit(t *testing.T) {
	h := sample().Handler()

	req := httptest.NewRequest("GET", "/api/runs/latest?limit=2", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var runs []core.Run
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestBackend_InvalidLimit(t *testing.T) {
	h := sample().Handler()

	req := httptest.NewRequest("GET", "/api/runs/latest?limit=abc", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBackend_UnknownRun(t *testing.T) {
	h := sample().Handler()

	req := httptest.NewRequest("GET", "/api/run/nope/kpis", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBackend_FailAndCount(t *testing.T) {
	b := sample()
	b.Fail(ResourceGLRS, http.StatusInternalServerError)
	h := b.Handler()

	req := httptest.NewRequest("GET", "/api/run/run_20240301_003/glrs", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}

	b.Fail(ResourceGLRS, 0)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/run/run_20240301_003/glrs", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 after clearing failure, got %d", w.Code)
	}

	if n := b.Requests(ResourceGLRS); n != 2 {
		t.Errorf("expected 2 requests, got %d", n)
	}
}

func TestBackend_RequireToken(t *testing.T) {
	b := sample()
	b.RequireToken("t0k3n")
	h := b.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/runs/latest", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/runs/latest", nil)
	req.Header.Set("X-API-Token", "t0k3n")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}
}

func TestSample_ScorecardBlockers(t *testing.T) {
	b := sample()
	// The weakest run fails most requirements.
	sc := b.scorecards["run_20240228_001"]
	if sc == nil {
		t.Fatal("expected scorecard for weakest run")
	}
	if len(sc.Blockers) == 0 {
		t.Error("expected blockers for failing run")
	}
	if sc.PhaseGates.InSample.Passed {
		t.Error("expected in-sample gate to fail with negative expectancy")
	}

	best := b.scorecards["run_20240301_003"]
	if len(best.Blockers) != 0 {
		t.Errorf("expected no blockers for best run, got %v", best.Blockers)
	}
}

func TestSample_ChartsAligned(t *testing.T) {
	daily := sampleDaily(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 100, 60)
	if len(daily.Bars) != 60 || len(daily.EMA50) != 60 || len(daily.ATRLower) != 60 {
		t.Fatalf("series lengths differ: bars=%d ema50=%d atr=%d", len(daily.Bars), len(daily.EMA50), len(daily.ATRLower))
	}
	for i, bar := range daily.Bars {
		if bar.High < bar.Low {
			t.Fatalf("bar %d: high %f below low %f", i, bar.High, bar.Low)
		}
	}
}
