// internal/backend/fake/fake.go
package fake

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/newthinker/mtfdash/internal/core"
)

// Resource names, matching the last path segment of each endpoint.
const (
	ResourceRuns      = "runs"
	ResourceSymbols   = "symbols"
	ResourceKPIs      = "kpis"
	ResourceGLRS      = "glrs"
	ResourceScorecard = "scorecard"
	ResourceDaily     = "daily"
	ResourceH1        = "h1"
	ResourceRegime    = "regime"
)

// Backend is an in-memory results backend serving the same endpoints as the
// real one. It is used by tests and by the fake-backend command.
type Backend struct {
	mu         sync.RWMutex
	runs       []core.Run
	symbols    map[string][]string
	kpis       map[string]*core.KPISet
	glrs       map[string]*core.GLRS
	scorecards map[string]*core.Scorecard
	daily      map[string]*core.DailyChart
	hourly     map[string]*core.HourlyChart
	regimes    map[string]*core.RegimeData

	failures map[string]int
	delays   map[string]time.Duration
	token    string
	requests map[string]int
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		symbols:    make(map[string][]string),
		kpis:       make(map[string]*core.KPISet),
		glrs:       make(map[string]*core.GLRS),
		scorecards: make(map[string]*core.Scorecard),
		daily:      make(map[string]*core.DailyChart),
		hourly:     make(map[string]*core.HourlyChart),
		regimes:    make(map[string]*core.RegimeData),
		failures:   make(map[string]int),
		delays:     make(map[string]time.Duration),
		requests:   make(map[string]int),
	}
}

// RunFixture bundles everything the backend knows about one run.
type RunFixture struct {
	Run       core.Run
	Symbols   []string
	KPIs      *core.KPISet
	GLRS      *core.GLRS
	Scorecard *core.Scorecard
	Regime    *core.RegimeData
}

// AddRun registers a run. Runs are listed in insertion order.
func (b *Backend) AddRun(f RunFixture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := f.Run.RunID
	b.runs = append(b.runs, f.Run)
	b.symbols[id] = f.Symbols
	b.kpis[id] = f.KPIs
	b.glrs[id] = f.GLRS
	b.scorecards[id] = f.Scorecard
	b.regimes[id] = f.Regime
}

// SetCharts registers the chart payloads of a run symbol.
func (b *Backend) SetCharts(runID, symbol string, daily *core.DailyChart, hourly *core.HourlyChart) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.daily[chartKey(runID, symbol)] = daily
	b.hourly[chartKey(runID, symbol)] = hourly
}

// Fail makes every request for resource answer with status.
// A status of 0 clears the failure.
func (b *Backend) Fail(resource string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, resource)
		return
	}
	b.failures[resource] = status
}

// Delay holds every response concerning runID for d.
func (b *Backend) Delay(runID string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[runID] = d
}

// RequireToken rejects requests without a matching X-API-Token header.
func (b *Backend) RequireToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

// Requests returns how many requests hit resource.
func (b *Backend) Requests(resource string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.requests[resource]
}

// Handler returns the HTTP handler serving the backend API.
func (b *Backend) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(b.authMiddleware)

	api.HandleFunc("/runs/latest", b.handleLatestRuns).Methods(http.MethodGet)
	api.HandleFunc("/run/{id}/symbols", b.runHandler(ResourceSymbols, func(id string) any { return b.symbolList(id) })).Methods(http.MethodGet)
	api.HandleFunc("/run/{id}/kpis", b.runHandler(ResourceKPIs, func(id string) any { return b.kpis[id] })).Methods(http.MethodGet)
	api.HandleFunc("/run/{id}/glrs", b.runHandler(ResourceGLRS, func(id string) any { return b.glrs[id] })).Methods(http.MethodGet)
	api.HandleFunc("/run/{id}/scorecard", b.runHandler(ResourceScorecard, func(id string) any { return b.scorecards[id] })).Methods(http.MethodGet)
	api.HandleFunc("/run/{id}/regime", b.runHandler(ResourceRegime, func(id string) any { return b.regimes[id] })).Methods(http.MethodGet)
	api.HandleFunc("/run/{id}/symbol/{symbol}/daily", b.symbolHandler(ResourceDaily, func(key string) any { return b.daily[key] })).Methods(http.MethodGet)
	api.HandleFunc("/run/{id}/symbol/{symbol}/h1", b.symbolHandler(ResourceH1, func(key string) any { return b.hourly[key] })).Methods(http.MethodGet)

	return r
}

func (b *Backend) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.RLock()
		token := b.token
		b.mu.RUnlock()

		if token != "" && r.Header.Get("X-API-Token") != token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleLatestRuns(w http.ResponseWriter, r *http.Request) {
	if !b.begin(w, r, ResourceRuns, "") {
		return
	}

	limit := -1
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	b.mu.RLock()
	if limit < 0 {
		limit = len(b.runs)
	}
	runs := make([]core.Run, 0, min(limit, len(b.runs)))
	for i := 0; i < len(b.runs) && i < limit; i++ {
		runs = append(runs, b.runs[i])
	}
	b.mu.RUnlock()

	writeJSON(w, runs)
}

func (b *Backend) runHandler(resource string, lookup func(id string) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if !b.begin(w, r, resource, id) {
			return
		}
		if !b.hasRun(id) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}

		b.mu.RLock()
		payload := lookup(id)
		b.mu.RUnlock()
		writeJSON(w, payload)
	}
}

func (b *Backend) symbolHandler(resource string, lookup func(key string) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		id, symbol := vars["id"], vars["symbol"]
		if !b.begin(w, r, resource, id) {
			return
		}
		if !b.hasRun(id) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}

		b.mu.RLock()
		payload := lookup(chartKey(id, symbol))
		b.mu.RUnlock()
		writeJSON(w, payload)
	}
}

// begin counts the request, applies the configured delay and failure and
// reports whether the handler should continue.
func (b *Backend) begin(w http.ResponseWriter, r *http.Request, resource, runID string) bool {
	b.mu.Lock()
	b.requests[resource]++
	delay := b.delays[runID]
	status := b.failures[resource]
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return false
		}
	}

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return false
	}
	return true
}

func (b *Backend) hasRun(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, run := range b.runs {
		if run.RunID == id {
			return true
		}
	}
	return false
}

// symbolList must be called with b.mu held.
func (b *Backend) symbolList(id string) *core.SymbolList {
	symbols := b.symbols[id]
	if symbols == nil {
		symbols = []string{}
	}
	return &core.SymbolList{Symbols: symbols}
}

func chartKey(runID, symbol string) string {
	return runID + "/" + symbol
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
