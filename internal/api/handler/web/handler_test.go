package web

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gorilla/mux"
	"github.com/newthinker/mtfdash/internal/core"
	"github.com/newthinker/mtfdash/internal/dashboard"
	"github.com/newthinker/mtfdash/internal/view"
)

type stubController struct {
	snap       dashboard.Snapshot
	selectErr  error
	lastRun    string
	lastSymbol string
	inits      int
}

func (s *stubController) Init(ctx context.Context) error {
	s.inits++
	return nil
}

func (s *stubController) SelectRun(ctx context.Context, runID string) error {
	s.lastRun = runID
	return s.selectErr
}

func (s *stubController) SelectSymbol(ctx context.Context, symbol string) error {
	s.lastSymbol = symbol
	return s.selectErr
}

func (s *stubController) Snapshot() dashboard.Snapshot {
	return s.snap
}

func TestNewHandler_EmbeddedTemplates(t *testing.T) {
	h, err := NewHandler("", &stubController{}, Options{Title: "Test"}, nil)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	if _, ok := h.pageTemplates["dashboard.html"]; !ok {
		t.Error("expected dashboard.html template")
	}
}

func TestDashboard_RendersComponents(t *testing.T) {
	ctrl := &stubController{snap: dashboard.Snapshot{
		State: dashboard.State{CurrentRunID: "r1"},
		Components: map[string]template.HTML{
			view.GLRSBarID: `<div class="error-banner">boom</div>`,
		},
	}}
	h, err := NewHandler("", ctrl, Options{Title: "MTF <Dashboard>"}, nil)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<div class="error-banner">boom</div>`) {
		t.Error("expected component HTML to be inserted verbatim")
	}
	if !strings.Contains(body, "MTF &lt;Dashboard&gt;") {
		t.Error("expected title to be escaped")
	}
	if !strings.Contains(body, "const specs = [];") {
		t.Error("expected empty chart spec list")
	}
}

func TestNewHandlerWithFS(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html":    {Data: []byte(`<title>{{.Title}}</title>{{template "content" .}}`)},
		"dashboard.html": {Data: []byte(`{{define "content"}}run={{.CurrentRunID}}{{end}}`)},
	}
	ctrl := &stubController{snap: dashboard.Snapshot{State: dashboard.State{CurrentRunID: "r9"}}}

	h, err := NewHandlerWithFS(fsys, ctrl, Options{Title: "T"}, nil)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest("GET", "/", nil))
	if got := w.Body.String(); got != "<title>T</title>run=r9" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestNewHandlerWithFS_MissingTemplate(t *testing.T) {
	if _, err := NewHandlerWithFS(fstest.MapFS{}, &stubController{}, Options{}, nil); err == nil {
		t.Error("expected error for missing templates")
	}
}

func TestSelectRun_Redirects(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"stale", core.ErrStaleFlow},
		{"failure", core.WrapError(core.ErrBackendFailed, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &stubController{selectErr: tt.err}
			h, _ := NewHandler("", ctrl, Options{}, nil)

			req := mux.SetURLVars(httptest.NewRequest("POST", "/select/run/r2", nil), map[string]string{"id": "r2"})
			w := httptest.NewRecorder()
			h.SelectRun(w, req)

			if w.Code != http.StatusSeeOther {
				t.Errorf("expected 303, got %d", w.Code)
			}
			if w.Header().Get("Location") != "/" {
				t.Errorf("expected redirect to /, got %s", w.Header().Get("Location"))
			}
			if ctrl.lastRun != "r2" {
				t.Errorf("expected run r2, got %s", ctrl.lastRun)
			}
		})
	}
}

func TestSelectSymbol_MissingSymbol(t *testing.T) {
	ctrl := &stubController{}
	h, _ := NewHandler("", ctrl, Options{}, nil)

	w := httptest.NewRecorder()
	h.SelectSymbol(w, httptest.NewRequest("GET", "/select/symbol", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if ctrl.lastSymbol != "" {
		t.Error("expected no selection")
	}
}

func TestRefresh(t *testing.T) {
	ctrl := &stubController{}
	h, _ := NewHandler("", ctrl, Options{}, nil)

	w := httptest.NewRecorder()
	h.Refresh(w, httptest.NewRequest("POST", "/refresh", nil))

	if w.Code != http.StatusSeeOther || ctrl.inits != 1 {
		t.Errorf("expected redirect after one init, got %d / %d", w.Code, ctrl.inits)
	}
}
