// internal/api/handler/web/handler.go
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"

	"github.com/newthinker/mtfdash/internal/dashboard"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

// Controller is the dashboard state the pages render and mutate.
type Controller interface {
	Init(ctx context.Context) error
	SelectRun(ctx context.Context, runID string) error
	SelectSymbol(ctx context.Context, symbol string) error
	Snapshot() dashboard.Snapshot
}

// Options configures page rendering.
type Options struct {
	Title string
	// ReportSizes makes the page post chart container sizes back to the
	// server.
	ReportSizes bool
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds separate template instances for each page
	// Each instance contains layout.html + the specific page template
	pageTemplates map[string]*template.Template
	ctrl          Controller
	opts          Options
	logger        *zap.Logger
}

var pages = []string{"dashboard.html"}

// NewHandler creates a new web handler with templates loaded from the given directory.
// If templatesDir is empty, it falls back to embedded templates.
func NewHandler(templatesDir string, ctrl Controller, opts Options, logger *zap.Logger) (*Handler, error) {
	fsys := TemplateFS()
	if templatesDir != "" {
		fsys = os.DirFS(templatesDir)
	}
	return NewHandlerWithFS(fsys, ctrl, opts, logger)
}

// NewHandlerWithFS creates a new web handler using a custom filesystem.
// This is useful for testing or custom template sources.
func NewHandlerWithFS(fsys fs.FS, ctrl Controller, opts Options, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pageTemplates := make(map[string]*template.Template)
	for _, page := range pages {
		// Parse layout first, then the page template
		tmpl, err := template.ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return &Handler{
		pageTemplates: pageTemplates,
		ctrl:          ctrl,
		opts:          opts,
		logger:        logger,
	}, nil
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error("rendering page", zap.String("page", page), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// This should never happen with valid embed directive
		return templateFS
	}
	return subFS
}
