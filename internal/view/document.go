// Package view renders dashboard components from typed view-models into the
// named containers of the host page.
package view

import (
	"html/template"
	"sync"

	"github.com/newthinker/mtfdash/internal/core"
)

// Container IDs of the host page.
const (
	RunListID      = "run-list"
	GLRSBarID      = "glrs-bar"
	KPIBadgesID    = "kpi-badges"
	ScorecardID    = "scorecard"
	SymbolSelectID = "symbol-select"
)

// Document is the host page: a fixed set of containers, each holding the
// HTML fragment last rendered into it.
type Document struct {
	mu         sync.RWMutex
	containers map[string]template.HTML
}

// NewDocument creates a document with the given (empty) containers.
func NewDocument(ids ...string) *Document {
	d := &Document{containers: make(map[string]template.HTML, len(ids))}
	for _, id := range ids {
		d.containers[id] = ""
	}
	return d
}

// DefaultDocument returns the dashboard page's containers.
func DefaultDocument() *Document {
	return NewDocument(RunListID, GLRSBarID, KPIBadgesID, ScorecardID, SymbolSelectID)
}

// Set replaces the content of a container.
func (d *Document) Set(id string, html template.HTML) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.containers[id]; !ok {
		return core.WrapError(core.ErrContainerNotFound, nil)
	}
	d.containers[id] = html
	return nil
}

// Get returns the content of a container.
func (d *Document) Get(id string) (template.HTML, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	html, ok := d.containers[id]
	return html, ok
}

// Snapshot copies every container's content.
func (d *Document) Snapshot() map[string]template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]template.HTML, len(d.containers))
	for id, html := range d.containers {
		out[id] = html
	}
	return out
}
