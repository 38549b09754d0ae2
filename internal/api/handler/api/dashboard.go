// internal/api/handler/api/dashboard.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/newthinker/mtfdash/internal/api/response"
	"github.com/newthinker/mtfdash/internal/chart"
	"github.com/newthinker/mtfdash/internal/chart/lwc"
	"github.com/newthinker/mtfdash/internal/core"
	"github.com/newthinker/mtfdash/internal/dashboard"
	"github.com/newthinker/mtfdash/internal/view"
)

// maxPanelSize bounds reported container sizes.
const maxPanelSize = 10000

// StateProvider exposes the dashboard state.
type StateProvider interface {
	State() dashboard.State
	Charts() []lwc.ChartSpec
	Surface() *chart.Surface
}

// StateView is the JSON form of the dashboard state.
type StateView struct {
	dashboard.State
	Status *view.Status `json:"status,omitempty"`
	Badges []BadgeView  `json:"badges,omitempty"`
}

// BadgeView is one KPI verdict.
type BadgeView struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Passing bool   `json:"passing"`
}

// PanelSizeRequest is a container size reported by the browser.
type PanelSizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DashboardHandler handles dashboard API requests.
type DashboardHandler struct {
	provider StateProvider
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(provider StateProvider) *DashboardHandler {
	return &DashboardHandler{provider: provider}
}

// State returns the current selection with derived verdicts.
func (h *DashboardHandler) State(w http.ResponseWriter, r *http.Request) {
	state := h.provider.State()
	resp := StateView{State: state}

	if state.GLRS != nil {
		status := view.GLRSStatus(state.GLRS.TotalScore)
		resp.Status = &status
	}
	if state.KPIs != nil {
		for _, b := range view.EvaluateKPIs(*state.KPIs) {
			resp.Badges = append(resp.Badges, BadgeView{
				Key:     b.Key,
				Label:   b.Label,
				Value:   b.Value + b.Suffix,
				Passing: b.Passing,
			})
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// Charts returns the live chart specs.
func (h *DashboardHandler) Charts(w http.ResponseWriter, r *http.Request) {
	specs := h.provider.Charts()
	if specs == nil {
		specs = []lwc.ChartSpec{}
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"charts": specs,
	})
}

// PanelSize applies a container size reported by the browser, resizing the
// chart drawn in it.
func (h *DashboardHandler) PanelSize(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["container"]
	container, ok := h.provider.Surface().Container(id)
	if !ok {
		response.FromError(w, core.WrapError(core.ErrContainerNotFound, fmt.Errorf("container %q", id)))
		return
	}

	var req PanelSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.FromError(w, core.WrapError(core.ErrInvalidRequest, err))
		return
	}
	if req.Width < 0 || req.Height < 0 || req.Width > maxPanelSize || req.Height > maxPanelSize {
		response.FromError(w, core.WrapError(core.ErrInvalidRequest,
			fmt.Errorf("size %dx%d out of range", req.Width, req.Height)))
		return
	}

	container.Resize(req.Width, req.Height)

	response.JSON(w, http.StatusOK, map[string]any{
		"container": id,
		"width":     req.Width,
		"height":    req.Height,
	})
}
