package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tidefall/geocore/internal/plugin"
)

// pluginResponse is the JSON representation of a registered plugin.
type pluginResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Version      string   `json:"version"`
	Author       string   `json:"author,omitempty"`
	Types        []string `json:"types"`
	Dependencies []string `json:"dependencies,omitempty"`
	State        string   `json:"state"`
	LastError    string   `json:"last_error,omitempty"`
}

func pluginToResponse(h *plugin.Handle) pluginResponse {
	desc := h.Descriptor()
	types := make([]string, 0, len(desc.Types))
	for _, t := range desc.Types.List() {
		types = append(types, string(t))
	}
	resp := pluginResponse{
		ID:           desc.ID,
		Name:         desc.Name,
		Description:  desc.Description,
		Version:      desc.Version,
		Author:       desc.Author,
		Types:        types,
		Dependencies: desc.Dependencies,
		State:        h.State().String(),
	}
	if err := h.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	return resp
}

// handleListPlugins returns all registered plugins in registration order.
func (s *Server) handleListPlugins(w http.ResponseWriter, _ *http.Request) {
	handles := s.manager.List()
	plugins := make([]pluginResponse, 0, len(handles))
	for _, h := range handles {
		plugins = append(plugins, pluginToResponse(h))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plugins": plugins,
		"count":   len(plugins),
	})
}

// handleGetPlugin returns a single plugin by id.
func (s *Server) handleGetPlugin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h, ok := s.manager.Get(id)
	if !ok {
		writeNotFound(w, "plugin not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, pluginToResponse(h))
}

// handleStartPlugin starts a plugin and its not-yet-started dependencies.
func (s *Server) handleStartPlugin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Start(r.Context(), id); err != nil {
		writePluginError(w, err)
		return
	}
	h, _ := s.manager.Get(id)
	writeJSON(w, http.StatusOK, pluginToResponse(h))
}

// handleStopPlugin stops a started plugin.
func (s *Server) handleStopPlugin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Stop(r.Context(), id); err != nil {
		writePluginError(w, err)
		return
	}
	h, _ := s.manager.Get(id)
	writeJSON(w, http.StatusOK, pluginToResponse(h))
}

// handleDisablePlugin disables a plugin, stopping it first if needed.
func (s *Server) handleDisablePlugin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Disable(id); err != nil {
		writePluginError(w, err)
		return
	}
	h, _ := s.manager.Get(id)
	writeJSON(w, http.StatusOK, pluginToResponse(h))
}

// runAnalysisRequest is the body of POST /plugins/{id}/analysis.
type runAnalysisRequest struct {
	Parameters map[string]any `json:"parameters"`
}

// runResponse is the JSON representation of an analysis run.
type runResponse struct {
	ID       string         `json:"id"`
	PluginID string         `json:"plugin_id"`
	Status   string         `json:"status"`
	Progress int            `json:"progress"`
	Message  string         `json:"message,omitempty"`
	Outputs  map[string]any `json:"outputs,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func runToResponse(run *plugin.Run) runResponse {
	prog := run.Progress()
	resp := runResponse{
		ID:       run.ID(),
		PluginID: run.PluginID(),
		Status:   string(run.Status()),
		Progress: prog.Percent,
		Message:  prog.Message,
	}
	if run.Status() != plugin.RunRunning {
		result, err := run.Result()
		resp.Outputs = result.Outputs
		if result.Message != "" {
			resp.Message = result.Message
		}
		if err != nil {
			resp.Error = err.Error()
		}
	}
	return resp
}

// handleRunAnalysis validates parameters and launches an analysis run.
// The run executes in the background; poll /runs/{id} or subscribe to the
// WebSocket stream for progress and completion.
func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req runAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	run, err := s.manager.RunAnalysis(r.Context(), id, plugin.Parameters(req.Parameters))
	if err != nil {
		writePluginError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, runToResponse(run))
}

// handleListRuns returns all known analysis runs.
func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	runs := s.manager.Runs()
	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runToResponse(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  out,
		"count": len(out),
	})
}

// handleGetRun returns a single analysis run by id.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, ok := s.manager.Run(id)
	if !ok {
		writeNotFound(w, "run not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, runToResponse(run))
}

// handleCancelRun requests cooperative cancellation of a running analysis.
// Cancellation is asynchronous: the run settles into a terminal status once
// the analysis observes it.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, ok := s.manager.Run(id)
	if !ok {
		writeNotFound(w, "run not found: "+id)
		return
	}
	run.Cancel()
	writeJSON(w, http.StatusAccepted, runToResponse(run))
}

// handleProviderMetadata returns dataset metadata from a data provider.
func (s *Server) handleProviderMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta, err := s.manager.ProviderMetadata(r.Context(), id)
	if err != nil {
		writePluginError(w, err)
		return
	}

	datasets := make([]map[string]any, 0, len(meta.Datasets))
	for _, ds := range meta.Datasets {
		datasets = append(datasets, map[string]any{
			"name":          ds.Name,
			"feature_count": ds.FeatureCount,
			"geometry_type": string(ds.GeometryType),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":   meta.Source,
		"datasets": datasets,
	})
}

// handleTestConnection verifies a data provider can reach its source.
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.TestProviderConnection(r.Context(), id); err != nil {
		writePluginError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
