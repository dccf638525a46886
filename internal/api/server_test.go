package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidefall/geocore/internal/bus"
	"github.com/tidefall/geocore/internal/feature"
	"github.com/tidefall/geocore/internal/geometry"
	"github.com/tidefall/geocore/internal/infrastructure/config"
	"github.com/tidefall/geocore/internal/infrastructure/logging"
	"github.com/tidefall/geocore/internal/layer"
	"github.com/tidefall/geocore/internal/plugin"
)

// apiPlugin is a configurable plugin for handler tests.
type apiPlugin struct {
	desc     plugin.Descriptor
	settings plugin.Settings

	execute func(ctx context.Context, params plugin.Parameters, progress plugin.ProgressFunc) (plugin.Result, error)
	caps    plugin.CapabilitySet
	store   *feature.Store
}

func (p *apiPlugin) Descriptor() plugin.Descriptor { return p.desc }

func (p *apiPlugin) Initialize(_ context.Context, _ *plugin.Context) error { return nil }

func (p *apiPlugin) Start(_ context.Context) error { return nil }

func (p *apiPlugin) Stop(_ context.Context) error { return nil }

func (p *apiPlugin) Settings() plugin.Settings { return p.settings }

func (p *apiPlugin) ApplySettings(s plugin.Settings) error {
	p.settings = s
	return nil
}

func (p *apiPlugin) ValidateParameters(params plugin.Parameters) error {
	if _, ok := params["layer"]; !ok {
		return plugin.ErrInvalidArgument
	}
	return nil
}

func (p *apiPlugin) Execute(ctx context.Context, params plugin.Parameters, progress plugin.ProgressFunc) (plugin.Result, error) {
	if p.execute != nil {
		return p.execute(ctx, params, progress)
	}
	return plugin.Result{Success: true, Outputs: map[string]any{"count": 1}}, nil
}

func (p *apiPlugin) Capabilities() plugin.CapabilitySet { return p.caps }

func (p *apiPlugin) TestConnection(_ context.Context) error { return nil }

func (p *apiPlugin) Metadata(_ context.Context) (plugin.ProviderMetadata, error) {
	return plugin.ProviderMetadata{
		Source: "memory",
		Datasets: []plugin.DatasetInfo{
			{Name: "roads", FeatureCount: 2, GeometryType: geometry.TypePoint},
		},
	}, nil
}

func (p *apiPlugin) Load(_ context.Context, _ string) (*feature.Store, error) {
	return p.store, nil
}

func newAnalysisPlugin(id string) *apiPlugin {
	return &apiPlugin{
		desc: plugin.Descriptor{
			ID:      id,
			Name:    "Test Analysis",
			Version: "1.0.0",
			Types:   plugin.NewTypeSet(plugin.TypeAnalysis),
		},
		settings: plugin.Settings{},
	}
}

func newProviderPlugin(id string) *apiPlugin {
	return &apiPlugin{
		desc: plugin.Descriptor{
			ID:      id,
			Name:    "Test Provider",
			Version: "1.0.0",
			Types:   plugin.NewTypeSet(plugin.TypeDataProvider),
		},
		settings: plugin.Settings{},
		caps:     plugin.NewCapabilitySet(plugin.CapRead),
		store:    feature.NewStore(),
	}
}

// testServer builds a server with an in-memory manager and layer collection.
func testServer(t *testing.T, plugins ...plugin.Plugin) (*Server, *layer.Collection, *bus.Bus) {
	t.Helper()

	layers := layer.NewCollection()
	b := bus.New()
	logger := logging.Default()

	mgr, err := plugin.NewManager(plugin.ManagerConfig{EngineVersion: "1.0.0"}, layers, b, logger)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	for _, p := range plugins {
		if err := mgr.Register(p); err != nil {
			t.Fatalf("Register(%s): %v", p.Descriptor().ID, err)
		}
	}
	if err := mgr.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}

	srv, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:      config.WebSocketConfig{Path: "/ws", MaxMessageSize: 65536, PingInterval: 30, PongTimeout: 60},
		Logger:  logger,
		Manager: mgr,
		Layers:  layers,
		Bus:     b,
		Version: "1.0.0-test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, layers, b
}

// doRequest runs a request through the server's router and returns the recorder.
func doRequest(t *testing.T, srv *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response body: %v\nbody: %s", err, rec.Body.String())
	}
	return out
}

func TestNewRequiresDependencies(t *testing.T) {
	logger := logging.Default()
	layers := layer.NewCollection()
	mgr, err := plugin.NewManager(plugin.ManagerConfig{EngineVersion: "1.0.0"}, layers, bus.New(), logger)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := New(Deps{Manager: mgr, Layers: layers}); err == nil {
		t.Error("expected error when logger is missing")
	}
	if _, err := New(Deps{Logger: logger, Layers: layers}); err == nil {
		t.Error("expected error when manager is missing")
	}
	if _, err := New(Deps{Logger: logger, Manager: mgr}); err == nil {
		t.Error("expected error when layer collection is missing")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, layers, _ := testServer(t, newAnalysisPlugin("geocore.analysis.test"))
	if _, err := layers.Add("roads", feature.NewStore()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "1.0.0-test" {
		t.Errorf("version = %v, want 1.0.0-test", body["version"])
	}
	if body["plugins"] != float64(1) {
		t.Errorf("plugins = %v, want 1", body["plugins"])
	}
	if body["layers"] != float64(1) {
		t.Errorf("layers = %v, want 1", body["layers"])
	}
}

func TestListPlugins(t *testing.T) {
	srv, _, _ := testServer(t,
		newAnalysisPlugin("geocore.analysis.test"),
		newProviderPlugin("geocore.provider.test"),
	)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/plugins/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", body["count"])
	}
	plugins, ok := body["plugins"].([]any)
	if !ok || len(plugins) != 2 {
		t.Fatalf("plugins = %v, want 2 entries", body["plugins"])
	}
	first, ok := plugins[0].(map[string]any)
	if !ok {
		t.Fatalf("plugins[0] has unexpected shape: %v", plugins[0])
	}
	if first["id"] != "geocore.analysis.test" {
		t.Errorf("plugins[0].id = %v, want geocore.analysis.test (registration order)", first["id"])
	}
	if first["state"] != "started" {
		t.Errorf("plugins[0].state = %v, want started", first["state"])
	}
}

func TestGetPlugin(t *testing.T) {
	srv, _, _ := testServer(t, newAnalysisPlugin("geocore.analysis.test"))

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/plugins/geocore.analysis.test", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["name"] != "Test Analysis" {
		t.Errorf("name = %v, want Test Analysis", body["name"])
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/plugins/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPluginLifecycleActions(t *testing.T) {
	srv, _, _ := testServer(t, newAnalysisPlugin("geocore.analysis.test"))

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/plugins/geocore.analysis.test/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["state"] != "stopped" {
		t.Errorf("state after stop = %v, want stopped", body["state"])
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/plugins/geocore.analysis.test/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["state"] != "started" {
		t.Errorf("state after start = %v, want started", body["state"])
	}

	// Starting an already-started plugin conflicts.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/plugins/geocore.analysis.test/start", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("double start status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/plugins/geocore.analysis.test/disable", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["state"] != "disabled" {
		t.Errorf("state after disable = %v, want disabled", body["state"])
	}

	// Unknown plugin id maps to 404.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/plugins/nope/start", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown plugin start status = %d, want 404", rec.Code)
	}
}

func TestRunAnalysisEndpoint(t *testing.T) {
	srv, _, _ := testServer(t, newAnalysisPlugin("geocore.analysis.test"))

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/plugins/geocore.analysis.test/analysis",
		`{"parameters": {"layer": "roads"}}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	runID, _ := body["id"].(string)
	if runID == "" {
		t.Fatal("run id missing from response")
	}

	// Wait for the run to settle, then fetch the terminal state.
	run, ok := srv.manager.Run(runID)
	if !ok {
		t.Fatalf("run %s not tracked by manager", runID)
	}
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/runs/"+runID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get run status = %d, want 200", rec.Code)
	}
	body = decodeBody(t, rec)
	if body["status"] != string(plugin.RunSucceeded) {
		t.Errorf("run status = %v, want %s", body["status"], plugin.RunSucceeded)
	}
	outputs, _ := body["outputs"].(map[string]any)
	if outputs["count"] != float64(1) {
		t.Errorf("outputs.count = %v, want 1", outputs["count"])
	}
}

func TestRunAnalysisOutlivesRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := newAnalysisPlugin("geocore.analysis.slow")
	p.execute = func(ctx context.Context, _ plugin.Parameters, _ plugin.ProgressFunc) (plugin.Result, error) {
		close(started)
		select {
		case <-release:
			return plugin.Result{Success: true}, nil
		case <-ctx.Done():
			return plugin.Result{Cancelled: true}, ctx.Err()
		}
	}
	srv, _, _ := testServer(t, p)

	// A real server cancels the request context once the handler returns;
	// the launched run must not be tied to it.
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/plugins/geocore.analysis.slow/analysis",
		"application/json", strings.NewReader(`{"parameters": {"layer": "roads"}}`))
	if err != nil {
		t.Fatalf("POST analysis: %v", err)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %v", resp.StatusCode, body)
	}
	runID, _ := body["id"].(string)
	run, ok := srv.manager.Run(runID)
	if !ok {
		t.Fatalf("run %s not tracked by manager", runID)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("analysis never started executing")
	}
	select {
	case <-run.Done():
		t.Fatalf("run settled as %s after the request returned", run.Status())
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
	}
	if run.Status() != plugin.RunSucceeded {
		t.Errorf("run status = %s, want %s", run.Status(), plugin.RunSucceeded)
	}
}

func TestRunAnalysisValidationFailure(t *testing.T) {
	srv, _, _ := testServer(t, newAnalysisPlugin("geocore.analysis.test"))

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/plugins/geocore.analysis.test/analysis",
		`{"parameters": {}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/plugins/geocore.analysis.test/analysis",
		`{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestCancelRunEndpoint(t *testing.T) {
	p := newAnalysisPlugin("geocore.analysis.slow")
	p.execute = func(ctx context.Context, _ plugin.Parameters, _ plugin.ProgressFunc) (plugin.Result, error) {
		<-ctx.Done()
		return plugin.Result{Cancelled: true}, ctx.Err()
	}
	srv, _, _ := testServer(t, p)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/plugins/geocore.analysis.slow/analysis",
		`{"parameters": {"layer": "roads"}}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	runID, _ := decodeBody(t, rec)["id"].(string)

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/runs/"+runID+"/cancel", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("cancel status = %d, want 202", rec.Code)
	}

	run, _ := srv.manager.Run(runID)
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not settle after cancel")
	}
	if run.Status() != plugin.RunCancelled {
		t.Errorf("run status = %s, want %s", run.Status(), plugin.RunCancelled)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/runs/nope/cancel", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("cancel unknown run status = %d, want 404", rec.Code)
	}
}

func TestListRuns(t *testing.T) {
	srv, _, _ := testServer(t, newAnalysisPlugin("geocore.analysis.test"))

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/runs/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"] != float64(0) {
		t.Errorf("count = %v, want 0", body["count"])
	}
}

func TestProviderEndpoints(t *testing.T) {
	srv, _, _ := testServer(t,
		newProviderPlugin("geocore.provider.test"),
		newAnalysisPlugin("geocore.analysis.test"),
	)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/plugins/geocore.provider.test/test-connection", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("test-connection status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/plugins/geocore.provider.test/metadata", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metadata status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["source"] != "memory" {
		t.Errorf("source = %v, want memory", body["source"])
	}
	datasets, _ := body["datasets"].([]any)
	if len(datasets) != 1 {
		t.Fatalf("datasets = %v, want 1 entry", body["datasets"])
	}

	// Provider operations against a non-provider plugin are rejected.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/plugins/geocore.analysis.test/metadata", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("metadata on analysis plugin status = %d, want 400", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied" {
		t.Errorf("X-Request-ID = %q, want client-supplied", got)
	}
}
