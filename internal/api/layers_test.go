package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/tidefall/geocore/internal/feature"
	"github.com/tidefall/geocore/internal/geometry"
	"github.com/tidefall/geocore/internal/layer"
)

// populateCities adds a layer with a small grid of point features.
func populateCities(t *testing.T, layers *layer.Collection) {
	t.Helper()

	store := feature.NewStore()
	add := func(id string, x, y float64, population int64, capital bool) {
		f := feature.NewWithID(id)
		f.SetGeometry(geometry.NewPoint(x, y))
		if err := f.Attributes().Set("population", feature.Int(population)); err != nil {
			t.Fatalf("Set population: %v", err)
		}
		if err := f.Attributes().Set("capital", feature.Bool(capital)); err != nil {
			t.Fatalf("Set capital: %v", err)
		}
		if err := store.Add(f); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}
	add("city-1", 0, 0, 1000, true)
	add("city-2", 10, 10, 500, false)
	add("city-3", 20, 20, 1000, false)

	if _, err := layers.Add("cities", store); err != nil {
		t.Fatalf("Add layer: %v", err)
	}
}

func TestListLayers(t *testing.T) {
	srv, layers, _ := testServer(t)
	populateCities(t, layers)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/layers/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Fatalf("count = %v, want 1", body["count"])
	}
	entries, _ := body["layers"].([]any)
	first, _ := entries[0].(map[string]any)
	if first["name"] != "cities" {
		t.Errorf("layers[0].name = %v, want cities", first["name"])
	}
	if first["feature_count"] != float64(3) {
		t.Errorf("feature_count = %v, want 3", first["feature_count"])
	}
	extent, _ := first["extent"].([]any)
	if len(extent) != 4 || extent[0] != float64(0) || extent[2] != float64(20) {
		t.Errorf("extent = %v, want [0 0 20 20]", first["extent"])
	}
}

func TestGetLayer(t *testing.T) {
	srv, layers, _ := testServer(t)
	populateCities(t, layers)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/layers/cities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["name"] != "cities" {
		t.Errorf("name = %v, want cities", body["name"])
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/layers/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestQueryFeaturesAll(t *testing.T) {
	srv, layers, _ := testServer(t)
	populateCities(t, layers)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/layers/cities/features", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(3) || body["total"] != float64(3) {
		t.Fatalf("count/total = %v/%v, want 3/3", body["count"], body["total"])
	}

	features, _ := body["features"].([]any)
	first, _ := features[0].(map[string]any)
	if first["id"] != "city-1" {
		t.Errorf("features[0].id = %v, want city-1", first["id"])
	}
	geom, _ := first["geometry"].(map[string]any)
	if geom["type"] != "point" {
		t.Errorf("geometry.type = %v, want point", geom["type"])
	}
	attrs, _ := first["attributes"].(map[string]any)
	if attrs["population"] != float64(1000) {
		t.Errorf("population = %v, want 1000", attrs["population"])
	}
}

func TestQueryFeaturesBBox(t *testing.T) {
	srv, layers, _ := testServer(t)
	populateCities(t, layers)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/layers/cities/features?bbox=-1,-1,11,11", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"] != float64(2) {
		t.Errorf("count = %v, want 2 (city-1 and city-2)", body["count"])
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/layers/cities/features?bbox=bad", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed bbox status = %d, want 400", rec.Code)
	}
}

func TestQueryFeaturesAttribute(t *testing.T) {
	srv, layers, _ := testServer(t)
	populateCities(t, layers)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/layers/cities/features?attr=population:1000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"] != float64(2) {
		t.Errorf("count = %v, want 2 (population 1000)", body["count"])
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/layers/cities/features?attr=capital:true", "")
	if body := decodeBody(t, rec); body["count"] != float64(1) {
		t.Errorf("capital filter count = %v, want 1", body["count"])
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/layers/cities/features?attr=nocolon", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed attr status = %d, want 400", rec.Code)
	}
}

func TestQueryFeaturesBBoxAndAttributeCombined(t *testing.T) {
	srv, layers, _ := testServer(t)
	populateCities(t, layers)

	rec := doRequest(t, srv, http.MethodGet,
		"/api/v1/layers/cities/features?bbox=-1,-1,11,11&attr=population:1000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Fatalf("count = %v, want 1 (city-1 only)", body["count"])
	}
	features, _ := body["features"].([]any)
	first, _ := features[0].(map[string]any)
	if first["id"] != "city-1" {
		t.Errorf("features[0].id = %v, want city-1", first["id"])
	}
}

func TestQueryFeaturesLimit(t *testing.T) {
	srv, layers, _ := testServer(t)
	populateCities(t, layers)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/layers/cities/features?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
	if body["total"] != float64(3) {
		t.Errorf("total = %v, want 3", body["total"])
	}

	for _, bad := range []string{"0", "-1", "abc"} {
		rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/layers/cities/features?limit=%s", bad), "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want 400", bad, rec.Code)
		}
	}
}
