package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tidefall/geocore/internal/feature"
	"github.com/tidefall/geocore/internal/geometry"
	"github.com/tidefall/geocore/internal/layer"
)

// defaultFeatureLimit caps feature query responses when the client does
// not pass an explicit limit.
const defaultFeatureLimit = 1000

// layerResponse is the JSON representation of a layer.
type layerResponse struct {
	Name         string      `json:"name"`
	Visible      bool        `json:"visible"`
	FeatureCount int         `json:"feature_count"`
	Extent       *[4]float64 `json:"extent,omitempty"`
}

func layerToResponse(l *layer.Layer) layerResponse {
	resp := layerResponse{
		Name:         l.Name,
		Visible:      l.Visible,
		FeatureCount: l.Store.Len(),
	}
	if env, ok := l.Store.Extent(); ok {
		resp.Extent = &[4]float64{env.MinX, env.MinY, env.MaxX, env.MaxY}
	}
	return resp
}

// featureResponse is the JSON representation of a feature.
type featureResponse struct {
	ID         string         `json:"id"`
	Geometry   *geometryJSON  `json:"geometry,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// geometryJSON carries the geometry type and bounding box. Coordinate-level
// serialization is left to export plugins; the query API reports shape and
// extent only.
type geometryJSON struct {
	Type string     `json:"type"`
	BBox [4]float64 `json:"bbox"`
}

func featureToResponse(f *feature.Feature) featureResponse {
	attrs := f.Attributes()
	out := featureResponse{
		ID:         f.ID(),
		Attributes: make(map[string]any, attrs.Len()),
	}
	for _, name := range attrs.Names() {
		if v, ok := attrs.Get(name); ok {
			out.Attributes[name] = v.Interface()
		}
	}
	if g := f.Geometry(); g != nil {
		env := g.Envelope()
		out.Geometry = &geometryJSON{
			Type: string(g.Type()),
			BBox: [4]float64{env.MinX, env.MinY, env.MaxX, env.MaxY},
		}
	}
	return out
}

// handleListLayers returns all layers in z-order.
func (s *Server) handleListLayers(w http.ResponseWriter, _ *http.Request) {
	all := s.layers.List()
	layers := make([]layerResponse, 0, len(all))
	for _, l := range all {
		layers = append(layers, layerToResponse(l))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"layers": layers,
		"count":  len(layers),
	})
}

// handleGetLayer returns a single layer by name.
func (s *Server) handleGetLayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	l, ok := s.layers.Get(name)
	if !ok {
		writeNotFound(w, "layer not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, layerToResponse(l))
}

// handleQueryFeatures returns features from a layer, optionally filtered by
// bounding box (?bbox=minx,miny,maxx,maxy) and attribute equality
// (?attr=name:value). Results are capped by ?limit (default 1000).
func (s *Server) handleQueryFeatures(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	l, ok := s.layers.Get(name)
	if !ok {
		writeNotFound(w, "layer not found: "+name)
		return
	}

	q := r.URL.Query()

	limit := defaultFeatureLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var (
		env    geometry.Envelope
		hasEnv bool
	)
	if raw := q.Get("bbox"); raw != "" {
		parsed, err := parseBBox(raw)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		env, hasEnv = parsed, true
	}

	var (
		attrName  string
		attrValue feature.Value
		hasAttr   bool
	)
	if raw := q.Get("attr"); raw != "" {
		n, v, err := parseAttrFilter(raw)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		attrName, attrValue, hasAttr = n, v, true
	}

	// Base iterator: spatial filter when a bbox is given, attribute index
	// otherwise, full scan as the fallback.
	seq := l.Store.All()
	switch {
	case hasEnv:
		seq = l.Store.InExtent(env)
	case hasAttr:
		seq = l.Store.FilterByAttribute(attrName, attrValue)
		hasAttr = false
	}

	features := make([]featureResponse, 0)
	total := 0
	for f := range seq {
		if hasAttr && !matchesAttribute(f, attrName, attrValue) {
			continue
		}
		total++
		if len(features) < limit {
			features = append(features, featureToResponse(f))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"layer":    name,
		"features": features,
		"count":    len(features),
		"total":    total,
	})
}

// parseBBox parses "minx,miny,maxx,maxy" into an envelope.
func parseBBox(raw string) (geometry.Envelope, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return geometry.Envelope{}, fmt.Errorf("bbox must be minx,miny,maxx,maxy")
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Envelope{}, fmt.Errorf("bbox component %d is not a number", i+1)
		}
		vals[i] = v
	}
	return geometry.NewEnvelope(vals[0], vals[1], vals[2], vals[3]), nil
}

// parseAttrFilter parses "name:value" into an attribute name and a typed
// value. The value is tried as int, float, then bool before falling back
// to string.
func parseAttrFilter(raw string) (string, feature.Value, error) {
	name, val, found := strings.Cut(raw, ":")
	if !found || name == "" {
		return "", feature.Null(), fmt.Errorf("attr must be name:value")
	}
	if i, err := strconv.ParseInt(val, 10, 64); err == nil {
		return name, feature.Int(i), nil
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return name, feature.Float(f), nil
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return name, feature.Bool(b), nil
	}
	return name, feature.String(val), nil
}

// matchesAttribute reports whether a feature carries the given attribute
// with an equal value.
func matchesAttribute(f *feature.Feature, name string, want feature.Value) bool {
	got, ok := f.Attributes().Get(name)
	return ok && got.Equal(want)
}
