// Package stats implements the built-in attribute statistics analysis
// plugin. Given a layer and a numeric attribute it computes count, min,
// max, mean and sum over the layer's features, reporting progress and
// honouring cancellation between features.
package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/tidefall/geocore/internal/feature"
	"github.com/tidefall/geocore/internal/plugin"
)

// PluginID is the plugin's stable id.
const PluginID = "geocore.analysis.stats"

// Parameter keys.
const (
	ParamLayer     = "layer"
	ParamAttribute = "attribute"
)

// Sentinel errors.
var (
	ErrMissingParam = errors.New("stats: missing parameter")
	ErrUnknownLayer = errors.New("stats: unknown layer")
)

// progressEvery is how many features are processed between progress
// notifications.
const progressEvery = 100

// Analysis computes summary statistics for one numeric attribute.
type Analysis struct {
	mu       sync.Mutex
	settings plugin.Settings
	pc       *plugin.Context
}

// New creates the statistics analysis plugin.
func New() *Analysis {
	return &Analysis{settings: plugin.Settings{}}
}

// Descriptor implements plugin.Plugin.
func (a *Analysis) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          PluginID,
		Name:        "Attribute Statistics",
		Description: "Computes count, min, max, mean and sum of a numeric attribute",
		Version:     "1.0.0",
		Author:      "Tidefall",
		Types:       plugin.NewTypeSet(plugin.TypeAnalysis),
	}
}

// Initialize implements plugin.Plugin.
func (a *Analysis) Initialize(ctx context.Context, pc *plugin.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pc = pc
	return nil
}

// Start implements plugin.Plugin. The analysis holds no resources.
func (a *Analysis) Start(ctx context.Context) error { return nil }

// Stop implements plugin.Plugin.
func (a *Analysis) Stop(ctx context.Context) error { return nil }

// Settings implements plugin.Plugin.
func (a *Analysis) Settings() plugin.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.Clone()
}

// ApplySettings implements plugin.Plugin.
func (a *Analysis) ApplySettings(s plugin.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = s.Clone()
	return nil
}

// ValidateParameters implements plugin.Analysis. It is side-effect free.
func (a *Analysis) ValidateParameters(params plugin.Parameters) error {
	for _, key := range []string{ParamLayer, ParamAttribute} {
		v, ok := params[key].(string)
		if !ok || v == "" {
			return fmt.Errorf("%w: %q (string)", ErrMissingParam, key)
		}
	}
	return nil
}

// Execute implements plugin.Analysis. Numeric attribute values (int or
// float kind) contribute to the statistics; features without the
// attribute or with a non-numeric value are counted as skipped.
func (a *Analysis) Execute(ctx context.Context, params plugin.Parameters, progress plugin.ProgressFunc) (plugin.Result, error) {
	layerName := params[ParamLayer].(string)
	attrName := params[ParamAttribute].(string)

	a.mu.Lock()
	pc := a.pc
	a.mu.Unlock()
	if pc == nil || pc.Layers == nil {
		return plugin.Result{Success: false, Message: "no layer collection"}, nil
	}

	l, ok := pc.Layers.Get(layerName)
	if !ok {
		return plugin.Result{}, fmt.Errorf("%w: %q", ErrUnknownLayer, layerName)
	}

	total := l.Store.Len()
	if progress != nil {
		progress(plugin.Progress{Percent: 0, Message: "scanning " + layerName, Cancelable: true})
	}

	var (
		count   int
		skipped int
		sum     float64
		minVal  = math.Inf(1)
		maxVal  = math.Inf(-1)
		seen    int
	)

	for f := range l.Store.All() {
		select {
		case <-ctx.Done():
			return plugin.Result{Cancelled: true, Message: "cancelled"}, ctx.Err()
		default:
		}

		seen++
		if progress != nil && seen%progressEvery == 0 && total > 0 {
			progress(plugin.Progress{Percent: seen * 100 / total, Cancelable: true})
		}

		v, ok := f.Attributes().Get(attrName)
		if !ok {
			skipped++
			continue
		}
		n, ok := numeric(v)
		if !ok {
			skipped++
			continue
		}

		count++
		sum += n
		minVal = math.Min(minVal, n)
		maxVal = math.Max(maxVal, n)
	}

	outputs := map[string]any{
		"count":   count,
		"skipped": skipped,
	}
	if count > 0 {
		outputs["sum"] = sum
		outputs["min"] = minVal
		outputs["max"] = maxVal
		outputs["mean"] = sum / float64(count)
	}

	if progress != nil {
		progress(plugin.Progress{Percent: 100, Message: "done"})
	}
	return plugin.Result{
		Success: true,
		Message: fmt.Sprintf("%d of %d features carried %q", count, total, attrName),
		Outputs: outputs,
	}, nil
}

// numeric widens int and float attribute values to float64.
func numeric(v feature.Value) (float64, bool) {
	if f, ok := v.AsFloat(); ok {
		return f, true
	}
	if i, ok := v.AsInt(); ok {
		return float64(i), true
	}
	return 0, false
}

var _ plugin.Analysis = (*Analysis)(nil)
