// GeoCore - Geospatial Engine Core
//
// This is the main entry point for the GeoCore host. GeoCore is a
// headless geospatial engine built around a plugin manager:
//   - Feature stores and layers shared through the plugin context
//   - Dependency-ordered plugin lifecycle (providers, analyses, tools)
//   - HTTP API and WebSocket event stream
//   - Optional MQTT bridge publishing engine events to a broker
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/tidefall/geocore/internal/api"
	"github.com/tidefall/geocore/internal/bus"
	"github.com/tidefall/geocore/internal/infrastructure/config"
	"github.com/tidefall/geocore/internal/infrastructure/logging"
	"github.com/tidefall/geocore/internal/layer"
	"github.com/tidefall/geocore/internal/plugin"
	"github.com/tidefall/geocore/internal/plugins/mqttbridge"
	"github.com/tidefall/geocore/internal/plugins/stats"
	"github.com/tidefall/geocore/internal/providers/sqlite"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting GeoCore",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Shared engine state: layer collection and event bus
	layers := layer.NewCollection()
	b := bus.New()
	b.SetLogger(log)
	layers.SetBus(b)

	// Plugin manager
	mgr, err := plugin.NewManager(plugin.ManagerConfig{
		EngineVersion: engineVersion(),
		DataDir:       cfg.Engine.DataDir,
	}, layers, b, log)
	if err != nil {
		return fmt.Errorf("creating plugin manager: %w", err)
	}

	// Register built-in plugins
	if err := registerBuiltins(mgr, cfg, log); err != nil {
		return err
	}

	// Start all registered plugins in dependency order. Individual plugin
	// failures are isolated; a partially started engine is still useful.
	if err := mgr.StartAll(ctx); err != nil {
		log.Warn("some plugins failed to start", "error", err)
	}
	for _, h := range mgr.List() {
		log.Info("plugin", "id", h.Descriptor().ID, "state", h.State().String())
	}

	// Start API server
	server, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log,
		Manager: mgr,
		Layers:  layers,
		Bus:     b,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Stop plugins in reverse start order. Use a fresh context: the
	// signal context is already cancelled.
	stopCtx := context.Background()
	if err := mgr.StopAll(stopCtx); err != nil {
		log.Error("error stopping plugins", "error", err)
	}

	log.Info("GeoCore stopped")
	return nil
}

// registerBuiltins registers the built-in plugins, applies per-plugin
// settings from the config file, and disables the ones the config lists.
func registerBuiltins(mgr *plugin.Manager, cfg *config.Config, log *logging.Logger) error {
	builtins := []plugin.Plugin{
		sqlite.New(),
		stats.New(),
	}
	if cfg.MQTT.Enabled {
		builtins = append(builtins, mqttbridge.New(cfg.MQTT))
	} else {
		log.Info("MQTT bridge disabled")
	}

	for _, p := range builtins {
		id := p.Descriptor().ID

		if err := mgr.Register(p); err != nil {
			return fmt.Errorf("registering plugin %q: %w", id, err)
		}

		if settings, ok := cfg.Plugins.Settings[id]; ok {
			if err := p.ApplySettings(plugin.Settings(settings)); err != nil {
				return fmt.Errorf("applying settings to plugin %q: %w", id, err)
			}
			log.Info("plugin settings applied", "plugin", id)
		}

		if slices.Contains(cfg.Plugins.Disabled, id) {
			if err := mgr.Disable(id); err != nil {
				return fmt.Errorf("disabling plugin %q: %w", id, err)
			}
			log.Info("plugin disabled by config", "plugin", id)
		}
	}

	return nil
}

// engineVersion returns the semantic version used for the plugin
// registration version gate. Dev builds gate as 0.0.0.
func engineVersion() string {
	if version == "dev" {
		return "0.0.0"
	}
	return version
}

// getConfigPath returns the configuration file path.
// Uses GEOCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GEOCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
