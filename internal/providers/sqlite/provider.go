package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tidefall/geocore/internal/feature"
	"github.com/tidefall/geocore/internal/geometry"
	"github.com/tidefall/geocore/internal/infrastructure/database"
	"github.com/tidefall/geocore/internal/plugin"
)

// PluginID is the provider's stable plugin id.
const PluginID = "geocore.provider.sqlite"

// Reserved column names. Every other column loads as a feature attribute.
const (
	colID = "id"
	colX  = "x"
	colY  = "y"
)

// Sentinel errors.
var (
	ErrNotStarted     = errors.New("sqlite provider: not started")
	ErrNoPath         = errors.New("sqlite provider: no database path configured")
	ErrUnknownDataset = errors.New("sqlite provider: unknown dataset")
	ErrBadDataset     = errors.New("sqlite provider: invalid dataset name")
)

// Provider is a data-provider plugin backed by a SQLite file. The zero
// value is not usable; use New.
type Provider struct {
	mu       sync.Mutex
	settings plugin.Settings
	pc       *plugin.Context
	db       *database.DB
}

// New creates an unstarted SQLite provider.
func New() *Provider {
	return &Provider{settings: plugin.Settings{}}
}

// Descriptor implements plugin.Plugin.
func (p *Provider) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          PluginID,
		Name:        "SQLite Provider",
		Description: "Loads and saves point datasets from a SQLite database file",
		Version:     "1.0.0",
		Author:      "Tidefall",
		Types:       plugin.NewTypeSet(plugin.TypeDataProvider),
	}
}

// Initialize implements plugin.Plugin.
func (p *Provider) Initialize(ctx context.Context, pc *plugin.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pc = pc
	return nil
}

// Start opens the database file named by the "path" setting, defaulting
// to features.db under the plugin data directory.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := p.settings.GetString("path", "")
	if path == "" && p.pc != nil && p.pc.DataDir != "" {
		path = filepath.Join(p.pc.DataDir, "features.db")
	}
	if path == "" {
		return ErrNoPath
	}

	db, err := database.Open(database.Config{
		Path:        path,
		WALMode:     p.settings.GetBool("wal", true),
		BusyTimeout: p.settings.GetInt("busy_timeout", 5),
	})
	if err != nil {
		return fmt.Errorf("sqlite provider: %w", err)
	}
	p.db = db

	if p.pc != nil {
		p.pc.Logger.Info("sqlite provider started", "path", path)
	}
	return nil
}

// Stop closes the database.
func (p *Provider) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// Settings implements plugin.Plugin.
func (p *Provider) Settings() plugin.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.Clone()
}

// ApplySettings implements plugin.Plugin. A new path takes effect at the
// next Start.
func (p *Provider) ApplySettings(s plugin.Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s.Clone()
	return nil
}

// ValidateSettings implements plugin.SettingsValidator.
func (p *Provider) ValidateSettings(s plugin.Settings) (bool, string) {
	if timeout := s.GetInt("busy_timeout", 5); timeout < 0 {
		return false, "busy_timeout must not be negative"
	}
	return true, ""
}

// Capabilities implements plugin.DataProvider.
func (p *Provider) Capabilities() plugin.CapabilitySet {
	return plugin.NewCapabilitySet(
		plugin.CapRead,
		plugin.CapCreate,
		plugin.CapBulkInsert,
		plugin.CapTransaction,
	)
}

// TestConnection implements plugin.DataProvider. It never mutates the
// database.
func (p *Provider) TestConnection(ctx context.Context) error {
	db, err := p.database()
	if err != nil {
		return err
	}
	return db.HealthCheck(ctx)
}

// Metadata lists the dataset tables and their row counts.
func (p *Provider) Metadata(ctx context.Context) (plugin.ProviderMetadata, error) {
	db, err := p.database()
	if err != nil {
		return plugin.ProviderMetadata{}, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return plugin.ProviderMetadata{}, fmt.Errorf("sqlite provider: listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return plugin.ProviderMetadata{}, fmt.Errorf("sqlite provider: scanning table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return plugin.ProviderMetadata{}, fmt.Errorf("sqlite provider: listing tables: %w", err)
	}

	meta := plugin.ProviderMetadata{Source: db.Path()}
	for _, name := range names {
		var count int64
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+quoteIdent(name)).Scan(&count); err != nil {
			return plugin.ProviderMetadata{}, fmt.Errorf("sqlite provider: counting %q: %w", name, err)
		}
		meta.Datasets = append(meta.Datasets, plugin.DatasetInfo{
			Name:         name,
			FeatureCount: count,
			GeometryType: geometry.TypePoint,
		})
	}
	return meta, nil
}

// Load reads one dataset table into a feature store. Rows with NULL
// coordinates load as geometry-less features.
func (p *Provider) Load(ctx context.Context, dataset string) (*feature.Store, error) {
	db, err := p.database()
	if err != nil {
		return nil, err
	}
	if err := validIdent(dataset); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(dataset))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownDataset, dataset, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite provider: columns of %q: %w", dataset, err)
	}

	store := feature.NewStore()
	values := make([]any, len(cols))
	scan := make([]any, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("sqlite provider: scanning %q: %w", dataset, err)
		}
		f, err := rowToFeature(cols, values)
		if err != nil {
			return nil, fmt.Errorf("sqlite provider: dataset %q: %w", dataset, err)
		}
		if err := store.Add(f); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite provider: reading %q: %w", dataset, err)
	}
	return store, nil
}

// Save writes a feature store as one dataset table, replacing any
// existing table of that name. All rows are inserted in one transaction.
func (p *Provider) Save(ctx context.Context, dataset string, store *feature.Store) error {
	db, err := p.database()
	if err != nil {
		return err
	}
	if err := validIdent(dataset); err != nil {
		return err
	}

	attrNames := collectAttributeNames(store)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite provider: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	table := quoteIdent(dataset)
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
		return fmt.Errorf("sqlite provider: dropping %q: %w", dataset, err)
	}

	columns := []string{colID + " TEXT PRIMARY KEY", colX + " REAL", colY + " REAL"}
	for _, name := range attrNames {
		columns = append(columns, quoteIdent(name))
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(columns, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("sqlite provider: creating %q: %w", dataset, err)
	}

	placeholders := strings.TrimRight(strings.Repeat("?, ", 3+len(attrNames)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, placeholders)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("sqlite provider: preparing insert: %w", err)
	}
	defer stmt.Close()

	for f := range store.All() {
		args := make([]any, 0, 3+len(attrNames))
		args = append(args, f.ID())

		var x, y any
		if pt, ok := f.Geometry().(*geometry.Point); ok {
			x, y = pt.X, pt.Y
		}
		args = append(args, x, y)

		for _, name := range attrNames {
			v, ok := f.Attributes().Get(name)
			if !ok {
				args = append(args, nil)
				continue
			}
			args = append(args, v.Interface())
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("sqlite provider: inserting feature %q: %w", f.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite provider: commit: %w", err)
	}
	return nil
}

func (p *Provider) database() (*database.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil, ErrNotStarted
	}
	return p.db, nil
}

// rowToFeature maps one scanned row to a feature. Reserved columns carry
// identity and geometry; the rest become attributes in column order.
func rowToFeature(cols []string, values []any) (*feature.Feature, error) {
	var id string
	var x, y float64
	var hasX, hasY bool
	type attr struct {
		name  string
		value feature.Value
	}
	var attrs []attr

	for i, col := range cols {
		v := values[i]
		switch col {
		case colID:
			switch s := v.(type) {
			case string:
				id = s
			case []byte:
				id = string(s)
			}
		case colX:
			if f, ok := toFloat(v); ok {
				x, hasX = f, true
			}
		case colY:
			if f, ok := toFloat(v); ok {
				y, hasY = f, true
			}
		default:
			if v == nil {
				continue
			}
			val, err := columnValue(v)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col, err)
			}
			attrs = append(attrs, attr{name: col, value: val})
		}
	}

	f := feature.NewWithID(id)
	if hasX && hasY {
		f.SetGeometry(geometry.NewPoint(x, y))
	}
	for _, a := range attrs {
		if err := f.Attributes().Set(a.name, a.value); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// columnValue converts a driver value to a tagged attribute value.
func columnValue(v any) (feature.Value, error) {
	switch x := v.(type) {
	case string:
		return feature.String(x), nil
	case []byte:
		return feature.Bytes(x), nil
	case int64:
		return feature.Int(x), nil
	case float64:
		return feature.Float(x), nil
	case bool:
		return feature.Bool(x), nil
	case time.Time:
		return feature.Time(x), nil
	default:
		return feature.Value{}, fmt.Errorf("unsupported column type %T", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// collectAttributeNames unions attribute names across the store,
// preserving first-seen order.
func collectAttributeNames(store *feature.Store) []string {
	var names []string
	seen := make(map[string]struct{})
	for f := range store.All() {
		for _, name := range f.Attributes().Names() {
			if name == colID || name == colX || name == colY {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// validIdent rejects dataset names that cannot be safely quoted.
func validIdent(name string) error {
	if name == "" || strings.ContainsRune(name, '"') {
		return fmt.Errorf("%w: %q", ErrBadDataset, name)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

var _ plugin.DataProvider = (*Provider)(nil)
var _ plugin.SettingsValidator = (*Provider)(nil)
