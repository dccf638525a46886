package plugin

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Settings is a plugin's configuration as plain keyed values. Settings
// round-trip through YAML: Serialize and ParseSettings are the only
// persisted-state format the engine defines.
//
// Applying settings is permitted in any lifecycle state; plugins that
// cache configuration at start time take the new values into effect at
// the next Start. Plugins wanting validation implement SettingsValidator.
type Settings map[string]any

// Serialize renders the settings to their textual structured form.
func (s Settings) Serialize() ([]byte, error) {
	out, err := yaml.Marshal(map[string]any(s))
	if err != nil {
		return nil, fmt.Errorf("serializing settings: %w", err)
	}
	return out, nil
}

// ParseSettings parses the textual structured form produced by Serialize.
// Empty input yields empty settings.
func ParseSettings(text []byte) (Settings, error) {
	if len(text) == 0 {
		return Settings{}, nil
	}
	var raw map[string]any
	if err := yaml.Unmarshal(text, &raw); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return Settings(raw), nil
}

// Clone returns an independent shallow copy. Values are expected to be
// YAML scalars and small composites; nested mutation is the caller's
// responsibility.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// GetString returns the string value for a key, or the fallback when the
// key is absent or holds another type.
func (s Settings) GetString(key, fallback string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return fallback
}

// GetInt returns the int value for a key, or the fallback when the key is
// absent or holds another type. YAML integers decode as int.
func (s Settings) GetInt(key string, fallback int) int {
	if v, ok := s[key].(int); ok {
		return v
	}
	return fallback
}

// GetBool returns the bool value for a key, or the fallback when the key
// is absent or holds another type.
func (s Settings) GetBool(key string, fallback bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return fallback
}
