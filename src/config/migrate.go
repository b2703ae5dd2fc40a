package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const latestVersion = 1

// checkVersion rejects config files written for another schema version.
// A document with no keys at all is accepted and yields the defaults.
func checkVersion(data []byte) error {
	ver, empty, err := peekVersion(data)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch {
	case ver == latestVersion:
		return nil
	case ver == 0 && empty:
		return nil
	case ver == 0:
		return fmt.Errorf("config: missing version field, add \"version: %d\"", latestVersion)
	default:
		return fmt.Errorf("config: unknown config version %d (latest supported: %d)", ver, latestVersion)
	}
}

// peekVersion extracts the version field from raw YAML without full parsing.
// Returns 0 if no version field is present.
func peekVersion(data []byte) (version int, empty bool, err error) {
	var probe map[string]any

	// Lenient: unknown fields are reported by the full decode.
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return 0, false, fmt.Errorf("reading version: %w", err)
	}
	if len(probe) == 0 {
		return 0, true, nil
	}

	switch v := probe["version"].(type) {
	case nil:
		return 0, false, nil
	case int:
		return v, false, nil
	default:
		return 0, false, fmt.Errorf("reading version: expected an integer, got %v", v)
	}
}
