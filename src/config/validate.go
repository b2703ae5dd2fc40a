package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sofmeright/bravedebloat/src/channel"
)

// PlatformAll selects every platform.
const PlatformAll = "all"

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	if cfg.Version != latestVersion {
		errs = append(errs, fmt.Sprintf("version: must be %d, got %d", latestVersion, cfg.Version))
	}

	if _, err := Platforms(cfg.Platform); err != nil {
		errs = append(errs, fmt.Sprintf("platform: %v", err))
	}
	if _, err := channel.ParseChannel(cfg.Channel); err != nil {
		errs = append(errs, fmt.Sprintf("channel: %v", err))
	}

	if cfg.TargetVersion != "" {
		if _, err := semver.NewVersion(cfg.TargetVersion); err != nil {
			errs = append(errs, fmt.Sprintf("target_version: %q is not a version: %v", cfg.TargetVersion, err))
		}
	}

	if cfg.Inputs.Policies == "" {
		errs = append(errs, "inputs.policies: path is required")
	}
	for _, in := range []struct{ key, path string }{
		{"inputs.policies", cfg.Inputs.Policies},
		{"inputs.extensions", cfg.Inputs.Extensions},
		{"inputs.preferences", cfg.Inputs.Preferences},
	} {
		if in.path != "" && !knownDocumentExt(in.path) {
			warnings = append(warnings, fmt.Sprintf("%s: %q has no known extension, reading it as JSON", in.key, in.path))
		}
	}

	if cfg.Output.Dir == "" {
		errs = append(errs, "output.dir: path is required")
	} else if strings.HasPrefix(cfg.Output.Dir, "~") {
		errs = append(errs, fmt.Sprintf("output.dir: %q must not start with ~", cfg.Output.Dir))
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("watch.debounce: must not be negative, got %s", cfg.Watch.Debounce))
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return warnings, nil
}

// Platforms expands a platform selector. Empty and "all" select every
// platform.
func Platforms(selector string) ([]channel.Platform, error) {
	if selector == "" || strings.EqualFold(selector, PlatformAll) {
		return append([]channel.Platform(nil), channel.Platforms...), nil
	}
	p, err := channel.ParsePlatform(selector)
	if err != nil {
		return nil, err
	}
	return []channel.Platform{p}, nil
}

func knownDocumentExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc", ".yml", ".yaml", ".toml":
		return true
	}
	return false
}
