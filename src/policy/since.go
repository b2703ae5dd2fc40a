package policy

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Unsupported lists settings that the target browser version predates.
// An empty target disables the check.
func Unsupported(m *Model, target string) ([]string, error) {
	if target == "" {
		return nil, nil
	}
	tv, err := semver.NewVersion(target)
	if err != nil {
		return nil, fmt.Errorf("target version %q: %w", target, err)
	}

	var out []string
	for _, s := range m.settings {
		if s.Since == "" {
			continue
		}
		since, err := semver.NewVersion(s.Since)
		if err != nil {
			return nil, fmt.Errorf("setting %s: since %q: %w", s.Name, s.Since, err)
		}
		if tv.LessThan(since) {
			out = append(out, fmt.Sprintf("%s requires Brave %s or newer (target %s)", s.Name, since, tv))
		}
	}
	return out, nil
}
