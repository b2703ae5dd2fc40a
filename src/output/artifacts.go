package output

import (
	"fmt"
	"path/filepath"

	"github.com/sofmeright/bravedebloat/src/artifact"
)

// ArtifactStatus maps a write status to a StatusIcon status.
func ArtifactStatus(s artifact.Status) string {
	if s == artifact.Unchanged {
		return "skipped"
	}
	return "success"
}

// Artifacts writes one row per artifact: name, status, size, and the
// backup that was (or would be) taken.
func Artifacts(sec *Section, results []artifact.Result, color bool) {
	for _, r := range results {
		status := string(r.Status)
		if r.DryRun {
			status += " (dry run)"
		}
		line := fmt.Sprintf("%s %-34s %-20s %7s", StatusIcon(ArtifactStatus(r.Status), color), r.Name, status, formatBytes(r.Bytes))
		if r.Backup != "" {
			line += Dimmed("  backup "+filepath.Base(r.Backup), color)
		}
		sec.Row("%s", line)
	}
}

// Warnings writes one dimmed row per warning.
func Warnings(sec *Section, warnings []string, color bool) {
	for _, w := range warnings {
		sec.Row("%s %s", StatusIcon("skipped", color), Dimmed(w, color))
	}
}

func formatBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fK", float64(n)/1024)
	}
	return fmt.Sprintf("%.1fM", float64(n)/(1024*1024))
}
