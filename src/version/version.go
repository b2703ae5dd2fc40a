package version

import "fmt"

// These variables are injected at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns a human-readable version string.
func String() string {
	return fmt.Sprintf("bravedebloat %s (%s, %s)", Version, Commit, BuildDate)
}

// Short returns the version with a short commit, for artifact headers.
func Short() string {
	c := Commit
	if len(c) > 8 {
		c = c[:8]
	}
	return Version + "+" + c
}
