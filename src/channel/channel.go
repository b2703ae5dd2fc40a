// Package channel resolves the install-specific names for a platform and
// release channel: registry keys, bundle ids, policy directories and the
// output file stem.
package channel

import (
	"fmt"
	"strings"
)

// Platform is a target operating system family.
type Platform string

const (
	Windows Platform = "windows"
	MacOS   Platform = "macos"
	Linux   Platform = "linux"
)

// Platforms lists every supported platform in render order.
var Platforms = []Platform{Windows, MacOS, Linux}

// Channel is a browser release channel.
type Channel string

const (
	Normal  Channel = "normal"
	Nightly Channel = "nightly"
)

// Channels lists every supported channel.
var Channels = []Channel{Normal, Nightly}

// ParsePlatform maps a platform token to a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win":
		return Windows, nil
	case "macos", "mac-os", "mac", "darwin":
		return MacOS, nil
	case "linux":
		return Linux, nil
	}
	return "", &UnsupportedCombinationError{Platform: s, Reason: "unknown platform"}
}

// ParseChannel maps a channel token to a Channel. Empty means Normal.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "release", "stable":
		return Normal, nil
	case "nightly":
		return Nightly, nil
	}
	return "", &UnsupportedCombinationError{Channel: s, Reason: "unknown channel"}
}

// UnsupportedCombinationError reports a platform/channel pair with no
// entry in the resolver table.
type UnsupportedCombinationError struct {
	Platform string
	Channel  string
	Reason   string
}

func (e *UnsupportedCombinationError) Error() string {
	switch {
	case e.Platform != "" && e.Channel != "":
		return fmt.Sprintf("unsupported combination %s/%s: %s", e.Platform, e.Channel, e.Reason)
	case e.Platform != "":
		return fmt.Sprintf("unsupported platform %q: %s", e.Platform, e.Reason)
	default:
		return fmt.Sprintf("unsupported channel %q: %s", e.Channel, e.Reason)
	}
}

// Context holds every name that differs between installs.
// Fields that do not apply to the platform are empty.
type Context struct {
	Platform Platform
	Channel  Channel

	// Windows
	RegistryPath string // below HKEY_LOCAL_MACHINE
	ProcessName  string

	// macOS
	BundleID string

	// Linux
	PolicyDir        string // native managed-policy directory
	FlatpakID        string // empty when no Flatpak build exists
	NativeInstallDir string
	LauncherName     string

	// DataDirSuffix is the user-data directory below the vendor directory,
	// for example "Brave-Browser-Nightly".
	DataDirSuffix string

	OutputPrefix string
	OutputStem   string
}

// Filename returns the artifact name for suffix, for example
// "_linux.json" gives "brave_debloat_linux.json".
func (c Context) Filename(suffix string) string {
	return c.OutputStem + suffix
}

// String returns "platform/channel".
func (c Context) String() string {
	return string(c.Platform) + "/" + string(c.Channel)
}

const stem = "debloat"

type key struct {
	p Platform
	c Channel
}

var table = map[key]Context{
	{Windows, Normal}: {
		RegistryPath:  `SOFTWARE\Policies\BraveSoftware\Brave`,
		ProcessName:   "brave.exe",
		DataDirSuffix: "Brave-Browser",
		OutputPrefix:  "brave_",
	},
	{Windows, Nightly}: {
		RegistryPath:  `SOFTWARE\Policies\BraveSoftware\Brave-Nightly`,
		ProcessName:   "brave.exe",
		DataDirSuffix: "Brave-Browser-Nightly",
		OutputPrefix:  "brave_nightly_",
	},
	{MacOS, Normal}: {
		BundleID:      "com.brave.Browser",
		ProcessName:   "Brave Browser",
		DataDirSuffix: "Brave-Browser",
		OutputPrefix:  "brave_",
	},
	{MacOS, Nightly}: {
		BundleID:      "com.brave.Browser.nightly",
		ProcessName:   "Brave Browser Nightly",
		DataDirSuffix: "Brave-Browser-Nightly",
		OutputPrefix:  "brave_nightly_",
	},
	{Linux, Normal}: {
		PolicyDir:        "/etc/brave/policies/managed",
		FlatpakID:        "com.brave.Browser",
		NativeInstallDir: "/opt/brave.com/brave",
		LauncherName:     "brave-browser",
		ProcessName:      "brave",
		DataDirSuffix:    "Brave-Browser",
		OutputPrefix:     "brave_",
	},
	{Linux, Nightly}: {
		PolicyDir:        "/etc/brave-nightly/policies/managed",
		NativeInstallDir: "/opt/brave.com/brave-nightly",
		LauncherName:     "brave-browser-nightly",
		ProcessName:      "brave",
		DataDirSuffix:    "Brave-Browser-Nightly",
		OutputPrefix:     "brave_nightly_",
	},
}

// Resolve looks up the context for a platform and channel.
func Resolve(p Platform, c Channel) (Context, error) {
	ctx, ok := table[key{p, c}]
	if !ok {
		return Context{}, &UnsupportedCombinationError{Platform: string(p), Channel: string(c), Reason: "no install layout known"}
	}
	ctx.Platform = p
	ctx.Channel = c
	ctx.OutputStem = ctx.OutputPrefix + stem
	return ctx, nil
}
