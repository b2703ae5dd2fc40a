package channel

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEveryPair(t *testing.T) {
	for _, p := range Platforms {
		for _, c := range Channels {
			ctx, err := Resolve(p, c)
			require.NoError(t, err, "%s/%s", p, c)
			assert.Equal(t, p, ctx.Platform)
			assert.Equal(t, c, ctx.Channel)
			assert.NotEmpty(t, ctx.OutputStem)
			assert.NotEmpty(t, ctx.DataDirSuffix)
		}
	}
}

func TestStemsDistinctAndNightlyPrefixed(t *testing.T) {
	for _, p := range Platforms {
		normal, err := Resolve(p, Normal)
		require.NoError(t, err)
		nightly, err := Resolve(p, Nightly)
		require.NoError(t, err)

		assert.NotEqual(t, normal.OutputStem, nightly.OutputStem)
		assert.Equal(t, "brave_debloat", normal.OutputStem)
		assert.Equal(t, "brave_nightly_debloat", nightly.OutputStem)
		assert.Equal(t, strings.TrimPrefix(normal.OutputStem, normal.OutputPrefix),
			strings.TrimPrefix(nightly.OutputStem, nightly.OutputPrefix))
	}
}

func TestChannelSubstrings(t *testing.T) {
	win, _ := Resolve(Windows, Nightly)
	assert.True(t, strings.HasSuffix(win.RegistryPath, `\Brave-Nightly`))

	mac, _ := Resolve(MacOS, Nightly)
	assert.Equal(t, "com.brave.Browser.nightly", mac.BundleID)

	linux, _ := Resolve(Linux, Normal)
	assert.Equal(t, "/etc/brave/policies/managed", linux.PolicyDir)
	assert.Equal(t, "com.brave.Browser", linux.FlatpakID)

	linuxNightly, _ := Resolve(Linux, Nightly)
	assert.Empty(t, linuxNightly.FlatpakID)
	assert.Equal(t, "Brave-Browser-Nightly", linuxNightly.DataDirSuffix)
}

func TestResolveUnsupported(t *testing.T) {
	_, err := Resolve(Platform("plan9"), Normal)
	var uc *UnsupportedCombinationError
	require.True(t, errors.As(err, &uc))
	assert.Equal(t, "plan9", uc.Platform)

	_, err = Resolve(Linux, Channel("beta"))
	require.ErrorAs(t, err, &uc)
}

func TestParse(t *testing.T) {
	for in, want := range map[string]Platform{"mac-os": MacOS, "Darwin": MacOS, "windows": Windows, "linux": Linux} {
		got, err := ParsePlatform(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePlatform("beos")
	assert.Error(t, err)

	c, err := ParseChannel("")
	require.NoError(t, err)
	assert.Equal(t, Normal, c)
	c, err = ParseChannel("NIGHTLY")
	require.NoError(t, err)
	assert.Equal(t, Nightly, c)
	_, err = ParseChannel("canary")
	var uc *UnsupportedCombinationError
	assert.ErrorAs(t, err, &uc)
}
