package emit

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/bravedebloat/src/channel"
	"github.com/sofmeright/bravedebloat/src/policy"
	"github.com/sofmeright/bravedebloat/src/prefs"
)

type fakeEmitter struct {
	platform channel.Platform
	err      error
}

func (f fakeEmitter) Platform() channel.Platform { return f.platform }

func (f fakeEmitter) Render(in Input) ([]Artifact, error) {
	if f.err != nil {
		return []Artifact{{Name: "partial"}}, f.err
	}
	return []Artifact{{Name: in.Context.Filename(".txt"), Content: []byte("ok")}}, nil
}

func input(t *testing.T, p channel.Platform) Input {
	t.Helper()
	ctx, err := channel.Resolve(p, channel.Normal)
	require.NoError(t, err)
	return Input{Context: ctx, Policies: policy.Defaults(), Preferences: prefs.Defaults()}
}

func TestRenderStates(t *testing.T) {
	res := Render(fakeEmitter{platform: channel.Linux}, input(t, channel.Linux))
	require.NoError(t, res.Err)
	assert.Equal(t, Rendered, res.State)
	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, "brave_debloat.txt", res.Artifacts[0].Name)

	boom := errors.New("boom")
	res = Render(fakeEmitter{platform: channel.Linux, err: boom}, input(t, channel.Linux))
	assert.Equal(t, Failed, res.State)
	assert.ErrorIs(t, res.Err, boom)
	assert.Empty(t, res.Artifacts, "failed renders drop partial output")
}

func TestRenderRejectsForeignContext(t *testing.T) {
	res := Render(fakeEmitter{platform: channel.Windows}, input(t, channel.Linux))
	assert.Equal(t, Failed, res.State)
	var re *RenderError
	require.ErrorAs(t, res.Err, &re)
	assert.Equal(t, channel.Windows, re.Platform)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	p := channel.Platform("test-dup")
	Register(p, func() Emitter { return fakeEmitter{platform: p} })
	assert.Panics(t, func() {
		Register(p, func() Emitter { return fakeEmitter{platform: p} })
	})

	e, err := Get(p)
	require.NoError(t, err)
	assert.Equal(t, p, e.Platform())
	assert.NotContains(t, All(), p, "All lists only known platforms")

	_, err = Get("nope")
	assert.Error(t, err)
}

func TestJQFilter(t *testing.T) {
	filter, err := JQFilter([]prefs.Edit{
		{Path: []string{"brave", "stats", "enabled"}, Value: false},
		{Path: []string{"browser", "enabled_labs_experiments"}, Value: []string{"a@1", "b@2"}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`setpath(["brave","stats","enabled"]; false) | setpath(["browser","enabled_labs_experiments"]; ["a@1","b@2"])`,
		filter)

	filter, err = JQFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, ".", filter)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, ShellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, ShellQuote("it's"))
}

func TestPosixApplyPreferencesBacksUpFirst(t *testing.T) {
	edits, err := prefs.Defaults().Edits()
	require.NoError(t, err)

	s := NewScript()
	require.NoError(t, PosixApplyPreferences(s, prefs.ByFile(edits)))
	text := s.String()

	for _, v := range []string{"prefs_file", "local_state_file"} {
		backup := strings.Index(text, `backup_file "$`+v+`"`)
		apply := strings.Index(text, `apply_jq "$`+v+`"`)
		require.NotEqual(t, -1, backup, v)
		require.NotEqual(t, -1, apply, v)
		assert.Less(t, backup, apply, v)
	}
}

func TestBatchScriptUsesCRLF(t *testing.T) {
	s := NewBatchScript()
	s.Line("@echo off")
	s.Linef("echo %s", "hi")
	assert.Equal(t, "@echo off\r\necho hi\r\n", s.String())
}

func TestPosixPreludeInstallsJQ(t *testing.T) {
	for name, tt := range map[string]struct {
		install JQInstall
		want    string
	}{
		"homebrew":        {JQHomebrew, `sudo -u "$SUDO_USER" brew install jq`},
		"package manager": {JQPackageManager, "sudo zypper --non-interactive install jq"},
	} {
		t.Run(name, func(t *testing.T) {
			s := NewScript()
			PosixPrelude(s, "brave", tt.install)
			text := s.String()

			start := strings.Index(text, "require_jq() {")
			found := strings.Index(text, "  command -v jq >/dev/null 2>&1 && return 0")
			install := strings.Index(text, tt.want)
			check := strings.Index(text, `command -v jq >/dev/null 2>&1 || fail`)
			require.NotEqual(t, -1, start)
			assert.Less(t, start, found)
			assert.Less(t, found, install)
			assert.Less(t, install, check)
		})
	}
}

func TestPosixPreludeWithoutInstaller(t *testing.T) {
	s := NewScript()
	PosixPrelude(s, "brave", "")
	text := s.String()
	assert.Contains(t, text, `command -v jq >/dev/null 2>&1 || fail`)
	assert.NotContains(t, text, "install jq")
	assert.Contains(t, text, `if pgrep -x 'brave' >/dev/null 2>&1 && [ "${FORCE:-0}" != "1" ]; then`)
}

func TestLineWritesPercentVerbatim(t *testing.T) {
	s := NewBatchScript()
	s.Line(`if %errorlevel% equ 0 (`)
	s.Linef(`reg import "%%~dp0%s"`, "x.reg")
	assert.Equal(t, "if %errorlevel% equ 0 (\r\nreg import \"%~dp0x.reg\"\r\n", s.String())
}
