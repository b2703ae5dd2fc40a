package platforms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sofmeright/bravedebloat/src/channel"
	"github.com/sofmeright/bravedebloat/src/emit"
	"github.com/sofmeright/bravedebloat/src/extensions"
	"github.com/sofmeright/bravedebloat/src/policy"
	"github.com/sofmeright/bravedebloat/src/prefs"
)

// macSkipped are policies Brave ignores on macOS.
var macSkipped = map[string]bool{
	"ReportAppInventory":     true,
	"ReportWebsiteTelemetry": true,
}

func init() {
	emit.Register(channel.MacOS, func() emit.Emitter { return &MacOS{} })
}

// MacOS renders a zsh script that writes managed preferences with
// defaults(1) and edits the profile with jq.
type MacOS struct{}

func (m *MacOS) Platform() channel.Platform { return channel.MacOS }

func (m *MacOS) Render(in emit.Input) ([]emit.Artifact, error) {
	ctx := in.Context
	edits, err := in.Preferences.Edits()
	if err != nil {
		return nil, err
	}

	s := emit.NewScript()
	s.Line("#!/bin/zsh")
	s.Linef("# Brave privacy settings (%s)", ctx)
	s.Blank()
	emit.PosixPrelude(s, ctx.ProcessName, emit.JQHomebrew)
	s.Blank()

	s.Linef(`PLIST=%s`, emit.ShellQuote("/Library/Managed Preferences/"+ctx.BundleID))
	s.Line(`if [ "$EUID" -eq 0 ]; then`)
	s.Line(`  mkdir -p "$(dirname "$PLIST")" || fail "Cannot create $(dirname "$PLIST")"`)
	s.Line(`  backup_file "$PLIST.plist"`)
	s.Line(`  rm -f "$PLIST.plist" || fail "Cannot reset $PLIST.plist"`)
	for _, set := range in.Policies.Settings() {
		if macSkipped[set.Name] {
			continue
		}
		args, err := defaultsArgs(set)
		if err != nil {
			return nil, err
		}
		s.Linef(`  defaults write "$PLIST" %s %s`, emit.ShellQuote(set.Name), args)
	}
	if len(in.Extensions) > 0 {
		s.Linef(`  defaults write "$PLIST" %s -array %s`, policy.ForcelistKey, quoteAll(extensions.Forcelist(in.Extensions)))
	}
	s.Line(`  chmod 644 "$PLIST.plist"`)
	s.Line(`  info "Managed policies written to $PLIST.plist"`)
	s.Line(`else`)
	s.Line(`  warn "Not running as root, skipping managed policies. Rerun with sudo to apply them."`)
	s.Line(`fi`)
	s.Blank()

	s.Line(`require_jq`)
	if err := emit.PosixApplyPreferences(s, prefs.ByFile(edits)); err != nil {
		return nil, err
	}
	s.Linef(`apply_preferences "$USER_HOME/Library/Application Support/BraveSoftware/%s"`, ctx.DataDirSuffix)
	s.Line(`info "Done. Restart Brave to apply."`)

	return []emit.Artifact{
		{Name: ctx.Filename("_macos.sh"), Content: s.Bytes(), Executable: true},
	}, nil
}

// defaultsArgs returns the type flag and value arguments for defaults write.
func defaultsArgs(set policy.Setting) (string, error) {
	v := set.Value
	switch v.Kind() {
	case policy.KindBool:
		return "-bool " + strconv.FormatBool(v.Bool()), nil
	case policy.KindInt:
		return "-int " + strconv.FormatInt(v.Int(), 10), nil
	case policy.KindString, policy.KindEnum:
		return "-string " + emit.ShellQuote(v.Str()), nil
	case policy.KindStringList:
		if len(v.List()) == 0 {
			return "-array", nil
		}
		return "-array " + quoteAll(v.List()), nil
	}
	return "", &emit.RenderError{Platform: channel.MacOS, Setting: set.Name, Reason: fmt.Sprintf("no defaults type for kind %s", v.Kind())}
}

func quoteAll(items []string) string {
	q := make([]string, len(items))
	for i, it := range items {
		q[i] = emit.ShellQuote(it)
	}
	return strings.Join(q, " ")
}
