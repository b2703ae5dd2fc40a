package platforms

import (
	"fmt"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/sofmeright/bravedebloat/src/channel"
	"github.com/sofmeright/bravedebloat/src/emit"
	"github.com/sofmeright/bravedebloat/src/extensions"
	"github.com/sofmeright/bravedebloat/src/policy"
	"github.com/sofmeright/bravedebloat/src/prefs"
)

const linuxPolicyName = "brave.json"

func init() {
	emit.Register(channel.Linux, func() emit.Emitter { return &Linux{} })
}

// Linux renders a managed-policy JSON document and a bash script that
// installs it into every detected install and edits the matching profiles.
type Linux struct{}

func (l *Linux) Platform() channel.Platform { return channel.Linux }

func (l *Linux) Render(in emit.Input) ([]emit.Artifact, error) {
	ctx := in.Context
	doc, err := policyJSON(in.Policies, in.Extensions)
	if err != nil {
		return nil, err
	}
	edits, err := in.Preferences.Edits()
	if err != nil {
		return nil, err
	}
	jsonName := ctx.Filename("_linux.json")
	script, err := linuxScript(ctx, jsonName, prefs.ByFile(edits))
	if err != nil {
		return nil, err
	}
	return []emit.Artifact{
		{Name: jsonName, Content: doc},
		{Name: ctx.Filename("_linux.sh"), Content: script, Executable: true},
	}, nil
}

// policyJSON renders the Chromium policy document with keys in model order.
func policyJSON(m *policy.Model, exts []extensions.Entry) ([]byte, error) {
	doc := "{}"
	for _, set := range m.Settings() {
		v := set.Value.Interface()
		if v == nil {
			return nil, &emit.RenderError{Platform: channel.Linux, Setting: set.Name, Reason: fmt.Sprintf("no JSON type for kind %s", set.Kind())}
		}
		var err error
		if doc, err = sjson.Set(doc, jsonKey(set.Name), v); err != nil {
			return nil, &emit.RenderError{Platform: channel.Linux, Setting: set.Name, Reason: err.Error()}
		}
	}
	if len(exts) > 0 {
		var err error
		if doc, err = sjson.Set(doc, policy.ForcelistKey, extensions.Forcelist(exts)); err != nil {
			return nil, &emit.RenderError{Platform: channel.Linux, Setting: policy.ForcelistKey, Reason: err.Error()}
		}
	}
	return pretty.Pretty([]byte(doc)), nil
}

// jsonKey escapes the characters sjson reads as path syntax.
func jsonKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@', ':', '!', '=', '<', '>', '%':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func linuxScript(ctx channel.Context, jsonName string, batches []prefs.FileEdits) ([]byte, error) {
	s := emit.NewScript()
	s.Line("#!/bin/bash")
	s.Linef("# Brave privacy settings (%s)", ctx)
	s.Blank()
	emit.PosixPrelude(s, ctx.ProcessName, emit.JQPackageManager)
	s.Blank()

	s.Line(`SCRIPT_DIR="$(cd "$(dirname "${BASH_SOURCE[0]}")" && pwd)"`)
	s.Linef(`POLICY_FILE="$SCRIPT_DIR/%s"`, jsonName)
	s.Linef(`[ -f "$POLICY_FILE" ] || fail "%s must sit next to this script."`, jsonName)
	s.Blank()

	s.Line(`POLICY_TARGETS=()`)
	s.Line(`DATA_TARGETS=()`)
	s.Linef(`if [ -d %s ] || command -v %s >/dev/null 2>&1; then`, emit.ShellQuote(ctx.NativeInstallDir), emit.ShellQuote(ctx.LauncherName))
	s.Line(`  info "Found native install"`)
	s.Linef(`  POLICY_TARGETS+=(%s)`, emit.ShellQuote(ctx.PolicyDir))
	s.Linef(`  DATA_TARGETS+=("$USER_HOME/.config/BraveSoftware/%s")`, ctx.DataDirSuffix)
	s.Line(`fi`)
	if ctx.FlatpakID != "" {
		s.Linef(`if command -v flatpak >/dev/null 2>&1 && flatpak info %s >/dev/null 2>&1; then`, emit.ShellQuote(ctx.FlatpakID))
		s.Line(`  info "Found Flatpak install"`)
		s.Linef(`  POLICY_TARGETS+=("/var/lib/flatpak/extension/%s.Policy.system-policies/$(uname -m)/1/policies/managed")`, ctx.FlatpakID)
		s.Linef(`  DATA_TARGETS+=("$USER_HOME/.var/app/%s/config/BraveSoftware/%s")`, ctx.FlatpakID, ctx.DataDirSuffix)
		s.Line(`fi`)
	}
	s.Line(`[ ${#POLICY_TARGETS[@]} -gt 0 ] || fail "No Brave install found."`)
	s.Blank()

	s.Line(`if [ "$EUID" -eq 0 ]; then`)
	s.Line(`  for dir in "${POLICY_TARGETS[@]}"; do`)
	s.Line(`    mkdir -p "$dir" || fail "Cannot create $dir"`)
	s.Linef(`    backup_file "$dir/%s"`, linuxPolicyName)
	s.Linef(`    install -m 644 "$POLICY_FILE" "$dir/%s" || fail "Cannot write $dir/%s"`, linuxPolicyName, linuxPolicyName)
	s.Linef(`    info "Installed policies to $dir/%s"`, linuxPolicyName)
	s.Line(`  done`)
	s.Line(`else`)
	s.Line(`  warn "Not running as root, skipping managed policies. Rerun with sudo to apply them."`)
	s.Line(`fi`)
	s.Blank()

	s.Line(`require_jq`)
	if err := emit.PosixApplyPreferences(s, batches); err != nil {
		return nil, err
	}
	s.Line(`for dir in "${DATA_TARGETS[@]}"; do`)
	s.Line(`  apply_preferences "$dir"`)
	s.Line(`done`)
	s.Line(`info "Done. Restart Brave to apply."`)
	return s.Bytes(), nil
}
