package emit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sofmeright/bravedebloat/src/prefs"
)

// Script accumulates the lines of a generated script.
type Script struct {
	b   strings.Builder
	eol string
}

// NewScript starts a script with LF line endings.
func NewScript() *Script { return &Script{eol: "\n"} }

// NewBatchScript starts a script with CRLF line endings.
func NewBatchScript() *Script { return &Script{eol: "\r\n"} }

// Line appends one line verbatim.
func (s *Script) Line(line string) {
	s.b.WriteString(line)
	s.b.WriteString(s.eol)
}

// Linef appends one formatted line.
func (s *Script) Linef(format string, args ...any) {
	fmt.Fprintf(&s.b, format, args...)
	s.b.WriteString(s.eol)
}

// Lines appends a block, one line per newline-separated row.
func (s *Script) Lines(block string) {
	for _, l := range strings.Split(strings.TrimSuffix(block, "\n"), "\n") {
		s.Line(l)
	}
}

// Blank appends an empty line.
func (s *Script) Blank() { s.b.WriteString(s.eol) }

// Bytes returns the script text.
func (s *Script) Bytes() []byte { return []byte(s.b.String()) }

// String returns the script text.
func (s *Script) String() string { return s.b.String() }

// ShellQuote wraps v in single quotes for sh, bash and zsh.
func ShellQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

// JQFilter builds a jq program that applies edits in order.
func JQFilter(edits []prefs.Edit) (string, error) {
	parts := make([]string, 0, len(edits))
	for _, e := range edits {
		path, err := json.Marshal(e.Path)
		if err != nil {
			return "", fmt.Errorf("encoding path %v: %w", e.Path, err)
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return "", fmt.Errorf("encoding value for %s: %w", strings.Join(e.Path, "."), err)
		}
		parts = append(parts, fmt.Sprintf("setpath(%s; %s)", path, value))
	}
	if len(parts) == 0 {
		return ".", nil
	}
	return strings.Join(parts, " | "), nil
}

// posixHelpers are shared by the macOS and Linux scripts. backup_file is a
// no-op for missing files; apply_jq creates them.
const posixHelpers = `info() { printf '%b\n' "\033[32m[+]\033[0m $*"; }
warn() { printf '%b\n' "\033[33m[!]\033[0m $*" >&2; }
fail() { printf '%b\n' "\033[31m[x]\033[0m $*" >&2; exit 1; }

STAMP="$(date +%Y%m%d%H%M%S)"

if [ -n "${SUDO_USER:-}" ]; then
  USER_HOME="$(eval echo "~$SUDO_USER")"
else
  USER_HOME="$HOME"
fi

backup_file() {
  if [ -f "$1" ]; then
    cp -p "$1" "$1.backup.$STAMP" || fail "Cannot back up $1"
    info "Backed up $1 to $1.backup.$STAMP"
  fi
}

apply_jq() {
  local file="$1" filter="$2" tmp
  if [ ! -f "$file" ]; then
    mkdir -p "$(dirname "$file")" || fail "Cannot create $(dirname "$file")"
    printf '{}\n' > "$file" || fail "Cannot create $file"
  fi
  tmp="$(mktemp "$file.XXXXXX")" || fail "Cannot create a temp file next to $file"
  if jq "$filter" "$file" > "$tmp"; then
    mv "$tmp" "$file" || fail "Cannot replace $file"
    if [ -n "${SUDO_USER:-}" ]; then
      chown "$SUDO_USER" "$file"
    fi
    info "Updated $file"
  else
    rm -f "$tmp"
    fail "jq could not edit $file"
  fi
}`

// JQInstall is the shell block require_jq runs when jq is missing.
type JQInstall string

const (
	// JQHomebrew installs jq with Homebrew, as the invoking user under sudo.
	JQHomebrew JQInstall = `  if command -v brew >/dev/null 2>&1; then
    if [ -n "${SUDO_USER:-}" ]; then
      sudo -u "$SUDO_USER" brew install jq
    else
      brew install jq
    fi
  fi`

	// JQPackageManager installs jq with the first distribution package
	// manager found.
	JQPackageManager JQInstall = `  if command -v apt-get >/dev/null 2>&1; then
    sudo apt-get update && sudo apt-get install -y jq
  elif command -v dnf >/dev/null 2>&1; then
    sudo dnf install -y jq
  elif command -v pacman >/dev/null 2>&1; then
    sudo pacman -S --noconfirm jq
  elif command -v zypper >/dev/null 2>&1; then
    sudo zypper --non-interactive install jq
  fi`
)

// PosixPrelude writes the helper functions, require_jq with the given
// install step, and the running-browser guard.
func PosixPrelude(s *Script, processPattern string, jq JQInstall) {
	s.Lines(posixHelpers)
	s.Blank()
	s.Line(`require_jq() {`)
	s.Line(`  command -v jq >/dev/null 2>&1 && return 0`)
	s.Line(`  warn "jq not found, trying to install it"`)
	if jq != "" {
		s.Lines(string(jq))
	}
	s.Line(`  command -v jq >/dev/null 2>&1 || fail "jq is required to edit preferences. Install it and rerun."`)
	s.Line(`}`)
	s.Blank()
	s.Linef(`if pgrep -x %s >/dev/null 2>&1 && [ "${FORCE:-0}" != "1" ]; then`, ShellQuote(processPattern))
	s.Line(`  fail "Brave is running. Quit it first, or rerun with FORCE=1."`)
	s.Line(`fi`)
}

// prefsVars names the shell variable holding each file path.
var prefsVars = map[prefs.File]string{
	prefs.FilePreferences: "prefs_file",
	prefs.FileLocalState:  "local_state_file",
}

// PosixApplyPreferences writes an apply_preferences function that edits the
// files below the user-data directory given as $1. Every file is backed up
// before jq touches it.
func PosixApplyPreferences(s *Script, batches []prefs.FileEdits) error {
	s.Line(`apply_preferences() {`)
	s.Line(`  local data_dir="$1"`)
	s.Line(`  if [ ! -d "$data_dir" ]; then`)
	s.Line(`    warn "No profile at $data_dir. Start Brave once, then rerun."`)
	s.Line(`    return 0`)
	s.Line(`  fi`)
	for _, batch := range batches {
		filter, err := JQFilter(batch.Edits)
		if err != nil {
			return err
		}
		v := prefsVars[batch.File]
		s.Linef(`  local %s="$data_dir/%s"`, v, batch.File)
		s.Linef(`  backup_file "$%s"`, v)
		s.Linef(`  apply_jq "$%s" %s`, v, ShellQuote(filter))
	}
	s.Line(`}`)
	return nil
}
