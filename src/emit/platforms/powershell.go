package platforms

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/sofmeright/bravedebloat/src/channel"
	"github.com/sofmeright/bravedebloat/src/emit"
	"github.com/sofmeright/bravedebloat/src/prefs"
)

const psHelpers = `$ErrorActionPreference = 'Stop'
$stamp = Get-Date -Format 'yyyyMMddHHmmss'
function Backup-File($Path) {
  if (Test-Path -LiteralPath $Path) {
    Copy-Item -LiteralPath $Path -Destination "$Path.backup.$stamp"
    Write-Host "[+] Backed up $Path"
  }
}
function Read-Json($Path) {
  if (Test-Path -LiteralPath $Path) { return Get-Content -LiteralPath $Path -Raw -Encoding UTF8 | ConvertFrom-Json }
  return [pscustomobject]@{}
}
function Set-JsonPath($Doc, [string[]]$Path, $Value) {
  $node = $Doc
  for ($i = 0; $i -lt $Path.Length - 1; $i++) {
    $next = $node.PSObject.Properties[$Path[$i]]
    if ($null -eq $next -or $next.Value -isnot [System.Management.Automation.PSCustomObject]) {
      $node | Add-Member -NotePropertyName $Path[$i] -NotePropertyValue ([pscustomobject]@{}) -Force
    }
    $node = $node.PSObject.Properties[$Path[$i]].Value
  }
  $node | Add-Member -NotePropertyName $Path[-1] -NotePropertyValue $Value -Force
}
function Write-Json($Path, $Doc) {
  New-Item -ItemType Directory -Force -Path (Split-Path -Parent $Path) | Out-Null
  [System.IO.File]::WriteAllText($Path, ($Doc | ConvertTo-Json -Depth 100 -Compress))
  Write-Host "[+] Updated $Path"
}`

// psFileVars names the PowerShell variable holding each file path.
var psFileVars = map[prefs.File]string{
	prefs.FilePreferences: "$prefsFile",
	prefs.FileLocalState:  "$localStateFile",
}

// preferenceProgram renders the PowerShell program that edits the profile
// files. Every file is backed up before it is read.
func preferenceProgram(ctx channel.Context, batches []prefs.FileEdits) (string, error) {
	s := emit.NewBatchScript()
	s.Lines(psHelpers)
	s.Linef(`$dataDir = Join-Path $env:LOCALAPPDATA %s`, psQuote(`BraveSoftware\`+ctx.DataDirSuffix+`\User Data`))
	s.Line(`if (-not (Test-Path -LiteralPath $dataDir)) { Write-Warning "No profile at $dataDir. Start Brave once, then rerun."; exit 0 }`)
	for _, batch := range batches {
		v := psFileVars[batch.File]
		s.Linef(`%s = Join-Path $dataDir %s`, v, psQuote(strings.ReplaceAll(string(batch.File), "/", `\`)))
		s.Linef(`Backup-File %s`, v)
		s.Linef(`$doc = Read-Json %s`, v)
		for _, e := range batch.Edits {
			lit, err := psLiteral(e.Value)
			if err != nil {
				return "", &emit.RenderError{Platform: channel.Windows, Setting: strings.Join(e.Path, "."), Reason: err.Error()}
			}
			s.Linef(`Set-JsonPath $doc %s %s`, psArray(e.Path), lit)
		}
		s.Linef(`Write-Json %s $doc`, v)
	}
	return s.String(), nil
}

// encodeCommand returns the -EncodedCommand form of program: base64 over
// UTF-16LE.
func encodeCommand(program string) (string, error) {
	b, err := utf16Data.NewEncoder().Bytes([]byte(program))
	if err != nil {
		return "", fmt.Errorf("encoding preference program: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func psLiteral(v any) (string, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return "$true", nil
		}
		return "$false", nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case string:
		return psQuote(x), nil
	case []string:
		return psArray(x), nil
	}
	return "", fmt.Errorf("no PowerShell literal for %T", v)
}

func psArray(items []string) string {
	q := make([]string, len(items))
	for i, it := range items {
		q[i] = psQuote(it)
	}
	return "@(" + strings.Join(q, ",") + ")"
}

// psQuote single-quotes v. PowerShell also treats typographic quotes as
// delimiters, so those are doubled too.
func psQuote(v string) string {
	r := strings.NewReplacer("'", "''", "‘", "‘‘", "’", "’’", "‚", "‚‚", "‛", "‛‛")
	return "'" + r.Replace(v) + "'"
}
