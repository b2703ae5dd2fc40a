// Package platforms holds the native emitters. Each registers itself with
// package emit from init.
package platforms

import (
	"fmt"

	"github.com/sofmeright/bravedebloat/src/channel"
	"github.com/sofmeright/bravedebloat/src/emit"
	"github.com/sofmeright/bravedebloat/src/prefs"
)

// programMarker starts the PowerShell program embedded after the batch
// part. cmd.exe stops reading at exit /b, so the program is never parsed as
// batch.
const programMarker = "#<preferences>"

// selfVar carries the batch file path to the PowerShell bootstrap.
const selfVar = "BRAVE_DEBLOAT_SELF"

func init() {
	emit.Register(channel.Windows, func() emit.Emitter { return &Windows{} })
}

// Windows renders a .reg policy file and a .bat launcher that imports it
// and edits the profile through PowerShell.
type Windows struct{}

func (w *Windows) Platform() channel.Platform { return channel.Windows }

func (w *Windows) Render(in emit.Input) ([]emit.Artifact, error) {
	ctx := in.Context
	doc, err := regDocument(ctx, in.Policies, in.Extensions)
	if err != nil {
		return nil, err
	}
	reg, err := encodeReg(doc)
	if err != nil {
		return nil, err
	}

	edits, err := in.Preferences.Edits()
	if err != nil {
		return nil, err
	}
	program, err := preferenceProgram(ctx, prefs.ByFile(edits))
	if err != nil {
		return nil, err
	}
	bat, err := batchScript(ctx, program)
	if err != nil {
		return nil, err
	}

	return []emit.Artifact{
		{Name: ctx.Filename(".reg"), Content: reg},
		{Name: ctx.Filename(".bat"), Content: bat, Executable: true},
	}, nil
}

func batchScript(ctx channel.Context, program string) ([]byte, error) {
	bootstrap, err := encodeCommand(fmt.Sprintf(
		`$ErrorActionPreference = 'Stop'; $s = [System.IO.File]::ReadAllText($env:%s); $i = $s.IndexOf('%s'); if ($i -lt 0) { throw 'preference program not found' }; Invoke-Expression $s.Substring($i)`,
		selfVar, programMarker))
	if err != nil {
		return nil, err
	}
	regName := ctx.Filename(".reg")
	regKey := regHive + `\` + ctx.RegistryPath
	backupName := ctx.Filename(".backup.%STAMP%.reg")

	s := emit.NewBatchScript()
	s.Line("@echo off")
	s.Line("setlocal")
	s.Linef("rem Brave privacy settings (%s)", ctx)
	s.Blank()
	s.Line("net session >nul 2>&1")
	s.Line("if %errorlevel% neq 0 (")
	s.Line("  echo [x] Run this script as Administrator.")
	s.Line("  exit /b 1")
	s.Line(")")
	s.Blank()
	s.Linef(`tasklist /FI "IMAGENAME eq %s" 2>nul | find /I "%s" >nul`, ctx.ProcessName, ctx.ProcessName)
	s.Line(`if %errorlevel% equ 0 if not "%FORCE%"=="1" (`)
	s.Line("  echo [x] Brave is running. Close it first, or set FORCE=1.")
	s.Line("  exit /b 1")
	s.Line(")")
	s.Blank()
	s.Linef(`if not exist "%%~dp0%s" (`, regName)
	s.Linef("  echo [x] %s must sit next to this script.", regName)
	s.Line("  exit /b 1")
	s.Line(")")
	s.Line(`for /f %%t in ('powershell -NoProfile -Command "Get-Date -Format yyyyMMddHHmmss"') do set "STAMP=%%t"`)
	s.Linef(`reg query "%s" >nul 2>&1`, regKey)
	s.Line("if %errorlevel% equ 0 (")
	s.Linef(`  reg export "%s" "%%~dp0%s" /y >nul`, regKey, backupName)
	s.Line("  if errorlevel 1 (")
	s.Line("    echo [x] Cannot back up the existing policies.")
	s.Line("    exit /b 1")
	s.Line("  )")
	s.Linef("  echo [+] Backed up existing policies to %s", backupName)
	s.Line(")")
	s.Linef(`reg import "%%~dp0%s"`, regName)
	s.Line("if %errorlevel% neq 0 (")
	s.Line("  echo [x] reg import failed.")
	s.Line("  exit /b 1")
	s.Line(")")
	s.Line("echo [+] Policies imported.")
	s.Blank()
	s.Linef(`set "%s=%%~f0"`, selfVar)
	s.Linef("powershell -NoProfile -ExecutionPolicy Bypass -EncodedCommand %s", bootstrap)
	s.Line("if %errorlevel% neq 0 (")
	s.Line("  echo [x] Preference update failed. Backups are next to the edited files.")
	s.Line("  exit /b 1")
	s.Line(")")
	s.Blank()
	s.Line("echo [+] Done. Restart Brave to apply.")
	s.Line("endlocal")
	s.Line("exit /b 0")
	s.Blank()
	s.Line(programMarker)
	return append(s.Bytes(), program...), nil
}
