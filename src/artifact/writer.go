// Package artifact writes rendered artifacts to disk. Writes are atomic,
// identical files are left alone, and a file with different content is
// backed up before it is replaced.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sofmeright/bravedebloat/src/emit"
)

// Status is the outcome of writing one artifact.
type Status string

const (
	Written   Status = "written"
	Replaced  Status = "replaced"
	Unchanged Status = "unchanged"
)

// Result describes one artifact write. Backup is set for Replaced.
type Result struct {
	Name   string
	Path   string
	Status Status
	Backup string
	Bytes  int
	DryRun bool
}

// WriteError is a failed filesystem step.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

const stampLayout = "20060102150405"

// Writer writes artifacts into Dir.
type Writer struct {
	Dir    string
	DryRun bool

	// Now stamps backup names. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Write writes artifacts in order and stops at the first failure. The
// results of the artifacts handled before the failure are returned with
// the error.
func (w *Writer) Write(ctx context.Context, artifacts []emit.Artifact) ([]Result, error) {
	if !w.DryRun {
		if err := os.MkdirAll(w.Dir, 0o755); err != nil {
			return nil, &WriteError{Path: w.Dir, Op: "mkdir", Err: err}
		}
	}

	results := make([]Result, 0, len(artifacts))
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := w.writeOne(a)
		if err != nil {
			return results, err
		}
		w.logger().Debug("artifact", "path", res.Path, "status", res.Status, "bytes", res.Bytes, "dry_run", w.DryRun)
		results = append(results, res)
	}
	return results, nil
}

func (w *Writer) writeOne(a emit.Artifact) (Result, error) {
	if err := validName(a.Name); err != nil {
		return Result{}, &WriteError{Path: a.Name, Op: "validate", Err: err}
	}
	path := filepath.Join(w.Dir, a.Name)
	mode := fs.FileMode(0o644)
	if a.Executable {
		mode = 0o755
	}
	res := Result{Name: a.Name, Path: path, Status: Written, Bytes: len(a.Content), DryRun: w.DryRun}

	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return res, &WriteError{Path: path, Op: "read", Err: err}
	case bytes.Equal(existing, a.Content):
		res.Status = Unchanged
		if !w.DryRun {
			if err := fixMode(path, mode); err != nil {
				return res, err
			}
		}
		return res, nil
	default:
		res.Status = Replaced
		res.Backup, err = w.backupPath(path)
		if err != nil {
			return res, err
		}
	}

	if w.DryRun {
		return res, nil
	}
	if res.Status == Replaced {
		if err := copyExclusive(res.Backup, existing); err != nil {
			return res, err
		}
	}
	if err := writeAtomic(path, a.Content, mode); err != nil {
		return res, err
	}
	return res, nil
}

func (w *Writer) backupPath(path string) (string, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	stamp := now().UTC().Format(stampLayout)
	candidate := fmt.Sprintf("%s.%s.bak", path, stamp)
	for n := 1; ; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", &WriteError{Path: candidate, Op: "stat", Err: err}
		}
		candidate = fmt.Sprintf("%s.%s.%d.bak", path, stamp, n)
	}
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

func validName(name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return fmt.Errorf("invalid artifact name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("artifact name %q contains a path separator", name)
	}
	return nil
}

// writeAtomic writes data to a temporary file in the target directory,
// syncs it, and renames it into place. Readers never see a partial file.
func writeAtomic(path string, data []byte, mode fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteError{Path: path, Op: "create temp", Err: err}
	}
	tmpPath := tmp.Name()
	fail := func(op string, err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return &WriteError{Path: path, Op: op, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail("chmod", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &WriteError{Path: path, Op: "close", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &WriteError{Path: path, Op: "rename", Err: err}
	}

	if dir, err := os.Open(filepath.Dir(path)); err == nil {
		dir.Sync()
		dir.Close()
	}
	return nil
}

// copyExclusive writes data to a new file and never overwrites one.
func copyExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &WriteError{Path: path, Op: "backup", Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return &WriteError{Path: path, Op: "backup", Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Op: "backup", Err: err}
	}
	return nil
}

func fixMode(path string, mode fs.FileMode) error {
	info, err := os.Stat(path)
	if err != nil {
		return &WriteError{Path: path, Op: "stat", Err: err}
	}
	if info.Mode().Perm() == mode {
		return nil
	}
	if err := os.Chmod(path, mode); err != nil {
		return &WriteError{Path: path, Op: "chmod", Err: err}
	}
	return nil
}
