package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sofmeright/bravedebloat/src/output"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate artifacts whenever an input document changes",
	Long: `Watch runs generate once, then again after every change to the policies,
extensions or preferences documents. Bursts of changes within the debounce
window (watch.debounce in the config) trigger a single run.`,
	RunE: runWatch,
}

func init() {
	addGenerateFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := generateOptions(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files := map[string]bool{}
	for _, p := range append([]string{opts.PoliciesPath, opts.PreferencesPath}, opts.ExtensionsPaths...) {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = true
	}
	if len(files) == 0 {
		return fmt.Errorf("no input documents to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch directories so editors that replace files by rename are seen.
	dirs := map[string]bool{}
	for f := range files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	color := output.UseColor()
	debounce := cfg.Watch.Debounce
	logger.Info("watching", "files", len(files), "debounce", debounce)

	regenerate(ctx, cmd, color)
	return watchLoop(ctx, watcher, files, debounce, func() { regenerate(ctx, cmd, color) })
}

// watchLoop calls run once per burst of events on the watched files.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, files map[string]bool, debounce time.Duration, run func()) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !files[filepath.Clean(ev.Name)] || ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("input changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("watcher", "error", err)

		case <-timer.C:
			run()
		}
	}
}
