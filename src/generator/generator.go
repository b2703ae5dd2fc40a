// Package generator wires the engine together: it loads the input
// documents, merges them over the built-in defaults, renders every selected
// platform and writes the artifacts.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/sofmeright/bravedebloat/src/artifact"
	"github.com/sofmeright/bravedebloat/src/channel"
	"github.com/sofmeright/bravedebloat/src/config"
	"github.com/sofmeright/bravedebloat/src/emit"
	"github.com/sofmeright/bravedebloat/src/extensions"
	"github.com/sofmeright/bravedebloat/src/policy"
	"github.com/sofmeright/bravedebloat/src/prefs"

	// Platform emitters register themselves.
	_ "github.com/sofmeright/bravedebloat/src/emit/platforms"
)

// Options selects inputs, targets and output.
type Options struct {
	Platforms []channel.Platform
	Channel   channel.Channel

	PoliciesPath string
	// PoliciesRequired makes a missing policies document an error instead
	// of a warning.
	PoliciesRequired bool
	// ExtensionsPaths are merged in order, later documents winning by ID.
	ExtensionsPaths []string
	PreferencesPath string

	OutputDir     string
	DryRun        bool
	TargetVersion string

	Now    func() time.Time
	Logger *slog.Logger
}

// Report summarises one run.
type Report struct {
	Contexts []channel.Context
	Results  []artifact.Result
	Warnings []string
	Elapsed  time.Duration
}

// Inputs is the merged model handed to every emitter.
type Inputs struct {
	Policies    *policy.Model
	Extensions  []extensions.Entry
	Preferences *prefs.Preferences
	Warnings    []string
}

// Run generates and writes the artifacts for every selected platform.
// Nothing is written unless every platform renders.
func Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	log := opts.logger()

	in, err := Load(opts)
	if err != nil {
		return nil, err
	}
	report := &Report{Warnings: in.Warnings}

	for _, p := range opts.Platforms {
		c, err := channel.Resolve(p, opts.Channel)
		if err != nil {
			return nil, err
		}
		report.Contexts = append(report.Contexts, c)
	}
	if len(report.Contexts) == 0 {
		return nil, fmt.Errorf("no platform selected")
	}

	results, err := renderAll(ctx, report.Contexts, in)
	if err != nil {
		return nil, err
	}

	w := &artifact.Writer{Dir: opts.OutputDir, DryRun: opts.DryRun, Now: opts.Now, Logger: log}
	for _, res := range results {
		log.Debug("rendered", "target", res.Context.String(), "artifacts", len(res.Artifacts))
		written, err := w.Write(ctx, res.Artifacts)
		report.Results = append(report.Results, written...)
		if err != nil {
			return report, err
		}
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

// Load reads and merges the input documents. Missing optional documents
// fall back to the defaults with a warning.
func Load(opts Options) (*Inputs, error) {
	in := &Inputs{}

	doc, err := optionalDocument(opts.PoliciesPath, opts.PoliciesRequired, "policies", &in.Warnings)
	if err != nil {
		return nil, err
	}
	if in.Policies, err = policy.Merge(policy.Defaults(), doc); err != nil {
		return nil, fmt.Errorf("policies %s: %w", opts.PoliciesPath, err)
	}

	for _, path := range opts.ExtensionsPaths {
		doc, err := optionalDocument(path, false, "extensions", &in.Warnings)
		if err != nil {
			return nil, err
		}
		entries, err := extensions.Parse(doc)
		if err != nil {
			return nil, fmt.Errorf("extensions %s: %w", path, err)
		}
		in.Extensions = extensions.Merge(in.Extensions, entries)
	}

	doc, err = optionalDocument(opts.PreferencesPath, false, "preferences", &in.Warnings)
	if err != nil {
		return nil, err
	}
	if in.Preferences, err = prefs.Merge(prefs.Defaults(), doc); err != nil {
		return nil, fmt.Errorf("preferences %s: %w", opts.PreferencesPath, err)
	}

	unsupported, err := policy.Unsupported(in.Policies, opts.TargetVersion)
	if err != nil {
		return nil, err
	}
	in.Warnings = append(in.Warnings, unsupported...)
	return in, nil
}

func optionalDocument(path string, required bool, what string, warnings *[]string) (gjson.Result, error) {
	if path == "" {
		return gjson.Result{}, nil
	}
	doc, err := config.LoadDocument(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		*warnings = append(*warnings, fmt.Sprintf("%s file %s not found, using built-in defaults", what, path))
		return gjson.Result{}, nil
	}
	return doc, err
}

// renderAll renders every context concurrently. Results keep context order.
func renderAll(ctx context.Context, contexts []channel.Context, in *Inputs) ([]emit.Result, error) {
	results := make([]emit.Result, len(contexts))
	g, _ := errgroup.WithContext(ctx)
	for i, c := range contexts {
		g.Go(func() error {
			e, err := emit.Get(c.Platform)
			if err != nil {
				return err
			}
			results[i] = emit.Render(e, emit.Input{
				Context:     c,
				Policies:    in.Policies,
				Extensions:  in.Extensions,
				Preferences: in.Preferences,
			})
			if results[i].Err != nil {
				return fmt.Errorf("%s: %w", c, results[i].Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
