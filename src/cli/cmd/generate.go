package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/bravedebloat/src/channel"
	"github.com/sofmeright/bravedebloat/src/config"
	"github.com/sofmeright/bravedebloat/src/generator"
	"github.com/sofmeright/bravedebloat/src/output"
	"github.com/sofmeright/bravedebloat/src/version"
)

var (
	genPlatform      string
	genChannel       string
	genPolicies      string
	genExtensions    []string
	genPreferences   string
	genOutput        string
	genDryRun        bool
	genTargetVersion string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render policy artifacts for the selected platforms",
	Long: `Generate merges the policies, extensions and preferences documents over the
built-in defaults and writes one set of artifacts per platform.

Existing artifacts are backed up before they are replaced. Identical files
are left alone.`,
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

// addGenerateFlags binds the generation flags; watch shares them.
func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&genPlatform, "platform", "p", "", "target platform: windows, macos, linux or all (default from config)")
	cmd.Flags().StringVar(&genChannel, "channel", "", "release channel: normal or nightly (default from config)")
	cmd.Flags().StringVar(&genPolicies, "policies", "", "policies document (json, jsonc, yaml or toml)")
	cmd.Flags().StringSliceVarP(&genExtensions, "extensions", "e", nil, "extensions documents, merged in order")
	cmd.Flags().StringVar(&genPreferences, "preferences", "", "preferences document")
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&genDryRun, "dry-run", false, "report what would be written without touching disk")
	cmd.Flags().StringVar(&genTargetVersion, "target-version", "", "warn about settings newer than this Brave version")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts, err := generateOptions(cmd)
	if err != nil {
		return err
	}

	color := output.UseColor()
	w := cmd.OutOrStdout()

	output.SectionStart(w, "bd_generate", "Generate")
	report, err := generator.Run(cmd.Context(), opts)
	output.SectionEnd(w, "bd_generate")
	if report != nil {
		printReport(w, opts, report, color)
	}
	if err != nil {
		return err
	}
	return nil
}

// generateOptions resolves generator options: CLI flag > config > default.
func generateOptions(cmd *cobra.Command) (generator.Options, error) {
	platform := cfg.Platform
	if cmd.Flags().Changed("platform") {
		platform = genPlatform
	}
	platforms, err := config.Platforms(platform)
	if err != nil {
		return generator.Options{}, err
	}

	chName := cfg.Channel
	if cmd.Flags().Changed("channel") {
		chName = genChannel
	}
	ch, err := channel.ParseChannel(chName)
	if err != nil {
		return generator.Options{}, err
	}

	opts := generator.Options{
		Platforms:       platforms,
		Channel:         ch,
		PoliciesPath:    cfg.Inputs.Policies,
		PreferencesPath: cfg.Inputs.Preferences,
		OutputDir:       cfg.Output.Dir,
		DryRun:          genDryRun,
		TargetVersion:   cfg.TargetVersion,
		Logger:          logger,
	}
	if cfg.Inputs.Extensions != "" {
		opts.ExtensionsPaths = []string{cfg.Inputs.Extensions}
	}

	if cmd.Flags().Changed("policies") {
		opts.PoliciesPath = genPolicies
		opts.PoliciesRequired = true
	}
	if cmd.Flags().Changed("extensions") {
		opts.ExtensionsPaths = genExtensions
	}
	if cmd.Flags().Changed("preferences") {
		opts.PreferencesPath = genPreferences
	}
	if cmd.Flags().Changed("output") {
		opts.OutputDir = genOutput
	}
	if cmd.Flags().Changed("target-version") {
		opts.TargetVersion = genTargetVersion
	}

	if opts.OutputDir == "" {
		return generator.Options{}, fmt.Errorf("no output directory")
	}
	return opts, nil
}

func printReport(w io.Writer, opts generator.Options, report *generator.Report, color bool) {
	sec := output.NewSection(w, "Generate", report.Elapsed, color)
	sec.KV("version", version.Short())
	for _, c := range report.Contexts {
		sec.KV("target", c.String())
	}
	sec.KV("output", opts.OutputDir)
	if opts.TargetVersion != "" {
		sec.KV("brave", opts.TargetVersion)
	}
	if len(report.Results) > 0 {
		sec.Separator()
		output.Artifacts(sec, report.Results, color)
	}
	if len(report.Warnings) > 0 {
		sec.Separator()
		output.Warnings(sec, report.Warnings, color)
		for _, warn := range report.Warnings {
			logger.Debug("generate", "warning", warn)
		}
	}
	sec.Close()
}

// regenerate runs one generation for the watch loop and prints the result.
// Errors are printed, not returned.
func regenerate(ctx context.Context, cmd *cobra.Command, color bool) {
	opts, err := generateOptions(cmd)
	if err == nil {
		var report *generator.Report
		report, err = generator.Run(ctx, opts)
		if report != nil {
			printReport(cmd.OutOrStdout(), opts, report, color)
		}
	}
	if err != nil {
		output.SummaryRow(os.Stderr, "generate", "failed", err.Error(), color)
	}
}
