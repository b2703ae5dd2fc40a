package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sofmeright/bravedebloat/src/output"
	"github.com/sofmeright/bravedebloat/src/policy"
	"github.com/sofmeright/bravedebloat/src/prefs"
)

var settingsGroup string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "List the built-in policy and preference catalogue",
	RunE:  runSettings,
}

func init() {
	settingsCmd.Flags().StringVar(&settingsGroup, "group", "", "only show settings in this group")
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	color := output.UseColor()
	w := cmd.OutOrStdout()

	shown := 0
	for _, cat := range []struct {
		name  string
		model *policy.Model
	}{
		{"Policies", policy.Defaults()},
		{"Preferences", prefs.Defaults().Settings},
	} {
		var rows []policy.Setting
		for _, s := range cat.model.Settings() {
			if settingsGroup == "" || string(s.Group) == settingsGroup {
				rows = append(rows, s)
			}
		}
		if len(rows) == 0 {
			continue
		}

		sec := output.NewSection(w, cat.name, 0, color)
		for _, s := range rows {
			line := fmt.Sprintf("%-40s %-12s %-7s %s", s.Name, s.Group, s.Kind(), s.Value)
			if s.Since != "" {
				line += output.Dimmed("  since "+s.Since, color)
			}
			sec.Row("%s", line)
		}
		sec.Close()
		shown += len(rows)
	}

	if shown == 0 {
		return fmt.Errorf("no settings in group %q", settingsGroup)
	}
	return nil
}
