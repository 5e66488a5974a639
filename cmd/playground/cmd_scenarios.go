package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rlhf-playground/internal/present"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
)

type scenarioOut struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Chapter  string            `json:"chapter"`
	Summary  string            `json:"summary"`
	Controls []present.Control `json:"controls,omitempty"`
}

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			withControls, _ := cmd.Flags().GetBool("controls")
			list := scenario.Default().List()

			out := make([]scenarioOut, 0, len(list))
			for _, s := range list {
				o := scenarioOut{ID: s.ID, Label: s.Label, Chapter: s.Chapter, Summary: s.Summary}
				if withControls {
					o.Controls = present.Controls(s.Schema, s.Schema.Defaults())
				}
				out = append(out, o)
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			t := newTable("ID", "Scenario", "Chapter", "Controls")
			for _, o := range out {
				ids := make([]string, 0, len(o.Controls))
				for _, c := range o.Controls {
					ids = append(ids, c.ID+"="+c.Display)
				}
				t.Row(o.ID, o.Label, o.Chapter, strings.Join(ids, " "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}
	cmd.Flags().Bool("controls", false, "Include each scenario's controls at their defaults")
	return cmd
}

// newTable returns a plain bordered table for terminal output.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}
