package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/rlhf-playground/internal/tui"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive terminal playground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			// The screen owns the terminal; only file outputs keep logging.
			if out := rt.cfg.LogOutput; out == "" || out == "stderr" || out == "stdout" {
				rt.logger = zap.NewNop()
			}

			pg, err := rt.playground(nil)
			if err != nil {
				return err
			}
			svc, err := rt.prefs()
			if err != nil {
				return err
			}
			model := tui.New(cmd.Context(), pg, tui.Config{
				ExportDir: rt.cfg.ExportDir,
				Theme:     svc.Theme(cmd.Context()),
			})
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}
