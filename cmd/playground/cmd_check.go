package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
	"github.com/danielpatrickdp/rlhf-playground/internal/sweep"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [scenario...]",
		Short: "Derive random parameter sets and report out-of-range metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, _ := cmd.Flags().GetInt("samples")
			seed, _ := cmd.Flags().GetUint64("seed")

			registry := scenario.Default()
			if len(args) > 0 {
				var err error
				if registry, err = registry.Subset(args...); err != nil {
					return err
				}
			}

			var reports []sweep.Report
			failed := 0
			for _, s := range registry.List() {
				rep := sweep.Totality(s, samples, seed)
				if len(rep.Violations) > 0 {
					failed++
				}
				reports = append(reports, rep)
			}

			if jsonOutput(cmd) {
				if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				t := newTable("Scenario", "Samples", "Violations")
				for _, rep := range reports {
					t.Row(rep.Scenario, fmt.Sprint(rep.Samples), fmt.Sprint(len(rep.Violations)))
				}
				fmt.Fprintln(w, t.String())
				for _, rep := range reports {
					for _, v := range rep.Violations {
						fmt.Fprintf(w, "%s: %s\n", rep.Scenario, v)
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios produced out-of-range metrics", failed, len(reports))
			}
			return nil
		},
	}
	cmd.Flags().Int("samples", 500, "Random parameter sets per scenario")
	cmd.Flags().Uint64("seed", 1, "Sampler seed")
	return cmd
}
