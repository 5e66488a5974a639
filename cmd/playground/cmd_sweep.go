package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
	"github.com/danielpatrickdp/rlhf-playground/internal/sweep"
)

type sweepOut struct {
	Scenario string        `json:"scenario"`
	Param    string        `json:"param"`
	Points   []sweep.Point `json:"points,omitempty"`
	Stats    []sweep.Stat  `json:"stats"`
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep <scenario> <param>",
		Short: "Derive a scenario across every value of one parameter",
		Long: `sweep walks one parameter over its whole range while the others stay
at their defaults (or at --set overrides) and summarizes each metric.`,
		Example: "  playground sweep reward-model delta --metric probability",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Default().Lookup(args[0])
			if err != nil {
				return err
			}
			sets, _ := cmd.Flags().GetStringArray("set")
			base, err := applySets(s.Schema, sets)
			if err != nil {
				return err
			}
			points, err := sweep.Sweep(s, args[1], base)
			if err != nil {
				return err
			}

			metric, _ := cmd.Flags().GetString("metric")
			names := []string{metric}
			if metric == "" {
				names = metricNames(points)
			}
			out := sweepOut{Scenario: s.ID, Param: args[1]}
			for _, name := range names {
				st, err := sweep.Stats(points, name)
				if err != nil {
					if metric != "" {
						return err
					}
					continue
				}
				out.Stats = append(out.Stats, st)
			}

			if showPoints, _ := cmd.Flags().GetBool("points"); showPoints {
				out.Points = points
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d values of %s\n", s.Label, len(points), args[1])
			t := newTable("Metric", "Min", "Max", "Mean", "StdDev", "Median")
			for _, st := range out.Stats {
				t.Row(st.Metric, num(st.Min), num(st.Max), num(st.Mean), num(st.StdDev), num(st.Median))
			}
			fmt.Fprintln(w, t.String())

			if len(out.Points) > 0 && len(names) > 0 {
				pt := newTable(args[1], names[0])
				for _, p := range out.Points {
					pt.Row(p.Label, num(p.Metrics[names[0]]))
				}
				fmt.Fprintln(w, pt.String())
			}
			return nil
		},
	}
	cmd.Flags().String("metric", "", "Only summarize this metric")
	cmd.Flags().Bool("points", false, "Include every sample")
	cmd.Flags().StringArray("set", nil, "Hold a parameter at id=value (repeatable)")
	return cmd
}

func metricNames(points []sweep.Point) []string {
	seen := map[string]bool{}
	var names []string
	for _, p := range points {
		for name := range p.Metrics {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
