package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
	"github.com/danielpatrickdp/rlhf-playground/internal/present"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
)

type deriveOut struct {
	Scenario   string            `json:"scenario"`
	Params     map[string]string `json:"params"`
	Metrics    []present.Row     `json:"metrics"`
	Annotation string            `json:"annotation"`
}

func newDeriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive <scenario>",
		Short: "Derive a scenario's metrics at the given parameters",
		Example: `  playground derive ppo --set learningRate=0.16 --set clip=0.1
  playground derive dpo --set beta=0.3 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			s, err := scenario.Default().Lookup(args[0])
			if err != nil {
				return err
			}
			sets, _ := cmd.Flags().GetStringArray("set")
			snap, err := applySets(s.Schema, sets)
			if err != nil {
				return err
			}

			engine := derive.NewEngine(s.Schema, s.Derive,
				derive.WithSanitizer(eval.NewHarness(s.Bounds)),
				derive.WithLogger(rt.logger),
				derive.WithName(s.ID),
			)
			result := engine.Derive(snap)
			out := deriveOut{
				Scenario:   s.ID,
				Params:     snap.Map(),
				Metrics:    present.Table(result, rt.cfg.DisplayPrecision),
				Annotation: result.Annotation,
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s)\n", s.Label, s.Chapter)
			for _, p := range snap.Pairs() {
				fmt.Fprintf(w, "  %s = %s\n", p.ID, p.Value)
			}
			t := newTable("Metric", "Value")
			for _, row := range out.Metrics {
				t.Row(row.Label, row.Display)
			}
			fmt.Fprintln(w, t.String())
			if out.Annotation != "" {
				fmt.Fprintln(w, out.Annotation)
			}
			return nil
		},
	}
	cmd.Flags().StringArray("set", nil, "Parameter override as id=value (repeatable)")
	return cmd
}

// applySets parses id=value overrides onto the schema defaults. Values are
// clamped and snapped the same way the interactive controls are.
func applySets(schema param.Schema, sets []string) (param.Snapshot, error) {
	store := param.NewStore(schema)
	for _, kv := range sets {
		id, value, ok := strings.Cut(kv, "=")
		if !ok {
			return param.Snapshot{}, fmt.Errorf("--set %q: want id=value", kv)
		}
		id = strings.TrimSpace(id)
		if _, known := schema.Spec(id); !known {
			return param.Snapshot{}, fmt.Errorf("unknown parameter %q (have %s)", id, strings.Join(schema.IDs(), ", "))
		}
		store.SetText(id, value)
	}
	return store.Snapshot(), nil
}
