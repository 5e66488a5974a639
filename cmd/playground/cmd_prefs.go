package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rlhf-playground/internal/prefs"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and write stored preferences (analogy, theme)",
	}
	cmd.AddCommand(newPrefsGetCmd(), newPrefsSetCmd(), newPrefsHistoryCmd())
	return cmd
}

func newPrefsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			svc, err := rt.prefs()
			if err != nil {
				return err
			}

			value, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"key": args[0], "value": value})
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newPrefsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			svc, err := rt.prefs()
			if err != nil {
				return err
			}

			if err := svc.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newPrefsHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <key>",
		Short: "Show recent changes to a preference, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := prefs.ResolveKey(args[0])
			if err != nil {
				return err
			}
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			if _, err := rt.prefs(); err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			changes, err := rt.store.History(cmd.Context(), key, limit)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), changes)
			}
			t := newTable("Changed", "Value")
			for _, c := range changes {
				t.Row(c.ChangedAt.Format("2006-01-02 15:04:05"), c.Value)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum entries")
	return cmd
}
