package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/rlhf-playground/internal/config"
	"github.com/danielpatrickdp/rlhf-playground/internal/logging"
	"github.com/danielpatrickdp/rlhf-playground/internal/playground"
	"github.com/danielpatrickdp/rlhf-playground/internal/prefs"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
	"github.com/danielpatrickdp/rlhf-playground/internal/session"
)

var version = "0.1.0-dev"

// #region main
func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "playground",
		Short: "Interactive RLHF parameter playground",
		Long: `playground simulates the RLHF guide's interactive scenarios.

Each scenario maps a handful of controls to derived metrics and curves.
Runs can be recorded into a bounded session log and exported as CSV,
XLSX or chart images, from the terminal UI or the HTTP API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with PLAYGROUND_ overrides")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		newVersionCmd(),
		newScenariosCmd(),
		newDeriveCmd(),
		newSweepCmd(),
		newCheckCmd(),
		newPrefsCmd(),
		newServeCmd(),
		newTUICmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "playground version %s\n", version)
			return nil
		},
	}
}

// #endregion main

// #region runtime
// runtime is the configuration and logger shared by the commands.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	level  zap.AtomicLevel

	store *prefs.SQLiteStore
}

func setup(cmd *cobra.Command) (*runtime, error) {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(path, envFile)
	if err != nil {
		return nil, err
	}
	logger, level, err := logging.New(cfg.Logging())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level.SetLevel(zap.DebugLevel)
	}
	return &runtime{cfg: cfg, logger: logger, level: level}, nil
}

// prefs opens the preference database on first use.
func (rt *runtime) prefs() (*prefs.Service, error) {
	if rt.store == nil {
		store, err := prefs.NewSQLiteStore(rt.cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open preferences: %w", err)
		}
		rt.store = store
	}
	return prefs.NewService(rt.store, rt.logger), nil
}

// playground builds a session over every built-in scenario.
func (rt *runtime) playground(observer playground.Observer) (*playground.Playground, error) {
	svc, err := rt.prefs()
	if err != nil {
		return nil, err
	}
	pg, err := playground.New(scenario.Default(),
		playground.WithLogger(rt.logger),
		playground.WithLog(session.NewLog(session.WithCapacity(rt.cfg.LogCapacity))),
		playground.WithPrefs(svc),
		playground.WithPrecision(rt.cfg.DisplayPrecision),
		playground.WithObserver(observer),
	)
	if err != nil {
		return nil, err
	}
	if id := rt.cfg.DefaultScenario; id != "" {
		if err := pg.Select(id); err != nil {
			return nil, fmt.Errorf("default scenario: %w", err)
		}
	}
	return pg, nil
}

func (rt *runtime) Close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.Warn("close preferences", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}

// #endregion runtime

// #region output
func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion output
