package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/rlhf-playground/internal/api"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the playground over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				rt.cfg.HTTPAddr = addr
			}

			metrics := api.NewMetrics()
			pg, err := rt.playground(metrics)
			if err != nil {
				return err
			}
			server := api.NewServer(pg, scenario.Default(), metrics, rt.logger, rt.cfg.DisplayPrecision)

			srv := &http.Server{
				Addr:              rt.cfg.HTTPAddr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				rt.logger.Info("listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen %s: %w", srv.Addr, err)
				}
				return nil
			case <-ctx.Done():
			}

			rt.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides PLAYGROUND_HTTP_ADDR)")
	return cmd
}
