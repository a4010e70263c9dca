package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"image-recon/internal/metrics"
	serverhttp "image-recon/server/http"
)

func newServeCommand(app *appContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the image index read-only over HTTP (/health, /index, /match, /metrics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := app.ready(cfg)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Addr()
			}
			ctx := cmd.Context()

			st, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			idx, err := loadIndex(ctx, st, cfg.Run.PageSize, logger)
			closeStore(st, logger)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			rec := metrics.NewRecorder(reg)

			srv := &http.Server{
				Addr:              addr,
				Handler:           serverhttp.NewRouter(idx, reg, rec, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			logger.Info().Str("addr", addr).Msg("server starting")

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen %s: %w", addr, err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info().Msg("server shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info().Msg("bye")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default HOST:PORT from config)")
	return cmd
}
