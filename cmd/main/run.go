package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"image-recon/internal/fileio"
	"image-recon/internal/metrics"
	"image-recon/internal/reconcile/driver"
	"image-recon/internal/reconcile/service"
)

type runFlags struct {
	dryRun     bool
	confirm    bool
	threshold  float64
	pageSize   int
	batchSize  int
	reportPath string
	metrics    string
}

func newRunCommand(app *appContext) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile journey image references and write the report",
		Long: `Streams the jornadas collection page by page, resolves every before/during/after
reference against an in-memory index of imagens and writes images_refs back
when the confirmation policy allows it. A CSV (or .xlsx) report is always written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("dry-run") {
				cfg.Run.DryRun = f.dryRun
			}
			if flags.Changed("confirm-high") {
				cfg.Run.ConfirmHigh = f.confirm
			}
			if flags.Changed("confirm-threshold") {
				t := f.threshold
				cfg.Run.ConfirmThreshold = &t
			}
			if flags.Changed("page-size") {
				cfg.Run.PageSize = f.pageSize
			}
			if flags.Changed("batch-size") {
				cfg.Run.BatchSize = f.batchSize
			}
			if flags.Changed("report") {
				cfg.Run.ReportPath = f.reportPath
			}
			if flags.Changed("metrics-file") {
				cfg.Run.MetricsFile = f.metrics
			}
			logger, err := app.ready(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			log := logger.With().Str("run_id", uuid.NewString()).Logger()

			release, err := acquireLock(cfg.Run.LockFile, log)
			if err != nil {
				return err
			}
			defer release()

			st, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore(st, log)

			idx, err := loadIndex(ctx, st, cfg.Run.PageSize, log)
			if err != nil {
				return err
			}

			opt := cfg.Options()
			reg := prometheus.NewRegistry()
			rec := metrics.NewRecorder(reg)
			res, runErr := driver.New(st, idx, opt, log, rec).Run(ctx)

			if path := cfg.Run.MetricsFile; path != "" {
				if err := writeMetrics(path, reg); err != nil {
					log.Error().Err(err).Str("path", path).Msg("metrics write failed")
				} else {
					log.Info().Str("path", path).Msg("metrics written")
				}
			}

			// отчёт пишем и после ошибки прогона: строки до сбоя не теряем
			if err := fileio.WriteReport(cfg.Run.ReportPath, res.Rows); err != nil {
				log.Error().Err(err).Str("path", cfg.Run.ReportPath).Msg("report write failed")
				if runErr == nil {
					return err
				}
			} else {
				log.Info().Str("path", cfg.Run.ReportPath).Int("rows", len(res.Rows)).Msg("report written")
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryTable(res.Summary, service.PolicyFrom(opt).String()))
			if runErr != nil {
				return fmt.Errorf("migration pass: %w", runErr)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&f.dryRun, "dry-run", true, "Do not write to the store")
	fs.BoolVar(&f.confirm, "confirm-high", false, "Write only journeys with average confidence >= 0.90")
	fs.Float64Var(&f.threshold, "confirm-threshold", 0, "Write only journeys with average confidence >= value (overrides --confirm-high)")
	fs.IntVar(&f.pageSize, "page-size", driver.DefaultPageSize, "Journeys read per page")
	fs.IntVar(&f.batchSize, "batch-size", driver.DefaultBatchSize, "Updates per atomic batch (capped by the store)")
	fs.StringVar(&f.reportPath, "report", "", "Report path (.csv or .xlsx)")
	fs.StringVar(&f.metrics, "metrics-file", "", "Write run metrics in Prometheus text format to this file")

	return cmd
}

// writeMetrics сохраняет счётчики прогона в формате textfile-коллектора.
func writeMetrics(path string, g prometheus.Gatherer) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	return prometheus.WriteToTextfile(path, g)
}
