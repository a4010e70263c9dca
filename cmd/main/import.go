package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"image-recon/internal/config"
	"image-recon/internal/fileio"
	"image-recon/internal/reconcile/model"
	"image-recon/internal/store"
)

type importFlags struct {
	images    string
	journeys  string
	sheet     string
	headerRow int
}

func newImportCommand(app *appContext) *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Seed imagens/jornadas documents from CSV, XLS or XLSX exports",
		Example: `  image-recon import --store sqlite://data/recon.db --images imagens.xlsx --journeys jornadas.csv
  image-recon import --store sqlite://data/recon.db --journeys export.xls --sheet Jornadas --header-row 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.images == "" && f.journeys == "" {
				return fmt.Errorf("%w: nothing to import, pass --images and/or --journeys", config.ErrInvalid)
			}
			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := app.ready(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			release, err := acquireLock(cfg.Run.LockFile, logger)
			if err != nil {
				return err
			}
			defer release()

			st, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)
			w, ok := st.(store.Writer)
			if !ok {
				return fmt.Errorf("%w: store %T does not support import", config.ErrInvalid, st)
			}

			opt := fileio.ReadOptions{HeaderRow: f.headerRow, Sheet: f.sheet}
			fields := cfg.Options().Roles
			if f.images != "" {
				if err := importFile(ctx, w, f.images, model.CollectionImages, opt, fields, fileio.ImageDocuments, logger); err != nil {
					return err
				}
			}
			if f.journeys != "" {
				if err := importFile(ctx, w, f.journeys, model.CollectionJourneys, opt, fields, fileio.JourneyDocuments, logger); err != nil {
					return err
				}
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.images, "images", "", "File with imagens rows (id, storage_path, paths, sha256, thumb_<field>)")
	fs.StringVar(&f.journeys, "journeys", "", "File with jornadas rows (id, antes, durante, depois)")
	fs.StringVar(&f.sheet, "sheet", "", "Sheet name for xls/xlsx (default: first)")
	fs.IntVar(&f.headerRow, "header-row", 1, "Header row number (1-based)")
	return cmd
}

type documentBuilder func([]map[string]string, model.RoleFields) ([]store.Document, fileio.ImportStats, error)

func importFile(ctx context.Context, w store.Writer, path, collection string, opt fileio.ReadOptions,
	fields model.RoleFields, build documentBuilder, logger zerolog.Logger) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	recs, err := fileio.ReadAnyMaps(fh, path, opt)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	docs, stats, err := build(recs, fields)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Put(ctx, collection, docs); err != nil {
		return fmt.Errorf("store %s: %w", collection, err)
	}
	logger.Info().
		Str("file", path).
		Str("collection", collection).
		Int("rows", stats.Rows).
		Int("skipped", stats.Skipped).
		Msg("imported")
	return nil
}
