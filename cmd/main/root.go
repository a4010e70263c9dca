package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"image-recon/internal/config"
)

// appContext: общие флаги и лениво загружаемая конфигурация.
type appContext struct {
	configPath string
	storeURI   string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

// loadConfig: файл/окружение, затем глобальные флаги. Проверку делает вызывающий,
// после того как наложит флаги своей команды.
func (a *appContext) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.URI = a.storeURI
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = &cfg
	return a.cfg, nil
}

// ready валидирует конфигурацию и поднимает логгер.
func (a *appContext) ready(cfg *config.Config) (zerolog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), err
	}
	a.logger = config.SetupLogger(*cfg)
	return a.logger, nil
}

func newRootCommand() *cobra.Command {
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:           "image-recon",
		Short:         "Link journey image references to canonical image records",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&app.configPath, "config", "c", "", "Configuration file path (default ./"+config.DefaultPath+" if present)")
	pf.StringVar(&app.storeURI, "store", "", "Store URI: mongodb://…, sqlite://path or mem://")
	pf.StringVar(&app.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newServeCommand(app))
	rootCmd.AddCommand(newInspectCommand(app))
	rootCmd.AddCommand(newImportCommand(app))

	return rootCmd
}
