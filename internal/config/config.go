package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"image-recon/internal/reconcile/model"
	"image-recon/internal/store"
	"image-recon/internal/utils"
)

var (
	// ErrMissingCredential: нет адреса/учётных данных хранилища.
	ErrMissingCredential = errors.New("missing store credential")
	// ErrInvalid: конфигурация не проходит проверку.
	ErrInvalid = errors.New("invalid configuration")
)

// DefaultPath: файл конфигурации, который ищется в рабочем каталоге.
const DefaultPath = "image-recon.toml"

type Store struct {
	URI      string `toml:"uri"`      // mongodb://…, sqlite://path, mem://
	Database string `toml:"database"` // только для mongo
}

type Run struct {
	DryRun           bool     `toml:"dry_run"`
	ConfirmHigh      bool     `toml:"confirm_high"`
	ConfirmThreshold *float64 `toml:"confirm_threshold"`
	PageSize         int      `toml:"page_size"`
	BatchSize        int      `toml:"batch_size"`
	ReportPath       string   `toml:"report_path"`
	LockFile         string   `toml:"lock_file"`    // один пишущий прогон на хранилище
	MetricsFile      string   `toml:"metrics_file"` // textfile для node_exporter; пусто: не писать
}

type Config struct {
	Host     string            `toml:"host"`
	Port     int               `toml:"port"`
	LogLevel string            `toml:"log_level"`
	LogFile  string            `toml:"log_file"`
	Store    Store             `toml:"store"`
	Run      Run               `toml:"run"`
	Roles    map[string]string `toml:"roles"` // before|during|after -> поле документа
}

func Default() Config {
	return Config{
		Host:     "127.0.0.1",
		Port:     8082,
		LogLevel: "info",
		LogFile:  "logs/image-recon.log",
		Store:    Store{Database: "app"},
		Run: Run{
			DryRun:     true,
			PageSize:   200,
			BatchSize:  200,
			ReportPath: "migrations_report.csv",
			LockFile:   "logs/image-recon.lock",
		},
	}
}

// Load: дефолты -> TOML-файл (если есть) -> переменные окружения.
// Флаги командной строки накладываются сверху в cmd.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("%w: read %s: %v", ErrInvalid, path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Host = getenv("HOST", c.Host)
	c.Port = utils.Atoi(os.Getenv("PORT"), c.Port)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getenv("LOG_FILE", c.LogFile)

	c.Store.URI = getenv("IMGRECON_STORE_URI", c.Store.URI)
	c.Store.Database = getenv("IMGRECON_MONGO_DATABASE", c.Store.Database)

	c.Run.DryRun = utils.ParseBool(os.Getenv("IMGRECON_DRY_RUN"), c.Run.DryRun)
	c.Run.ConfirmHigh = utils.ParseBool(os.Getenv("IMGRECON_CONFIRM_HIGH"), c.Run.ConfirmHigh)
	if v, ok := utils.ParseDecimal(os.Getenv("IMGRECON_CONFIRM_THRESHOLD")); ok {
		c.Run.ConfirmThreshold = &v
	}
	c.Run.PageSize = utils.Atoi(os.Getenv("IMGRECON_PAGE_SIZE"), c.Run.PageSize)
	c.Run.BatchSize = utils.Atoi(os.Getenv("IMGRECON_BATCH_SIZE"), c.Run.BatchSize)
	c.Run.ReportPath = getenv("IMGRECON_REPORT_PATH", c.Run.ReportPath)
	c.Run.LockFile = getenv("IMGRECON_LOCK_FILE", c.Run.LockFile)
	c.Run.MetricsFile = getenv("IMGRECON_METRICS_FILE", c.Run.MetricsFile)
}

// Validate проверяет доступ к хранилищу и границы параметров прогона.
// BatchSize молча ограничивается лимитом атомарной пачки хранилища.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.URI) == "" {
		return fmt.Errorf("%w: set IMGRECON_STORE_URI or [store].uri", ErrMissingCredential)
	}
	switch StoreKind(c.Store.URI) {
	case "":
		return fmt.Errorf("%w: unsupported store uri scheme", ErrInvalid)
	case "mongo":
		if strings.TrimSpace(c.Store.Database) == "" {
			return fmt.Errorf("%w: [store].database is required for mongodb", ErrInvalid)
		}
	}
	if t := c.Run.ConfirmThreshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("%w: confirm_threshold %.3f outside [0,1]", ErrInvalid, *t)
	}
	if c.Run.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive", ErrInvalid)
	}
	if c.Run.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalid)
	}
	c.Run.BatchSize = min(c.Run.BatchSize, store.MaxBatch)
	for k := range c.Roles {
		switch model.Role(k) {
		case model.RoleBefore, model.RoleDuring, model.RoleAfter:
		default:
			return fmt.Errorf("%w: unknown role %q in [roles]", ErrInvalid, k)
		}
	}
	return nil
}

// Options: параметры прогона для driver.
func (c Config) Options() model.Options {
	fields := model.DefaultRoleFields()
	for k, v := range c.Roles {
		if v = strings.TrimSpace(v); v != "" {
			fields[model.Role(k)] = v
		}
	}
	return model.Options{
		DryRun:           c.Run.DryRun,
		ConfirmHigh:      c.Run.ConfirmHigh,
		ConfirmThreshold: c.Run.ConfirmThreshold,
		PageSize:         c.Run.PageSize,
		BatchSize:        c.Run.BatchSize,
		Roles:            fields,
	}
}

// StoreKind определяет бэкенд по схеме URI: "mongo", "sqlite", "mem" или "".
func StoreKind(uri string) string {
	uri = strings.TrimSpace(uri)
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return "mongo"
	case strings.HasPrefix(uri, "sqlite://"), strings.HasPrefix(uri, "file:"):
		return "sqlite"
	case uri == "mem://":
		return "mem"
	default:
		return ""
	}
}

// SQLitePath: путь к файлу для sqlite:// и file: URI.
func SQLitePath(uri string) string {
	uri = strings.TrimSpace(uri)
	if p, ok := strings.CutPrefix(uri, "sqlite://"); ok {
		return p
	}
	return strings.TrimPrefix(uri, "file:")
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
