package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jxwalker/resfetch/internal/catalog"
	"github.com/jxwalker/resfetch/internal/config"
	"github.com/jxwalker/resfetch/internal/downloader"
	ferrors "github.com/jxwalker/resfetch/internal/errors"
	"github.com/jxwalker/resfetch/internal/install"
	"github.com/jxwalker/resfetch/internal/logging"
	"github.com/jxwalker/resfetch/internal/metrics"
	"github.com/jxwalker/resfetch/internal/placer"
	"github.com/jxwalker/resfetch/internal/state"
)

// app bundles what every command that touches the library needs.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	db      *state.DB
	metrics *metrics.Manager
	client  *downloader.Client
	closers []io.Closer
}

// resolveConfigPath applies --config / RESFETCH_CONFIG, then the default location.
func resolveConfigPath(args *cliArgs) string {
	if args.ConfigPath != "" {
		return args.ConfigPath
	}
	if p, err := config.DefaultPath(); err == nil {
		return p
	}
	return ""
}

// loadConfig reads the config file, or builds defaults when none exists.
func loadConfig(args *cliArgs) (*config.Config, string, error) {
	path := resolveConfigPath(args)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, path, fmt.Errorf("load config %s: %w", path, err)
			}
			return cfg, path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, path, ferrors.PathError(path, err)
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, path, err
	}
	cfg := config.Default(home)
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// newLogger honours --log-level and --json-logs over the config. When
// toFile is set (the dialog owns the terminal) logs go to the configured
// file, or <data_root>/resfetch.log.
func newLogger(cfg *config.Config, args *cliArgs, toFile bool) (*logging.Logger, io.Closer, error) {
	level := cfg.Logging.Level
	if args.LogLevel != "" {
		level = args.LogLevel
	}
	jsonOut := args.JSONLogs || cfg.Logging.Format == "json"
	if cfg.Logging.File.Enabled || toFile {
		p := cfg.Logging.File.Path
		if p == "" {
			p = filepath.Join(cfg.General.DataRoot, "resfetch.log")
		}
		return logging.NewFile(level, jsonOut, p)
	}
	return logging.New(level, jsonOut), nil, nil
}

func newApp(args *cliArgs, toFile bool) (*app, error) {
	cfg, _, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	log, closer, err := newLogger(cfg, args, toFile)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	a := &app{cfg: cfg, log: log}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	db, err := state.Open(cfg)
	if err != nil {
		a.Close()
		return nil, ferrors.DatabaseError(err)
	}
	a.db = db
	a.closers = append(a.closers, db)
	if a.metrics, err = metrics.New(cfg); err != nil {
		log.Warnf("metrics disabled: %v", err)
	}
	a.client = downloader.New(cfg, log, a.metrics)
	return a, nil
}

func (a *app) Close() {
	if err := a.metrics.Write(); err != nil {
		a.log.Warnf("writing metrics: %v", err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func (a *app) fetcher() *catalog.Fetcher {
	return &catalog.Fetcher{
		ListURL:   a.cfg.Catalog.ListURL,
		Client:    a.client,
		Installed: a.db,
		Log:       a.log,
		Metrics:   a.metrics,
	}
}

func (a *app) pipeline(notify func(install.Notice)) *install.Pipeline {
	return &install.Pipeline{
		Downloader: a.client,
		Installer:  placer.New(a.cfg, a.db, a.log),
		Notify:     notify,
		Log:        a.log,
		Metrics:    a.metrics,
		State:      a.db,
	}
}

func printNotice(w io.Writer, n install.Notice) {
	fmt.Fprintf(w, "! %s\n", n.Message)
}
