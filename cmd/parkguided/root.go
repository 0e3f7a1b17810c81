package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"parking-guide-backend/config"
	"parking-guide-backend/internal/backend"
	"parking-guide-backend/internal/catalog"
	"parking-guide-backend/internal/logger"
	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/quicksearch"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "parkguided",
	Short:         "Campus parking guidance service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (default $CONFIG_PATH or ./config/config.yaml)")
}

func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// engine is the quick-search stack shared by every command. The watcher
// polls through its own fetcher so its requests stay out of the quick-search
// metrics.
type engine struct {
	client       *backend.Client
	catalog      *catalog.Catalog
	fetcher      *quicksearch.Fetcher
	watchFetcher *quicksearch.Fetcher
	searcher     *quicksearch.Searcher
	scheme       model.KeyKind
}

func newEngine(cfg *config.Config, observer catalog.Observer, log zerolog.Logger) (*engine, error) {
	scheme, err := model.ParseKeyScheme(cfg.Backend.KeyScheme)
	if err != nil {
		return nil, err
	}
	client, err := backend.NewClient(cfg.Backend, logger.Component(log, "backend"))
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	cat := catalog.New(client, cfg.Catalog.RefreshInterval, observer, logger.Component(log, "catalog"))
	fetcher := quicksearch.NewFetcher(client, scheme, cfg.Search.MaxConcurrent, logger.Component(log, "fetcher"))
	searcher := quicksearch.NewSearcher(cat, fetcher, logger.Component(log, "quicksearch"))
	if n := cfg.Search.Alternatives; n != nil {
		searcher.SetAlternatives(*n)
	}

	return &engine{
		client:       client,
		catalog:      cat,
		fetcher:      fetcher,
		watchFetcher: quicksearch.NewFetcher(client, scheme, cfg.Search.MaxConcurrent, logger.Component(log, "watcher")),
		searcher:     searcher,
		scheme:       scheme,
	}, nil
}

// instrument reports quick-search activity to r.
func (e *engine) instrument(r quicksearch.Recorder) {
	e.fetcher.SetRecorder(r)
	e.searcher.SetRecorder(r)
}
