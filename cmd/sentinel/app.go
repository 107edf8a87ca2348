package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"PortfolioSentinel/internal/collector"
	"PortfolioSentinel/internal/config"
	"PortfolioSentinel/internal/logger"
	"PortfolioSentinel/internal/portfolio"
	"PortfolioSentinel/internal/recorder"
	"PortfolioSentinel/internal/scheduler"
	"PortfolioSentinel/internal/strategy"
)

// app holds the components every command is built from.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	book      *portfolio.Book
	recorder  recorder.Recorder
	scheduler *scheduler.Scheduler
}

// newApp loads the config and wires the components. offline leaves the market
// refresh out so a batch evaluates the stored security data only.
func newApp(offline bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	book, err := portfolio.NewBook(cfg.Portfolio.StateFile)
	if err != nil {
		return nil, fmt.Errorf("init portfolio: %w", err)
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	engine, err := strategy.NewEngine(cfg.Engine)
	if err != nil {
		_ = rec.Close()
		return nil, err
	}

	var market scheduler.MarketSource
	if !offline {
		fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
		if err != nil {
			_ = rec.Close()
			return nil, fmt.Errorf("init fetcher: %w", err)
		}
		log.Info().Str("source", fetcher.Name()).Msg("market data source")
		market = collector.NewCollector(fetcher, collector.DefaultWeeks, cfg.DataSource.CacheTTL, log)
	}

	return &app{
		cfg:       cfg,
		log:       log,
		book:      book,
		recorder:  rec,
		scheduler: scheduler.NewScheduler(market, book, engine, rec, log),
	}, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close recorder")
	}
}
