package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dcwatch/dcwatch/internal/committees"
	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/internal/engine"
	"github.com/dcwatch/dcwatch/internal/enrich"
	"github.com/dcwatch/dcwatch/internal/external/yahoo"
	"github.com/dcwatch/dcwatch/internal/fetch"
	"github.com/dcwatch/dcwatch/internal/pipeline"
	"github.com/dcwatch/dcwatch/internal/store"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/database"
	"github.com/dcwatch/dcwatch/pkg/httputil"
	"github.com/dcwatch/dcwatch/pkg/logger"
	"github.com/dcwatch/dcwatch/pkg/redis"
)

// pipelineDeps bundles the full pipeline wiring for the commands that
// run more than one stage.
type pipelineDeps struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	store    *store.Store
	redis    *redis.Client
	prices   *yahoo.Client
	enricher *enrich.Enricher
	fetcher  *fetch.Fetcher
	engine   *engine.Engine
	exporter *store.Exporter
	orch     *pipeline.Orchestrator
}

// Close releases the connections the wiring opened.
func (d *pipelineDeps) Close() {
	if d.redis != nil {
		d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

// initPipeline builds the full stage chain from scratch. The notifier
// may be nil; only the API server attaches one.
func initPipeline(ctx context.Context, notifier pipeline.Notifier) (*pipelineDeps, error) {
	// 1. Config, logger, database, store
	cfg, log, db, st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	deps, err := buildPipeline(cfg, log, st, notifier)
	if err != nil {
		db.Close()
		return nil, err
	}
	deps.db = db
	return deps, nil
}

// buildPipeline wires the stage chain onto an already-open store chain.
// The caller keeps ownership of the database; Close releases only what
// this wiring opened.
func buildPipeline(cfg *config.Config, log *logger.Logger, st *store.Store, notifier pipeline.Notifier) (*pipelineDeps, error) {
	// 2. Redis cache and shared fetch limiter (disabled client falls
	// through to upstream / unlimited)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(redisClient, "yahoo")
	limiter := redis.NewRateLimiter(redisClient, "fetch")

	// 3. HTTP clients; the feed client counts against the shared window
	httpClient := httputil.New(cfg, log)
	feedClient := httputil.New(cfg, log)
	if cfg.Feeds.RateLimitPerMin > 0 {
		feedClient = feedClient.WithRateLimiter(limiter, redis.RateLimitConfig{
			Key:    "feeds",
			Limit:  cfg.Feeds.RateLimitPerMin,
			Window: time.Minute,
		})
	}

	// 4. Price client and enricher
	yahooClient := yahoo.NewClient(httpClient, cache, cfg.Prices, log)
	enricher := enrich.NewEnricher(yahooClient, st.Closes, log)

	// 5. Disclosure sources and fetcher
	house := fetch.NewHouseSource(feedClient, cfg.Feeds, log)
	senate := fetch.NewSenateSource(feedClient, cfg.Feeds, log)
	efd, err := fetch.NewEFDScraper(cfg, limiter, log)
	if err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("init efd scraper: %w", err)
	}
	fetcher := fetch.NewFetcher(house, senate, efd, st.Trades, log)

	// 6. Committee jurisdiction table
	committeeTable, err := loadCommittees(cfg)
	if err != nil {
		redisClient.Close()
		return nil, err
	}

	// 7. Engine, exporter, orchestrator
	eng := engine.New(log)
	exporter := store.NewExporter(cfg.DataDir, log)
	orch := pipeline.New(fetcher, enricher, eng, committeeTable, st, exporter, notifier, cfg, log)

	return &pipelineDeps{
		cfg:      cfg,
		log:      log,
		store:    st,
		redis:    redisClient,
		prices:   yahooClient,
		enricher: enricher,
		fetcher:  fetcher,
		engine:   eng,
		exporter: exporter,
		orch:     orch,
	}, nil
}

// loadCommittees reads the jurisdiction table from the configured file,
// falling back to the builtin table.
func loadCommittees(cfg *config.Config) ([]*contracts.Committee, error) {
	if cfg.CommitteeFile == "" {
		return committees.Builtin(), nil
	}
	table, err := committees.Load(cfg.CommitteeFile)
	if err != nil {
		return nil, fmt.Errorf("load committee file: %w", err)
	}
	return table, nil
}
