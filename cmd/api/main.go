package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/floodwatch-lk/flood-data-api/internal/adapter/dmc"
	"github.com/floodwatch-lk/flood-data-api/internal/adapter/httpapi"
	kafkaadapter "github.com/floodwatch-lk/flood-data-api/internal/adapter/kafka"
	"github.com/floodwatch-lk/flood-data-api/internal/aggregate"
	"github.com/floodwatch-lk/flood-data-api/internal/cache"
	"github.com/floodwatch-lk/flood-data-api/internal/config"
	"github.com/floodwatch-lk/flood-data-api/internal/observability"
)

func main() {
	// Optional .env for local development; real deployments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	c := cache.New(clockwork.NewRealClock(), cfg.CacheTTL, cfg.CacheMaxEntries)
	client := dmc.NewClient(cfg.FetchTimeout, logger, metrics)

	var (
		live    aggregate.LiveSource
		statics []aggregate.StaticSource
		fresh   aggregate.FreshSource
	)
	switch cfg.UpstreamFormat {
	case config.FormatParsedV1:
		live = dmc.NewParsedV1Source(client, c, cfg.DataBaseURL, cfg.ContentsAPIURL)
		statics = []aggregate.StaticSource{
			dmc.NewStaticStationsSource(client, cfg.DataBaseURL+"/data-static/stations.json"),
		}
	case config.FormatDListV2:
		live = dmc.NewDListV2Source(client, c, cfg.DataBaseURL, cfg.ContentsAPIURL)
		statics = []aggregate.StaticSource{
			dmc.NewStaticStationsSource(client, cfg.DataBaseURL+"/data-static/stations.json"),
		}
	case config.FormatDListV3:
		live = dmc.NewDListV3Source(client, c, cfg.DocsIndexURL, cfg.DocsBaseURL)
		statics = []aggregate.StaticSource{
			dmc.NewMetricStaticSource(client, cfg.StaticFeedURL),
			dmc.NewStaticStationsSource(client, cfg.DataBaseURL+"/data-static/stations.json"),
		}
		fresh = dmc.NewFreshLevelsSource(client, cfg.FreshFeedURL)
	}
	logger.Info("upstream sources configured", "format", cfg.UpstreamFormat)

	// Alert publishing is feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED.
	var (
		publisher aggregate.AlertPublisher
		kafkaPub  *kafkaadapter.Publisher
	)
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		publisher = kafkaPub
		logger.Info("alert publishing enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("alert publishing disabled")
	}

	agg := aggregate.New(live, statics, fresh, publisher, c, logger, metrics)
	srv := httpapi.NewServer(cfg.HTTPAddr, agg, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Warm the cache so the first request does not pay the full fetch cost.
	go func() {
		records := agg.LatestLevels(ctx)
		logger.Info("initial snapshot", "stations", len(records))
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
