package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salestats/internal/amqp"
	"salestats/internal/cli"
	"salestats/internal/config"
	apphttp "salestats/internal/http"
	"salestats/internal/ingest"
	"salestats/internal/log"
	"salestats/internal/otel"
	"salestats/internal/services"
)

const serviceName = "salestats"

func main() {
	logger := cli.BootstrapLogger()
	cli.LoadEnvFile(logger)
	cfg := cli.LoadAndValidateConfig(logger)

	logger, err := cli.SetupLogger(cfg)
	if err != nil {
		cli.BootstrapLogger().Error("Invalid log configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("salestats stopped with error", log.FieldError, err.Error())
		stop()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run seeds the store and serves until ctx is cancelled. The store and the
// seed are startup-fatal: the server never starts without data.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Failed to flush traces", log.FieldError, err.Error())
		}
	}()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var opts []ingest.Option
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, seed reports will not be published", log.FieldError, err.Error())
		} else {
			defer client.Close()
			opts = append(opts, ingest.WithNotifier(client))
		}
	}

	seedCtx, cancelSeed := context.WithTimeout(ctx, cfg.SeedTimeout)
	defer cancelSeed()
	fetcher := ingest.NewFetcher(cfg.SeedURL, cfg.SeedTimeout)
	report, err := ingest.NewIngestor(fetcher, repo, logger, opts...).Run(seedCtx)
	if err != nil {
		return fmt.Errorf("seed transactions from %s: %w", cfg.SeedURL, err)
	}

	queries := services.NewQueryService(repo, services.WithCache(cfg.CacheSize, cfg.CacheTTL))
	defer queries.Close()

	srv := apphttp.NewServer(cfg.Addr(), queries, repo, logger, apphttp.WithTrustedProxies(cfg.TrustedProxies))

	logger.Info("Starting salestats server",
		"addr", cfg.Addr(),
		log.FieldInserted, report.Inserted,
		log.FieldIgnored, report.Ignored,
		log.FieldOperation, log.OpStartup)

	return cli.Serve(ctx, srv, logger, cfg.ShutdownTimeout)
}
