package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hardcastle/ledger-direct-backend/internal/cron"
	"github.com/hardcastle/ledger-direct-backend/internal/ingest"
	"github.com/hardcastle/ledger-direct-backend/internal/match"
	"github.com/hardcastle/ledger-direct-backend/internal/orders"
	"github.com/hardcastle/ledger-direct-backend/internal/pricing"
	"github.com/hardcastle/ledger-direct-backend/internal/quotes"
	"github.com/hardcastle/ledger-direct-backend/internal/tags"
	"github.com/hardcastle/ledger-direct-backend/pkg/config"
	"github.com/hardcastle/ledger-direct-backend/pkg/db"
	"github.com/hardcastle/ledger-direct-backend/pkg/instance"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
	"github.com/hardcastle/ledger-direct-backend/pkg/metrics"
	"github.com/hardcastle/ledger-direct-backend/pkg/migrate"
	"github.com/hardcastle/ledger-direct-backend/pkg/oracle"
	"github.com/hardcastle/ledger-direct-backend/pkg/redis"
	"github.com/hardcastle/ledger-direct-backend/pkg/xrpl"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	orderService, quoteService, ingestService, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	syncJob, err := cron.NewPaymentSyncJob(cron.PaymentSyncJobParams{
		Logger:             logg,
		Orders:             orderService,
		Quotes:             quoteService,
		Ingest:             ingestService,
		DestinationAccount: cfg.XRPL.DestinationAccount(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment sync job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("sync-worker"), cfg.Sync.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(syncJob),
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Sync.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"network":  cfg.XRPL.Network,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (orders.Service, quotes.Service, ingest.Service, error) {
	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, nil, nil, err
	}

	oracleHTTP := &http.Client{Timeout: cfg.Oracle.Timeout}
	pricingService, err := pricing.NewService(pricing.ServiceParams{
		Feeds: []oracle.Oracle{
			oracle.NewKraken(cfg.Oracle.KrakenBaseURL, oracleHTTP),
			oracle.NewCoingecko(cfg.Oracle.CoingeckoBaseURL, oracleHTTP),
			oracle.NewBinance(cfg.Oracle.BinanceBaseURL, oracleHTTP),
		},
		AllowedDivergence: cfg.Oracle.AllowedDivergence,
		Logger:            logg,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	tagService, err := tags.NewService(tags.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, nil, nil, err
	}

	xrplOpts := []xrpl.Option{
		xrpl.WithHTTPClient(&http.Client{Timeout: cfg.Sync.LedgerTimeout}),
	}
	if cfg.Sync.JSONRPCURL != "" {
		xrplOpts = append(xrplOpts, xrpl.WithBaseURL(cfg.Sync.JSONRPCURL))
	}
	ledgerClient, err := xrpl.NewClient(cfg.XRPL.Network, xrplOpts...)
	if err != nil {
		return nil, nil, nil, err
	}

	ingestService, err := ingest.NewService(ingest.ServiceParams{
		Repo:   ingest.NewRepository(dbClient.DB()),
		Client: ledgerClient,
		Logger: logg,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	matchService, err := match.NewService(match.ServiceParams{
		Repo:              match.NewRepository(dbClient.DB()),
		SlippageTolerance: cfg.XRPL.SlippageTolerance,
		Logger:            logg,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	quoteService, err := quotes.NewService(quotes.ServiceParams{
		Orders:  orderService,
		Pricing: pricingService,
		Tags:    tagService,
		Ingest:  ingestService,
		Match:   matchService,
		XRPL:    cfg.XRPL,
		Logger:  logg,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return orderService, quoteService, ingestService, nil
}
