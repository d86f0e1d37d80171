package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hardcastle/ledger-direct-backend/api/routes"
	"github.com/hardcastle/ledger-direct-backend/internal/ingest"
	"github.com/hardcastle/ledger-direct-backend/internal/match"
	"github.com/hardcastle/ledger-direct-backend/internal/orders"
	"github.com/hardcastle/ledger-direct-backend/internal/pricing"
	"github.com/hardcastle/ledger-direct-backend/internal/quotes"
	"github.com/hardcastle/ledger-direct-backend/internal/tags"
	"github.com/hardcastle/ledger-direct-backend/pkg/config"
	"github.com/hardcastle/ledger-direct-backend/pkg/db"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
	"github.com/hardcastle/ledger-direct-backend/pkg/migrate"
	"github.com/hardcastle/ledger-direct-backend/pkg/oracle"
	"github.com/hardcastle/ledger-direct-backend/pkg/redis"
	"github.com/hardcastle/ledger-direct-backend/pkg/xrpl"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	quoteService, orderService, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"network": cfg.XRPL.Network,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Orders:   orderService,
			Quotes:   quoteService,
			Gatherer: prometheus.DefaultGatherer,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (quotes.Service, orders.Service, error) {
	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, nil, err
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
		return nil, nil, err
	}

	tagService, err := tags.NewService(tags.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, nil, err
	}

	xrplOpts := []xrpl.Option{
		xrpl.WithHTTPClient(&http.Client{Timeout: cfg.Sync.LedgerTimeout}),
	}
	if cfg.Sync.JSONRPCURL != "" {
		xrplOpts = append(xrplOpts, xrpl.WithBaseURL(cfg.Sync.JSONRPCURL))
	}
	ledgerClient, err := xrpl.NewClient(cfg.XRPL.Network, xrplOpts...)
	if err != nil {
		return nil, nil, err
	}

	ingestService, err := ingest.NewService(ingest.ServiceParams{
		Repo:   ingest.NewRepository(dbClient.DB()),
		Client: ledgerClient,
		Logger: logg,
	})
	if err != nil {
		return nil, nil, err
	}

	matchService, err := match.NewService(match.ServiceParams{
		Repo:              match.NewRepository(dbClient.DB()),
		SlippageTolerance: cfg.XRPL.SlippageTolerance,
		Logger:            logg,
	})
	if err != nil {
		return nil, nil, err
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
		return nil, nil, err
	}
	return quoteService, orderService, nil
}
