package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tirehub/punchout-backend/api"
	"github.com/tirehub/punchout-backend/api/routes"
	"github.com/tirehub/punchout-backend/internal/address"
	"github.com/tirehub/punchout-backend/internal/auditlog"
	"github.com/tirehub/punchout-backend/internal/carts"
	"github.com/tirehub/punchout-backend/internal/customers"
	"github.com/tirehub/punchout-backend/internal/dealers"
	"github.com/tirehub/punchout-backend/internal/inventory"
	"github.com/tirehub/punchout-backend/internal/items"
	"github.com/tirehub/punchout-backend/internal/partners"
	"github.com/tirehub/punchout-backend/internal/punchout"
	"github.com/tirehub/punchout-backend/internal/sessions"
	"github.com/tirehub/punchout-backend/internal/storefront"
	"github.com/tirehub/punchout-backend/pkg/config"
	"github.com/tirehub/punchout-backend/pkg/db"
	"github.com/tirehub/punchout-backend/pkg/logger"
	"github.com/tirehub/punchout-backend/pkg/metrics"
	"github.com/tirehub/punchout-backend/pkg/migrate"
	"github.com/tirehub/punchout-backend/pkg/redis"
	"github.com/tirehub/punchout-backend/pkg/token"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	punchoutMetrics := metrics.NewPunchoutMetrics(registry)

	partnerClient, err := partners.NewClient(cfg.Partners)
	if err != nil {
		logg.Error(context.Background(), "failed to create partner client", err)
		os.Exit(1)
	}
	partnerDirectory, err := partners.NewDirectory(partners.DirectoryParams{
		Client:   partnerClient,
		Cache:    redisClient,
		CacheTTL: cfg.Partners.CacheTTL,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create partner directory", err)
		os.Exit(1)
	}

	dealerClient, err := dealers.NewClient(cfg.Dealers)
	if err != nil {
		logg.Error(context.Background(), "failed to create dealer client", err)
		os.Exit(1)
	}

	inventoryClient, err := inventory.NewClient(cfg.Inventory)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory client", err)
		os.Exit(1)
	}

	resolver, err := address.NewResolver(address.ResolverParams{
		Partners: partnerDirectory,
		Dealers:  dealerClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create address resolver", err)
		os.Exit(1)
	}

	sessionsService, err := sessions.NewService(sessions.ServiceParams{
		Repo: sessions.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sessions service", err)
		os.Exit(1)
	}

	customersService, err := customers.NewService(customers.ServiceParams{
		Repo: customers.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	cartsService, err := carts.NewService(carts.ServiceParams{
		Repo: carts.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create carts service", err)
		os.Exit(1)
	}

	itemsRepo := items.NewRepository(dbClient.DB())
	audit := auditlog.NewWriter(dbClient.DB(), logg)

	storefrontService, err := storefront.NewService(storefront.ServiceParams{
		Store: redisClient,
		JWT:   cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create storefront service", err)
		os.Exit(1)
	}

	tokenService, err := token.NewService(cfg.Token)
	if err != nil {
		logg.Error(context.Background(), "failed to create token service", err)
		os.Exit(1)
	}

	punchoutService, err := punchout.NewService(punchout.ServiceParams{
		Sessions:   sessionsService,
		Items:      itemsRepo,
		Customers:  customersService,
		Carts:      cartsService,
		Partners:   partnerDirectory,
		Resolver:   resolver,
		Dealers:    dealerClient,
		Inventory:  inventoryClient,
		Storefront: storefrontService,
		Tokens:     tokenService,
		Audit:      audit,
		Metrics:    punchoutMetrics,
		Config:     cfg.Storefront,
		Token:      cfg.Token,
		Flags:      cfg.FeatureFlags,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create punchout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, punchoutService, sessionsService, storefrontService, itemsRepo, audit, registry)
	server := api.NewServer(addr, router)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
