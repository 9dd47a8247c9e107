package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kotikvkofte/deal-service/internal/api"
	"github.com/kotikvkofte/deal-service/internal/application/factories/infrastructure"
	"github.com/kotikvkofte/deal-service/internal/config"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/postgres"
	redisInfra "github.com/kotikvkofte/deal-service/internal/infrastructure/redis"
	"github.com/kotikvkofte/deal-service/internal/logging"
	"github.com/kotikvkofte/deal-service/internal/usecase"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level).With("app", cfg.App.Name, "component", "api")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if err := postgres.EnsureSchema(ctx, pgPool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	redisClient, err := infraFactory.Redis(ctx)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	cache := redisInfra.NewCache(redisClient, "")

	// Repositories
	contractorRepo := postgres.NewContractorRepository(pgPool)
	dealRepo := postgres.NewDealRepository(pgPool)
	roleRepo := postgres.NewRoleRepository(pgPool)
	txManager := postgres.NewTxManager(pgPool)

	// UseCases
	handlers := api.NewHandlers(api.Services{
		SaveDealContractor:   usecase.NewSaveDealContractor(txManager, contractorRepo, dealRepo, cache),
		DeleteDealContractor: usecase.NewDeleteDealContractor(contractorRepo, cache),
		ContractorRoles:      usecase.NewContractorRoles(contractorRepo, roleRepo, cache),
		SaveDeal:             usecase.NewSaveDeal(txManager, dealRepo, cache),
		ChangeDealStatus:     usecase.NewChangeDealStatus(dealRepo, cache),
		GetDeal:              usecase.NewGetDeal(dealRepo, contractorRepo, roleRepo, cache, cfg.Redis.DealTTL),
		Dictionaries:         usecase.NewDictionaries(dealRepo, cache, cfg.Redis.MetadataTTL),
	})
	apiHandler := api.NewRouter(handlers, api.RouterConfig{
		Redis:          redisClient,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           apiHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exiting")
}
