package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "rentacar-ledger/internal/api/http"
	"rentacar-ledger/internal/auth"
	"rentacar-ledger/internal/config"
	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/events"
	"rentacar-ledger/internal/jobs"
	"rentacar-ledger/internal/logger"
	"rentacar-ledger/internal/metrics"
	"rentacar-ledger/internal/scheduler"
	"rentacar-ledger/internal/security"
	"rentacar-ledger/internal/service"
	"rentacar-ledger/internal/storage"
	"rentacar-ledger/internal/token"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting rentacar ledger...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Store configuration", "type", cfg.Store.Type, "namespace", cfg.Store.Namespace)

	ctx := context.Background()

	// Initialize Store
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	// Initialize Token Ledger. Balances live in the contract's store, so
	// custodied funds survive a restart together with the contract state.
	ledger := token.NewStoreLedger(backend)
	allocations := make([]token.Allocation, 0, len(cfg.Contract.Genesis))
	for _, g := range cfg.Contract.Genesis {
		amount, err := domain.ParseAmount(g.Amount)
		if err != nil {
			log.Fatalf("Invalid genesis amount for %s: %v", g.Address, err)
		}
		allocations = append(allocations, token.Allocation{Address: domain.Address(g.Address), Amount: amount})
	}
	applied, err := ledger.ApplyGenesis(ctx, allocations)
	if err != nil {
		logger.Error("Failed to apply genesis balances", "error", err)
		log.Fatalf("Failed to apply genesis balances: %v", err)
	}
	if applied {
		logger.Info("Genesis balances minted", "accounts", len(allocations))
	} else {
		logger.Info("Genesis balances already applied")
	}

	// Initialize Metrics
	var collector *metrics.Collector
	var opMetrics service.Metrics
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
		opMetrics = collector
		logger.Info("Metrics enabled", "path", cfg.Metrics.Path)
	}

	// Initialize Services
	contractSvc := service.NewContractService(
		backend,
		auth.NewContextAuthorizer(),
		ledger,
		events.Multi{events.LogNotifier{}},
		opMetrics,
		domain.Address(cfg.Contract.Custodian),
	)

	if cfg.Contract.Admin != "" {
		err := contractSvc.Initialize(ctx, domain.Address(cfg.Contract.Admin), domain.Address(cfg.Contract.Token))
		switch {
		case err == nil:
			logger.Info("Contract initialized", "admin", cfg.Contract.Admin, "token", cfg.Contract.Token)
		case errors.Is(err, domain.ErrContractInitialized):
			logger.Info("Contract already initialized")
		default:
			logger.Error("Failed to initialize contract", "error", err)
			log.Fatalf("Failed to initialize contract: %v", err)
		}
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	authMW := httpapi.NewAuthMiddleware(tokenManager)

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.NewContractHandler(contractSvc), authMW, collector, cfg.Metrics.Path)
	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(contractSvc, cfg))
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	cronScheduler.Start()

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down...")
	cronScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
