package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rentacar-ledger/internal/auth"
	"rentacar-ledger/internal/config"
	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/events"
	"rentacar-ledger/internal/jobs"
	"rentacar-ledger/internal/logger"
	"rentacar-ledger/internal/scheduler"
	"rentacar-ledger/internal/service"
	"rentacar-ledger/internal/storage"
	"rentacar-ledger/internal/token"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'conservation-audit', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting rentacar cronjob runner...", "log_level", cfg.Log.Level)

	if cfg.Store.Type == config.StoreMemory {
		logger.Warn("Cronjob runner is using the in-memory store; it audits its own empty state")
	}

	// Initialize Store
	backend, err := storage.Open(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	contractSvc := service.NewContractService(
		backend,
		auth.NewContextAuthorizer(),
		token.NewStoreLedger(backend),
		events.LogNotifier{},
		nil,
		domain.Address(cfg.Contract.Custodian),
	)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(contractSvc, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.", "next_run", cronScheduler.NextRun())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "conservation-audit":
		jobRunner.RunConservationAudit()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - conservation-audit\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
