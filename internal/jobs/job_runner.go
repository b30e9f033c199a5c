package jobs

import (
	"rentacar-ledger/internal/config"
	"rentacar-ledger/internal/logger"
	"rentacar-ledger/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	contract service.ContractService
	config   *config.Config
}

// NewJobRunner creates a new job runner over the contract service
func NewJobRunner(contract service.ContractService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		contract: contract,
		config:   cfg,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.RunConservationAudit()
}
