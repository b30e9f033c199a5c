package jobs

import (
	"context"
	"time"

	"rentacar-ledger/internal/logger"
	"rentacar-ledger/internal/service"
)

const auditTimeout = time.Minute

// RunConservationAudit checks that the contract balance equals the sum of
// owner balances plus accumulated fees and logs any drift.
func (jr *JobRunner) RunConservationAudit() {
	jr.runWithRecovery("ConservationAudit", func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()

		if _, err := jr.auditConservation(ctx); err != nil {
			logger.Error("Failed to audit contract balances", "error", err)
		}
	})
}

func (jr *JobRunner) auditConservation(ctx context.Context) (*service.AuditReport, error) {
	report, err := jr.contract.Audit(ctx)
	if err != nil {
		return nil, err
	}

	if !report.Balanced() {
		logger.Error("Contract balance drift detected",
			"contract_balance", report.ContractBalance.String(),
			"owner_balances", report.OwnerBalances.String(),
			"accumulated_fees", report.AccumulatedFees.String(),
			"drift", report.Drift.String(),
			"cars", report.Cars)
		return report, nil
	}

	logger.Info("Contract balances reconciled",
		"contract_balance", report.ContractBalance.String(),
		"cars", report.Cars)
	return report, nil
}
