package service

import (
	"context"
	"time"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/logger"
	"rentacar-ledger/internal/repository"
)

// AuditReport compares the custodied total against what is owed:
// ContractBalance should equal OwnerBalances + AccumulatedFees.
type AuditReport struct {
	ContractBalance domain.Amount `json:"contract_balance"`
	OwnerBalances   domain.Amount `json:"owner_balances"`
	AccumulatedFees domain.Amount `json:"accumulated_fees"`
	Drift           domain.Amount `json:"drift"`
	Cars            int           `json:"cars"`
	CheckedAt       time.Time     `json:"checked_at"`
}

func (r *AuditReport) Balanced() bool {
	return r.Drift.IsZero()
}

// Audit recomputes the conservation identity from storage. It never writes.
func (s *contractService) Audit(ctx context.Context) (*AuditReport, error) {
	logger.EnterMethod("contractService.Audit")

	var report *AuditReport
	err := s.view(ctx, func(r *repository.Repositories) error {
		report = &AuditReport{}
		owners, err := r.CarIndex.List(ctx)
		if err != nil {
			return err
		}
		for _, owner := range owners {
			car, err := r.Cars.Get(ctx, owner)
			if err != nil {
				return err
			}
			if report.OwnerBalances, err = report.OwnerBalances.Add(car.AvailableToWithdraw); err != nil {
				return err
			}
		}
		report.Cars = len(owners)

		if report.ContractBalance, err = r.ContractBalance.Get(ctx); err != nil {
			return err
		}
		report.AccumulatedFees, err = r.AccumulatedFees.Get(ctx)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("contractService.Audit", err)
		return nil, err
	}

	owed, err := report.OwnerBalances.Add(report.AccumulatedFees)
	if err != nil {
		logger.ExitMethodWithError("contractService.Audit", err)
		return nil, err
	}
	if report.Drift, err = report.ContractBalance.Sub(owed); err != nil {
		logger.ExitMethodWithError("contractService.Audit", err)
		return nil, err
	}
	report.CheckedAt = time.Now().UTC()

	s.metrics.RecordCustody(report.ContractBalance, report.OwnerBalances, report.AccumulatedFees, report.Balanced())
	logger.ExitMethod("contractService.Audit",
		"cars", report.Cars, "contractBalance", report.ContractBalance.String(), "drift", report.Drift.String())
	return report, nil
}
