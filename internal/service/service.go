package service

import (
	"context"
	"time"

	"rentacar-ledger/internal/domain"
)

// ContractService is the rental contract: car registry, rental state
// machine, owner payouts and admin fee handling. Every mutating method runs
// as one transaction and leaves storage untouched when it fails.
type ContractService interface {
	Initialize(ctx context.Context, admin, token domain.Address) error

	AddCar(ctx context.Context, owner domain.Address, pricePerDay domain.Amount) error
	RemoveCar(ctx context.Context, owner domain.Address) error
	GetCarStatus(ctx context.Context, owner domain.Address) (domain.CarStatus, error)
	GetCar(ctx context.Context, owner domain.Address) (*domain.Car, error)
	ListCars(ctx context.Context) ([]domain.CarListing, error)

	Rental(ctx context.Context, renter, owner domain.Address, totalDaysToRent uint32, amount domain.Amount) error
	ReturnCar(ctx context.Context, renter, owner domain.Address) error
	GetRental(ctx context.Context, renter, owner domain.Address) (*domain.Rental, error)
	QuoteRental(ctx context.Context, owner domain.Address, totalDaysToRent uint32) (domain.Amount, error)

	PayoutOwner(ctx context.Context, owner domain.Address, amount domain.Amount) error
	SetAdminFee(ctx context.Context, admin domain.Address, fee domain.Amount) error
	WithdrawAdminFees(ctx context.Context, admin domain.Address, amount domain.Amount) error

	GetAdmin(ctx context.Context) (domain.Address, error)
	GetAdminFee(ctx context.Context) (domain.Amount, error)
	GetAdminAccumulatedFees(ctx context.Context) (domain.Amount, error)
	GetContractBalance(ctx context.Context) (domain.Amount, error)

	Audit(ctx context.Context) (*AuditReport, error)
}

// Metrics receives operation outcomes and custody levels.
type Metrics interface {
	RecordOperation(op string, duration time.Duration, err error)
	RecordCustody(contractBalance, ownerBalances, accumulatedFees domain.Amount, balanced bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(string, time.Duration, error) {}
func (noopMetrics) RecordCustody(domain.Amount, domain.Amount, domain.Amount, bool) {}
