package repository

import (
	"context"

	"rentacar-ledger/internal/domain"
)

// AddressRepository holds a write-once address singleton (admin, token).
type AddressRepository interface {
	Get(ctx context.Context) (domain.Address, bool, error)
	Has(ctx context.Context) (bool, error)
	Set(ctx context.Context, addr domain.Address) error
}

// AmountRepository holds a monetary singleton. Get returns zero when the
// value was never written.
type AmountRepository interface {
	Get(ctx context.Context) (domain.Amount, error)
	Set(ctx context.Context, v domain.Amount) error
}

type CarRepository interface {
	// Get fails with domain.ErrCarNotFound when owner has no car.
	Get(ctx context.Context, owner domain.Address) (*domain.Car, error)
	Has(ctx context.Context, owner domain.Address) (bool, error)
	Set(ctx context.Context, owner domain.Address, car *domain.Car) error
	Delete(ctx context.Context, owner domain.Address) error
}

// CarIndexRepository tracks the owners that currently have a car, in
// registration order.
type CarIndexRepository interface {
	List(ctx context.Context) ([]domain.Address, error)
	Add(ctx context.Context, owner domain.Address) error
	Remove(ctx context.Context, owner domain.Address) error
}

type RentalRepository interface {
	// Get fails with domain.ErrRentalNotFound when the pair has no rental.
	Get(ctx context.Context, renter, owner domain.Address) (*domain.Rental, error)
	Has(ctx context.Context, renter, owner domain.Address) (bool, error)
	Set(ctx context.Context, renter, owner domain.Address, rental *domain.Rental) error
	Delete(ctx context.Context, renter, owner domain.Address) error
}

// BalanceRepository holds token balances per account. Get returns zero for
// an account that was never credited.
type BalanceRepository interface {
	Get(ctx context.Context, addr domain.Address) (domain.Amount, error)
	Set(ctx context.Context, addr domain.Address, v domain.Amount) error
}

// MarkerRepository records one-time steps that already ran.
type MarkerRepository interface {
	Has(ctx context.Context, name string) (bool, error)
	Set(ctx context.Context, name string) error
}

// Repositories is the set of accessors bound to one store transaction.
type Repositories struct {
	Admin           AddressRepository
	Token           AddressRepository
	AdminFee        AmountRepository
	AccumulatedFees AmountRepository
	ContractBalance AmountRepository
	Cars            CarRepository
	CarIndex        CarIndexRepository
	Rentals         RentalRepository
	Balances        BalanceRepository
	Markers         MarkerRepository
}
