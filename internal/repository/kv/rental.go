package kv

import (
	"context"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/kvstore"
)

type rentalRepository struct {
	tx kvstore.Tx
}

func (r *rentalRepository) Get(ctx context.Context, renter, owner domain.Address) (*domain.Rental, error) {
	rental := &domain.Rental{}
	ok, err := getJSON(ctx, r.tx, rentalKey(renter, owner), rental)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrRentalNotFound
	}
	return rental, nil
}

func (r *rentalRepository) Has(ctx context.Context, renter, owner domain.Address) (bool, error) {
	return has(ctx, r.tx, rentalKey(renter, owner))
}

func (r *rentalRepository) Set(ctx context.Context, renter, owner domain.Address, rental *domain.Rental) error {
	return putJSON(ctx, r.tx, rentalKey(renter, owner), rental)
}

func (r *rentalRepository) Delete(ctx context.Context, renter, owner domain.Address) error {
	return remove(ctx, r.tx, rentalKey(renter, owner))
}
