package kv

import (
	"context"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/kvstore"
)

type carRepository struct {
	tx kvstore.Tx
}

func (r *carRepository) Get(ctx context.Context, owner domain.Address) (*domain.Car, error) {
	car := &domain.Car{}
	ok, err := getJSON(ctx, r.tx, carKey(owner), car)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrCarNotFound
	}
	return car, nil
}

func (r *carRepository) Has(ctx context.Context, owner domain.Address) (bool, error) {
	return has(ctx, r.tx, carKey(owner))
}

func (r *carRepository) Set(ctx context.Context, owner domain.Address, car *domain.Car) error {
	return putJSON(ctx, r.tx, carKey(owner), car)
}

func (r *carRepository) Delete(ctx context.Context, owner domain.Address) error {
	return remove(ctx, r.tx, carKey(owner))
}

type carIndexRepository struct {
	tx kvstore.Tx
}

func (r *carIndexRepository) List(ctx context.Context) ([]domain.Address, error) {
	var owners []domain.Address
	if _, err := getJSON(ctx, r.tx, keyCarIndex, &owners); err != nil {
		return nil, err
	}
	return owners, nil
}

// Add is a no-op when owner is already indexed.
func (r *carIndexRepository) Add(ctx context.Context, owner domain.Address) error {
	owners, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, o := range owners {
		if o == owner {
			return nil
		}
	}
	return putJSON(ctx, r.tx, keyCarIndex, append(owners, owner))
}

func (r *carIndexRepository) Remove(ctx context.Context, owner domain.Address) error {
	owners, err := r.List(ctx)
	if err != nil {
		return err
	}
	kept := owners[:0]
	for _, o := range owners {
		if o != owner {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(owners) {
		return nil
	}
	return putJSON(ctx, r.tx, keyCarIndex, kept)
}
