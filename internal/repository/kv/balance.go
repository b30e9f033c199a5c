package kv

import (
	"context"
	"time"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/kvstore"
)

type balanceRepository struct {
	tx kvstore.Tx
}

func (r *balanceRepository) Get(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	var v domain.Amount
	if _, err := getJSON(ctx, r.tx, balanceKey(addr), &v); err != nil {
		return domain.Amount{}, err
	}
	return v, nil
}

func (r *balanceRepository) Set(ctx context.Context, addr domain.Address, v domain.Amount) error {
	return putJSON(ctx, r.tx, balanceKey(addr), v)
}

type markerRepository struct {
	tx kvstore.Tx
}

func (r *markerRepository) Has(ctx context.Context, name string) (bool, error) {
	return has(ctx, r.tx, markerKey(name))
}

// Set stores the time the step ran.
func (r *markerRepository) Set(ctx context.Context, name string) error {
	return putJSON(ctx, r.tx, markerKey(name), time.Now().UTC())
}
