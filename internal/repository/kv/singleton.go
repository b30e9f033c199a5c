package kv

import (
	"context"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/kvstore"
)

type addressRepository struct {
	tx  kvstore.Tx
	key string
}

func (r *addressRepository) Get(ctx context.Context) (domain.Address, bool, error) {
	var addr domain.Address
	ok, err := getJSON(ctx, r.tx, r.key, &addr)
	return addr, ok, err
}

func (r *addressRepository) Has(ctx context.Context) (bool, error) {
	return has(ctx, r.tx, r.key)
}

func (r *addressRepository) Set(ctx context.Context, addr domain.Address) error {
	return putJSON(ctx, r.tx, r.key, addr)
}

type amountRepository struct {
	tx  kvstore.Tx
	key string
}

func (r *amountRepository) Get(ctx context.Context) (domain.Amount, error) {
	var v domain.Amount
	if _, err := getJSON(ctx, r.tx, r.key, &v); err != nil {
		return domain.Amount{}, err
	}
	return v, nil
}

func (r *amountRepository) Set(ctx context.Context, v domain.Amount) error {
	return putJSON(ctx, r.tx, r.key, v)
}
