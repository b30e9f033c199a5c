// Package kv implements the repositories on top of a kvstore transaction.
// Values are stored as JSON.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/kvstore"
	"rentacar-ledger/internal/repository"
)

const (
	keyAdmin           = "admin"
	keyToken           = "token"
	keyAdminFee        = "admin_fee"
	keyAccumulatedFees = "admin_accumulated_fees"
	keyContractBalance = "contract_balance"
	keyCarIndex        = "car_index"
)

// New binds every repository to tx.
func New(tx kvstore.Tx) *repository.Repositories {
	return &repository.Repositories{
		Admin:           &addressRepository{tx: tx, key: keyAdmin},
		Token:           &addressRepository{tx: tx, key: keyToken},
		AdminFee:        &amountRepository{tx: tx, key: keyAdminFee},
		AccumulatedFees: &amountRepository{tx: tx, key: keyAccumulatedFees},
		ContractBalance: &amountRepository{tx: tx, key: keyContractBalance},
		Cars:            &carRepository{tx: tx},
		CarIndex:        &carIndexRepository{tx: tx},
		Rentals:         &rentalRepository{tx: tx},
		Balances:        &balanceRepository{tx: tx},
		Markers:         &markerRepository{tx: tx},
	}
}

// Address components are length-prefixed so that no two distinct
// (renter, owner) pairs produce the same key.
func segment(a domain.Address) string {
	return strconv.Itoa(len(a)) + ":" + string(a)
}

func carKey(owner domain.Address) string {
	return "car/" + segment(owner)
}

func balanceKey(addr domain.Address) string {
	return "balance/" + segment(addr)
}

func markerKey(name string) string {
	return "marker/" + name
}

func rentalKey(renter, owner domain.Address) string {
	return "rental/" + segment(renter) + segment(owner)
}

func getJSON(ctx context.Context, tx kvstore.Tx, key string, v any) (bool, error) {
	data, ok, err := tx.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func putJSON(ctx context.Context, tx kvstore.Tx, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := tx.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func has(ctx context.Context, tx kvstore.Tx, key string) (bool, error) {
	ok, err := tx.Has(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	return ok, nil
}

func remove(ctx context.Context, tx kvstore.Tx, key string) error {
	if err := tx.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
