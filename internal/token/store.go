package token

import (
	"context"
	"fmt"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/kvstore"
	"rentacar-ledger/internal/logger"
	"rentacar-ledger/internal/repository"
	"rentacar-ledger/internal/repository/kv"
)

const genesisMarker = "token_genesis"

// TxTransferer moves funds inside the caller's store transaction, so a
// transfer commits or rolls back together with the state that records it.
type TxTransferer interface {
	Transferer
	TransferTx(ctx context.Context, tx kvstore.Tx, from, to domain.Address, amount domain.Amount) error
}

// Allocation is an opening balance.
type Allocation struct {
	Address domain.Address
	Amount  domain.Amount
}

// StoreLedger keeps token balances in the same key-value store as the
// contract state.
type StoreLedger struct {
	store kvstore.Store
}

func NewStoreLedger(store kvstore.Store) *StoreLedger {
	return &StoreLedger{store: store}
}

// Transfer moves funds in a transaction of its own.
func (l *StoreLedger) Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error {
	return l.store.Update(ctx, func(tx kvstore.Tx) error {
		return l.TransferTx(ctx, tx, from, to, amount)
	})
}

func (l *StoreLedger) TransferTx(ctx context.Context, tx kvstore.Tx, from, to domain.Address, amount domain.Amount) error {
	logger.ExternalServiceCall("token", "transfer", "from", from, "to", to, "amount", amount.String())
	err := transferIn(ctx, kv.New(tx).Balances, from, to, amount)
	logger.ExternalServiceResult("token", "transfer", err, "from", from, "to", to)
	return err
}

func transferIn(ctx context.Context, balances repository.BalanceRepository, from, to domain.Address, amount domain.Amount) error {
	src, err := balances.Get(ctx, from)
	if err != nil {
		return err
	}
	dst, err := balances.Get(ctx, to)
	if err != nil {
		return err
	}
	src, dst, err = move(from, to, src, dst, amount)
	if err != nil || from == to {
		return err
	}
	if err := balances.Set(ctx, from, src); err != nil {
		return err
	}
	return balances.Set(ctx, to, dst)
}

func (l *StoreLedger) BalanceOf(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	var v domain.Amount
	err := l.store.View(ctx, func(tx kvstore.Tx) error {
		var err error
		v, err = kv.New(tx).Balances.Get(ctx, addr)
		return err
	})
	return v, err
}

// Mint credits amount to addr.
func (l *StoreLedger) Mint(ctx context.Context, addr domain.Address, amount domain.Amount) error {
	return l.store.Update(ctx, func(tx kvstore.Tx) error {
		return mintIn(ctx, kv.New(tx).Balances, addr, amount)
	})
}

func mintIn(ctx context.Context, balances repository.BalanceRepository, addr domain.Address, amount domain.Amount) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	v, err := balances.Get(ctx, addr)
	if err != nil {
		return err
	}
	next, err := v.Add(amount)
	if err != nil {
		return fmt.Errorf("mint to %s: %w", addr, err)
	}
	return balances.Set(ctx, addr, next)
}

// ApplyGenesis mints the opening balances once per store. It reports false
// when they were already applied.
func (l *StoreLedger) ApplyGenesis(ctx context.Context, allocations []Allocation) (bool, error) {
	applied := false
	err := l.store.Update(ctx, func(tx kvstore.Tx) error {
		r := kv.New(tx)
		done, err := r.Markers.Has(ctx, genesisMarker)
		if err != nil || done {
			return err
		}
		for _, a := range allocations {
			if err := mintIn(ctx, r.Balances, a.Address, a.Amount); err != nil {
				return err
			}
		}
		applied = true
		return r.Markers.Set(ctx, genesisMarker)
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
