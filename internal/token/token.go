// Package token moves custodied funds between accounts.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/logger"
)

var (
	ErrInsufficientFunds = errors.New("token: insufficient funds")
	ErrNegativeAmount    = errors.New("token: negative amount")
)

// Transferer moves amount from one account to another. It either moves the
// full amount or fails without effect.
type Transferer interface {
	Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error
}

// Ledger is an in-memory token ledger. It stands in for the settlement
// network in development and tests.
type Ledger struct {
	mu       sync.Mutex
	balances map[domain.Address]domain.Amount
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[domain.Address]domain.Amount)}
}

// Mint credits amount to addr.
func (l *Ledger) Mint(addr domain.Address, amount domain.Amount) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	next, err := l.balances[addr].Add(amount)
	if err != nil {
		return fmt.Errorf("mint to %s: %w", addr, err)
	}
	l.balances[addr] = next
	return nil
}

func (l *Ledger) BalanceOf(addr domain.Address) domain.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

func (l *Ledger) Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error {
	logger.ExternalServiceCall("token", "transfer", "from", from, "to", to, "amount", amount.String())
	err := l.transfer(ctx, from, to, amount)
	logger.ExternalServiceResult("token", "transfer", err, "from", from, "to", to)
	return err
}

func (l *Ledger) transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	src, dst, err := move(from, to, l.balances[from], l.balances[to], amount)
	if err != nil || from == to {
		return err
	}
	l.balances[from] = src
	l.balances[to] = dst
	return nil
}

// move debits src and credits dst by amount. When from == to the balances
// are returned unchanged.
func move(from, to domain.Address, src, dst, amount domain.Amount) (domain.Amount, domain.Amount, error) {
	if amount.IsNegative() {
		return src, dst, ErrNegativeAmount
	}
	if src.LessThan(amount) {
		return src, dst, fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from, src, amount)
	}
	if from == to {
		return src, dst, nil
	}
	next, err := dst.Add(amount)
	if err != nil {
		return src, dst, fmt.Errorf("credit %s: %w", to, err)
	}
	// src >= amount >= 0, so this cannot fail.
	rest, _ := src.Sub(amount)
	return rest, next, nil
}
