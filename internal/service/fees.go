package service

import (
	"context"
	"fmt"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/logger"
	"rentacar-ledger/internal/token"
)

// rentalSettlement is the state a rental leaves behind, computed in full
// before any funds move.
type rentalSettlement struct {
	Deposit         domain.Amount
	CarBalance      domain.Amount
	ContractBalance domain.Amount
	AccumulatedFees domain.Amount
}

// settleRental splits amount into the owner deposit and the admin fee and
// computes the resulting balances.
func settleRental(amount, fee, carBalance, contractBalance, accumulatedFees domain.Amount) (rentalSettlement, error) {
	deposit, err := amount.Sub(fee)
	if err != nil {
		return rentalSettlement{}, err
	}
	if deposit.IsNegative() {
		return rentalSettlement{}, fmt.Errorf("%w: amount %s is below admin fee %s: %w",
			domain.ErrAmountMustBePositive, amount, fee, domain.ErrUnderflow)
	}

	var s rentalSettlement
	s.Deposit = deposit
	if s.CarBalance, err = carBalance.Add(deposit); err != nil {
		return rentalSettlement{}, err
	}
	if s.ContractBalance, err = contractBalance.Add(amount); err != nil {
		return rentalSettlement{}, err
	}
	if s.AccumulatedFees, err = accumulatedFees.Add(fee); err != nil {
		return rentalSettlement{}, err
	}
	return s, nil
}

// settleWithdrawal debits amount from an entity balance (an owner's car or
// the admin's accrued fees) and from the contract balance.
func settleWithdrawal(amount, entityBalance, contractBalance domain.Amount) (domain.Amount, domain.Amount, error) {
	if amount.GreaterThan(entityBalance) {
		return domain.Amount{}, domain.Amount{}, domain.ErrInsufficientBalance
	}
	if amount.GreaterThan(contractBalance) {
		return domain.Amount{}, domain.Amount{}, domain.ErrBalanceNotAvailableForAmountRequested
	}
	entity, err := entityBalance.Sub(amount)
	if err != nil {
		return domain.Amount{}, domain.Amount{}, err
	}
	contract, err := contractBalance.Sub(amount)
	if err != nil {
		return domain.Amount{}, domain.Amount{}, err
	}
	return entity, contract, nil
}

// quoteRental is what a renter has to send: price × days plus the fee.
func quoteRental(pricePerDay domain.Amount, days uint32, fee domain.Amount) (domain.Amount, error) {
	if days == 0 {
		return domain.Amount{}, domain.ErrRentalDurationCannotBeZero
	}
	total, err := pricePerDay.MulUint32(days)
	if err != nil {
		return domain.Amount{}, err
	}
	return total.Add(fee)
}

type transfer struct {
	from, to domain.Address
	amount   domain.Amount
}

// transfer moves funds. A ledger kept in the contract's store moves them in
// op's transaction; any other ledger is called directly and the movement is
// recorded on op so it can be reversed if the transaction fails to commit.
func (s *contractService) transfer(ctx context.Context, op *operation, from, to domain.Address, amount domain.Amount) error {
	if tt, ok := s.token.(token.TxTransferer); ok {
		return tt.TransferTx(ctx, op.tx, from, to, amount)
	}
	if err := s.token.Transfer(ctx, from, to, amount); err != nil {
		return err
	}
	op.transfers = append(op.transfers, transfer{from: from, to: to, amount: amount})
	return nil
}

// compensate reverses transfers whose state change was not committed.
func (s *contractService) compensate(ctx context.Context, opName string, transfers []transfer) {
	ctx = context.WithoutCancel(ctx)
	for i := len(transfers) - 1; i >= 0; i-- {
		t := transfers[i]
		if err := s.token.Transfer(ctx, t.to, t.from, t.amount); err != nil {
			logger.Error("Compensating transfer failed",
				"operation", opName, "from", t.to, "to", t.from, "amount", t.amount.String(), "error", err)
			continue
		}
		logger.Warn("Reversed transfer after failed commit",
			"operation", opName, "from", t.to, "to", t.from, "amount", t.amount.String())
	}
}
