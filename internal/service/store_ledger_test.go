package service_test

import (
	"context"
	"errors"
	"testing"

	"rentacar-ledger/internal/auth"
	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/events"
	"rentacar-ledger/internal/kvstore"
	"rentacar-ledger/internal/kvstore/memory"
	"rentacar-ledger/internal/service"
	"rentacar-ledger/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreBackedService(store kvstore.Store) (service.ContractService, *token.StoreLedger) {
	ledger := token.NewStoreLedger(store)
	svc := service.NewContractService(store, auth.NewContextAuthorizer(), ledger, events.NewRecorder(), nil, custodian)
	return svc, ledger
}

func storeBalance(t *testing.T, l *token.StoreLedger, addr domain.Address) domain.Amount {
	t.Helper()
	v, err := l.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return v
}

func TestContractService_StoreLedgerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	svc, ledger := newStoreBackedService(store)
	require.NoError(t, svc.Initialize(ctx, admin, tokenAddr))
	applied, err := ledger.ApplyGenesis(ctx, []token.Allocation{{Address: renter, Amount: amt(1000)}})
	require.NoError(t, err)
	require.True(t, applied)
	require.NoError(t, svc.SetAdminFee(as(admin), admin, amt(5)))
	require.NoError(t, svc.AddCar(as(admin), owner, amt(100)))
	require.NoError(t, svc.Rental(as(renter), renter, owner, 3, amt(305)))
	assert.Equal(t, amt(305), storeBalance(t, ledger, custodian))

	// Rebuild everything over the same store, as a restarted server does.
	svc, ledger = newStoreBackedService(store)
	applied, err = ledger.ApplyGenesis(ctx, []token.Allocation{{Address: renter, Amount: amt(1000)}})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, amt(695), storeBalance(t, ledger, renter))

	require.NoError(t, svc.PayoutOwner(as(owner), owner, amt(300)))
	require.NoError(t, svc.WithdrawAdminFees(as(admin), admin, amt(5)))

	assert.Equal(t, amt(300), storeBalance(t, ledger, owner))
	assert.Equal(t, amt(5), storeBalance(t, ledger, admin))
	assert.True(t, storeBalance(t, ledger, custodian).IsZero())

	report, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.Balanced())
	assert.True(t, report.ContractBalance.IsZero())
}

func TestContractService_StoreLedgerRollsBackWithState(t *testing.T) {
	ctx := context.Background()
	store := &commitFailingStore{Store: memory.New(), err: errors.New("disk full")}

	svc, ledger := newStoreBackedService(store)
	require.NoError(t, svc.Initialize(ctx, admin, tokenAddr))
	require.NoError(t, svc.AddCar(as(admin), owner, amt(100)))
	require.NoError(t, ledger.Mint(ctx, renter, amt(500)))

	store.fail = true
	err := svc.Rental(as(renter), renter, owner, 3, amt(300))
	assert.EqualError(t, err, "disk full")
	store.fail = false

	assert.Equal(t, amt(500), storeBalance(t, ledger, renter))
	assert.True(t, storeBalance(t, ledger, custodian).IsZero())

	status, err := svc.GetCarStatus(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.CarStatusAvailable, status)

	t.Run("Insufficient funds rejects the rental", func(t *testing.T) {
		err := svc.Rental(as(renter), renter, owner, 6, amt(600))
		assert.ErrorIs(t, err, token.ErrInsufficientFunds)
		assert.Equal(t, amt(500), storeBalance(t, ledger, renter))
	})
}
