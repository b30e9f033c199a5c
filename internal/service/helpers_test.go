package service_test

import (
	"context"
	"testing"
	"time"

	"rentacar-ledger/internal/auth"
	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/events"
	"rentacar-ledger/internal/kvstore"
	"rentacar-ledger/internal/kvstore/memory"
	"rentacar-ledger/internal/repository"
	"rentacar-ledger/internal/repository/kv"
	"rentacar-ledger/internal/service"
	"rentacar-ledger/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	admin     domain.Address = "GADMIN"
	tokenAddr domain.Address = "CTOKEN"
	custodian domain.Address = "CRENTACAR"
	owner     domain.Address = "GOWNER"
	renter    domain.Address = "GRENTER"
)

func amt(v int64) domain.Amount { return domain.NewAmount(v) }

func as(addr domain.Address) context.Context {
	return auth.WithCaller(context.Background(), addr)
}

type fixture struct {
	svc      service.ContractService
	store    kvstore.Store
	ledger   *token.Ledger
	recorder *events.Recorder
}

// newFixture returns an initialized contract backed by the in-memory store
// and token ledger.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.New())
}

func newFixtureWithStore(t *testing.T, store kvstore.Store) *fixture {
	t.Helper()
	f := &fixture{
		store:    store,
		ledger:   token.NewLedger(),
		recorder: events.NewRecorder(),
	}
	f.svc = service.NewContractService(store, auth.NewContextAuthorizer(), f.ledger, f.recorder, nil, custodian)
	require.NoError(t, f.svc.Initialize(context.Background(), admin, tokenAddr))
	return f
}

// withCar registers a car for owner at pricePerDay.
func (f *fixture) withCar(t *testing.T, o domain.Address, pricePerDay int64) {
	t.Helper()
	require.NoError(t, f.svc.AddCar(as(admin), o, amt(pricePerDay)))
}

func (f *fixture) withFee(t *testing.T, fee int64) {
	t.Helper()
	require.NoError(t, f.svc.SetAdminFee(as(admin), admin, amt(fee)))
}

func (f *fixture) fund(t *testing.T, addr domain.Address, v int64) {
	t.Helper()
	require.NoError(t, f.ledger.Mint(addr, amt(v)))
}

// write mutates storage directly, bypassing the contract.
func (f *fixture) write(t *testing.T, fn func(ctx context.Context, r *repository.Repositories) error) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Update(ctx, func(tx kvstore.Tx) error {
		return fn(ctx, kv.New(tx))
	}))
}

func (f *fixture) assertConserved(t *testing.T) {
	t.Helper()
	report, err := f.svc.Audit(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Balanced(), "contract balance %s != owners %s + fees %s",
		report.ContractBalance, report.OwnerBalances, report.AccumulatedFees)
}

func (f *fixture) balances(t *testing.T) (contract, fees domain.Amount) {
	t.Helper()
	var err error
	contract, err = f.svc.GetContractBalance(context.Background())
	require.NoError(t, err)
	fees, err = f.svc.GetAdminAccumulatedFees(context.Background())
	require.NoError(t, err)
	return contract, fees
}

// commitFailingStore runs every update to completion and then refuses to
// commit it.
type commitFailingStore struct {
	*memory.Store
	err  error
	fail bool
}

func (s *commitFailingStore) Update(ctx context.Context, fn func(tx kvstore.Tx) error) error {
	return s.Store.Update(ctx, func(tx kvstore.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		if s.fail {
			return s.err
		}
		return nil
	})
}

type MockTransferer struct {
	mock.Mock
}

func (m *MockTransferer) Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error {
	args := m.Called(ctx, from, to, amount)
	return args.Error(0)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordOperation(op string, duration time.Duration, err error) {
	m.Called(op, duration, err)
}

func (m *MockMetrics) RecordCustody(contractBalance, ownerBalances, accumulatedFees domain.Amount, balanced bool) {
	m.Called(contractBalance, ownerBalances, accumulatedFees, balanced)
}
