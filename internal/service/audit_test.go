package service_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractService_Audit(t *testing.T) {
	t.Run("Empty contract is balanced", func(t *testing.T) {
		f := newFixture(t)
		report, err := f.svc.Audit(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Balanced())
		assert.Equal(t, 0, report.Cars)
		assert.False(t, report.CheckedAt.IsZero())
	})

	t.Run("Detects drift", func(t *testing.T) {
		f := newFixture(t)
		f.withFee(t, 5)
		f.withCar(t, owner, 100)
		f.fund(t, renter, 1000)
		require.NoError(t, f.svc.Rental(as(renter), renter, owner, 3, amt(305)))

		f.write(t, func(ctx context.Context, r *repository.Repositories) error {
			return r.ContractBalance.Set(ctx, amt(300))
		})

		report, err := f.svc.Audit(context.Background())
		require.NoError(t, err)
		assert.False(t, report.Balanced())
		assert.Equal(t, amt(-5), report.Drift)
		assert.Equal(t, amt(300), report.OwnerBalances)
		assert.Equal(t, amt(5), report.AccumulatedFees)
		assert.Equal(t, 1, report.Cars)
	})
}

// Random sequences of operations, valid or not, never break conservation.
func TestContractService_ConservationHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	f := newFixture(t)

	owners := make([]domain.Address, 4)
	renters := make([]domain.Address, 4)
	for i := range owners {
		owners[i] = domain.Address(fmt.Sprintf("GOWNER%d", i))
		renters[i] = domain.Address(fmt.Sprintf("GRENTER%d", i))
		f.withCar(t, owners[i], int64(50+i*25))
		f.fund(t, renters[i], 1_000_000)
	}

	for step := 0; step < 300; step++ {
		o := owners[rng.Intn(len(owners))]
		r := renters[rng.Intn(len(renters))]
		v := amt(int64(rng.Intn(400)))

		var err error
		switch rng.Intn(6) {
		case 0:
			err = f.svc.SetAdminFee(as(admin), admin, amt(int64(rng.Intn(20))))
		case 1, 2:
			err = f.svc.Rental(as(r), r, o, uint32(1+rng.Intn(5)), v)
		case 3:
			err = f.svc.ReturnCar(as(r), r, o)
		case 4:
			err = f.svc.PayoutOwner(as(o), o, v)
		case 5:
			err = f.svc.WithdrawAdminFees(as(admin), admin, amt(int64(rng.Intn(30))))
		}
		if err != nil {
			_, isContractErr := domain.AsError(err)
			require.True(t, isContractErr, "step %d: unexpected error %v", step, err)
		}
		f.assertConserved(t)
	}

	// Everything custodied is accounted for on the token ledger too.
	contract, _ := f.balances(t)
	assert.Equal(t, contract, f.ledger.BalanceOf(custodian))
}
