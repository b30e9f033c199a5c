package kv

import (
	"context"
	"testing"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/kvstore"
	"rentacar-ledger/internal/kvstore/memory"
	"rentacar-ledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, s kvstore.Store, fn func(ctx context.Context, r *repository.Repositories)) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx kvstore.Tx) error {
		fn(ctx, New(tx))
		return nil
	}))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "car/5:GOWNR", carKey("GOWNR"))
	assert.NotEqual(t, rentalKey("ab", "c"), rentalKey("a", "bc"))
}

func TestSingletons(t *testing.T) {
	s := memory.New()

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		_, ok, err := r.Admin.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		fee, err := r.AdminFee.Get(ctx)
		require.NoError(t, err)
		assert.True(t, fee.IsZero())

		require.NoError(t, r.Admin.Set(ctx, "GADMIN"))
		require.NoError(t, r.Token.Set(ctx, "CTOKEN"))
		require.NoError(t, r.AdminFee.Set(ctx, domain.NewAmount(5)))
		require.NoError(t, r.ContractBalance.Set(ctx, domain.MaxAmount))
	})

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		admin, ok, err := r.Admin.Get(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.Address("GADMIN"), admin)

		ok, err = r.Token.Has(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		fee, err := r.AdminFee.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.NewAmount(5), fee)

		bal, err := r.ContractBalance.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.MaxAmount, bal)

		acc, err := r.AccumulatedFees.Get(ctx)
		require.NoError(t, err)
		assert.True(t, acc.IsZero())
	})
}

func TestCarRepository(t *testing.T) {
	s := memory.New()

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		_, err := r.Cars.Get(ctx, "GOWNER")
		assert.ErrorIs(t, err, domain.ErrCarNotFound)

		require.NoError(t, r.Cars.Set(ctx, "GOWNER", domain.NewCar(domain.NewAmount(100))))
	})

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		car, err := r.Cars.Get(ctx, "GOWNER")
		require.NoError(t, err)
		assert.Equal(t, domain.CarStatusAvailable, car.Status)
		assert.Equal(t, domain.NewAmount(100), car.PricePerDay)

		require.NoError(t, r.Cars.Delete(ctx, "GOWNER"))
		ok, err := r.Cars.Has(ctx, "GOWNER")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCarIndexRepository(t *testing.T) {
	s := memory.New()

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		require.NoError(t, r.CarIndex.Add(ctx, "A"))
		require.NoError(t, r.CarIndex.Add(ctx, "B"))
		require.NoError(t, r.CarIndex.Add(ctx, "A"))
		require.NoError(t, r.CarIndex.Add(ctx, "C"))
	})

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		owners, err := r.CarIndex.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Address{"A", "B", "C"}, owners)

		require.NoError(t, r.CarIndex.Remove(ctx, "B"))
		require.NoError(t, r.CarIndex.Remove(ctx, "missing"))

		owners, err = r.CarIndex.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Address{"A", "C"}, owners)
	})
}

func TestRentalRepository(t *testing.T) {
	s := memory.New()

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		_, err := r.Rentals.Get(ctx, "GRENTER", "GOWNER")
		assert.ErrorIs(t, err, domain.ErrRentalNotFound)

		require.NoError(t, r.Rentals.Set(ctx, "GRENTER", "GOWNER", &domain.Rental{TotalDaysToRent: 3, Amount: domain.NewAmount(300)}))
	})

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		rental, err := r.Rentals.Get(ctx, "GRENTER", "GOWNER")
		require.NoError(t, err)
		assert.Equal(t, uint32(3), rental.TotalDaysToRent)
		assert.Equal(t, domain.NewAmount(300), rental.Amount)

		ok, err := r.Rentals.Has(ctx, "GOWNER", "GRENTER")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, r.Rentals.Delete(ctx, "GRENTER", "GOWNER"))
		ok, err = r.Rentals.Has(ctx, "GRENTER", "GOWNER")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestReadOnlyViewRejectsWrites(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	err := s.View(ctx, func(tx kvstore.Tx) error {
		return New(tx).AdminFee.Set(ctx, domain.NewAmount(1))
	})
	assert.ErrorIs(t, err, kvstore.ErrReadOnly)
}

func TestBalanceRepository(t *testing.T) {
	s := memory.New()

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		v, err := r.Balances.Get(ctx, "GRENTER")
		require.NoError(t, err)
		assert.True(t, v.IsZero())

		require.NoError(t, r.Balances.Set(ctx, "GRENTER", domain.NewAmount(305)))
	})

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		v, err := r.Balances.Get(ctx, "GRENTER")
		require.NoError(t, err)
		assert.Equal(t, domain.NewAmount(305), v)

		other, err := r.Balances.Get(ctx, "GOWNER")
		require.NoError(t, err)
		assert.True(t, other.IsZero())
	})
	assert.Equal(t, "balance/7:GRENTER", balanceKey("GRENTER"))
}

func TestMarkerRepository(t *testing.T) {
	s := memory.New()

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		ok, err := r.Markers.Has(ctx, "genesis")
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, r.Markers.Set(ctx, "genesis"))
	})

	update(t, s, func(ctx context.Context, r *repository.Repositories) {
		ok, err := r.Markers.Has(ctx, "genesis")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
