package service

import (
	"context"
	"strconv"
	"time"

	"rentacar-ledger/internal/auth"
	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/events"
	"rentacar-ledger/internal/kvstore"
	"rentacar-ledger/internal/logger"
	"rentacar-ledger/internal/repository"
	"rentacar-ledger/internal/repository/kv"
	"rentacar-ledger/internal/token"
)

type contractService struct {
	store     kvstore.Store
	authz     auth.Authorizer
	token     token.Transferer
	notifier  events.Notifier
	metrics   Metrics
	custodian domain.Address
}

// NewContractService builds the contract over store. custodian is the
// account that holds escrowed funds; metrics may be nil.
func NewContractService(
	store kvstore.Store,
	authz auth.Authorizer,
	transferer token.Transferer,
	notifier events.Notifier,
	metrics Metrics,
	custodian domain.Address,
) ContractService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &contractService{
		store:     store,
		authz:     authz,
		token:     transferer,
		notifier:  notifier,
		metrics:   metrics,
		custodian: custodian,
	}
}

// operation collects what one transaction did besides writing state.
type operation struct {
	tx        kvstore.Tx
	repos     *repository.Repositories
	transfers []transfer
	events    []domain.Event
}

func (op *operation) emit(name domain.EventName, fields map[string]string) {
	op.events = append(op.events, domain.NewEvent(name, fields))
}

// update runs fn in a store transaction. Events are delivered only after the
// commit; transfers made by a transaction that did not commit are reversed.
func (s *contractService) update(ctx context.Context, name string, fn func(op *operation) error, args ...any) error {
	method := "contractService." + name
	logger.EnterMethod(method, args...)
	start := time.Now()

	var op *operation
	err := s.store.Update(ctx, func(tx kvstore.Tx) error {
		op = &operation{tx: tx, repos: kv.New(tx)}
		return fn(op)
	})
	s.metrics.RecordOperation(name, time.Since(start), err)

	if err != nil {
		if op != nil && len(op.transfers) > 0 {
			s.compensate(ctx, name, op.transfers)
		}
		if _, ok := domain.AsError(err); ok {
			logger.ExitMethod(method, append(args, "rejected", err)...)
		} else {
			logger.ExitMethodWithError(method, err, args...)
		}
		return err
	}

	for _, e := range op.events {
		s.notifier.Emit(ctx, e)
	}
	logger.ExitMethod(method, args...)
	return nil
}

func (s *contractService) view(ctx context.Context, fn func(r *repository.Repositories) error) error {
	return s.store.View(ctx, func(tx kvstore.Tx) error {
		return fn(kv.New(tx))
	})
}

// requireAdmin authorizes the stored admin.
func (s *contractService) requireAdmin(ctx context.Context, r *repository.Repositories) (domain.Address, error) {
	admin, ok, err := r.Admin.Get(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrAdminNotFound
	}
	if err := s.authz.RequireAuth(ctx, admin); err != nil {
		return "", err
	}
	return admin, nil
}

func (s *contractService) Initialize(ctx context.Context, admin, tokenAddr domain.Address) error {
	return s.update(ctx, "Initialize", func(op *operation) error {
		if admin == tokenAddr {
			return domain.ErrAdminTokenConflict
		}
		if err := admin.Validate(); err != nil {
			return err
		}
		if err := tokenAddr.Validate(); err != nil {
			return err
		}

		initialized, err := op.repos.Admin.Has(ctx)
		if err != nil {
			return err
		}
		if initialized {
			return domain.ErrContractInitialized
		}

		if err := op.repos.Admin.Set(ctx, admin); err != nil {
			return err
		}
		if err := op.repos.Token.Set(ctx, tokenAddr); err != nil {
			return err
		}

		op.emit(domain.EventContractInitialized, map[string]string{
			"admin": admin.String(),
			"token": tokenAddr.String(),
		})
		return nil
	}, "admin", admin, "token", tokenAddr)
}

func (s *contractService) AddCar(ctx context.Context, owner domain.Address, pricePerDay domain.Amount) error {
	return s.update(ctx, "AddCar", func(op *operation) error {
		if _, err := s.requireAdmin(ctx, op.repos); err != nil {
			return err
		}
		if err := owner.Validate(); err != nil {
			return err
		}
		if !pricePerDay.IsPositive() {
			return domain.ErrAmountMustBePositive
		}

		exists, err := op.repos.Cars.Has(ctx, owner)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrCarAlreadyExist
		}

		if err := op.repos.Cars.Set(ctx, owner, domain.NewCar(pricePerDay)); err != nil {
			return err
		}
		if err := op.repos.CarIndex.Add(ctx, owner); err != nil {
			return err
		}

		op.emit(domain.EventCarAdded, map[string]string{
			"owner":         owner.String(),
			"price_per_day": pricePerDay.String(),
		})
		return nil
	}, "owner", owner, "pricePerDay", pricePerDay.String())
}

// RemoveCar refuses to delete a rented car or one whose owner still has funds
// to withdraw.
func (s *contractService) RemoveCar(ctx context.Context, owner domain.Address) error {
	return s.update(ctx, "RemoveCar", func(op *operation) error {
		if _, err := s.requireAdmin(ctx, op.repos); err != nil {
			return err
		}

		car, err := op.repos.Cars.Get(ctx, owner)
		if err != nil {
			return err
		}
		if car.Status == domain.CarStatusRented {
			return domain.ErrCarAlreadyRented
		}
		if car.AvailableToWithdraw.IsPositive() {
			return domain.ErrOutstandingBalance
		}

		if err := op.repos.Cars.Delete(ctx, owner); err != nil {
			return err
		}
		if err := op.repos.CarIndex.Remove(ctx, owner); err != nil {
			return err
		}

		op.emit(domain.EventCarRemoved, map[string]string{"owner": owner.String()})
		return nil
	}, "owner", owner)
}

func (s *contractService) GetCarStatus(ctx context.Context, owner domain.Address) (domain.CarStatus, error) {
	car, err := s.GetCar(ctx, owner)
	if err != nil {
		return 0, err
	}
	return car.Status, nil
}

func (s *contractService) GetCar(ctx context.Context, owner domain.Address) (*domain.Car, error) {
	var car *domain.Car
	err := s.view(ctx, func(r *repository.Repositories) error {
		var err error
		car, err = r.Cars.Get(ctx, owner)
		return err
	})
	return car, err
}

func (s *contractService) ListCars(ctx context.Context) ([]domain.CarListing, error) {
	var cars []domain.CarListing
	err := s.view(ctx, func(r *repository.Repositories) error {
		owners, err := r.CarIndex.List(ctx)
		if err != nil {
			return err
		}
		cars = make([]domain.CarListing, 0, len(owners))
		for _, owner := range owners {
			car, err := r.Cars.Get(ctx, owner)
			if err != nil {
				return err
			}
			cars = append(cars, domain.CarListing{Owner: owner, Car: *car})
		}
		return nil
	})
	return cars, err
}

// Rental escrows amount from renter. amount must already include the admin
// fee; it is not checked against the car's daily price.
func (s *contractService) Rental(ctx context.Context, renter, owner domain.Address, totalDaysToRent uint32, amount domain.Amount) error {
	return s.update(ctx, "Rental", func(op *operation) error {
		if err := s.authz.RequireAuth(ctx, renter); err != nil {
			return err
		}
		if amount.IsNegative() {
			return domain.ErrAmountMustBePositive
		}
		if totalDaysToRent == 0 {
			return domain.ErrRentalDurationCannotBeZero
		}
		if renter == owner {
			return domain.ErrSelfRentalNotAllowed
		}

		car, err := op.repos.Cars.Get(ctx, owner)
		if err != nil {
			return err
		}
		if !car.IsAvailable() {
			return domain.ErrCarAlreadyRented
		}

		fee, err := op.repos.AdminFee.Get(ctx)
		if err != nil {
			return err
		}
		balance, err := op.repos.ContractBalance.Get(ctx)
		if err != nil {
			return err
		}
		accumulated, err := op.repos.AccumulatedFees.Get(ctx)
		if err != nil {
			return err
		}

		settlement, err := settleRental(amount, fee, car.AvailableToWithdraw, balance, accumulated)
		if err != nil {
			return err
		}

		if err := s.transfer(ctx, op, renter, s.custodian, amount); err != nil {
			return err
		}

		car.Status = domain.CarStatusRented
		car.AvailableToWithdraw = settlement.CarBalance
		rental := &domain.Rental{TotalDaysToRent: totalDaysToRent, Amount: settlement.Deposit}

		if err := op.repos.Cars.Set(ctx, owner, car); err != nil {
			return err
		}
		if err := op.repos.Rentals.Set(ctx, renter, owner, rental); err != nil {
			return err
		}
		if err := op.repos.ContractBalance.Set(ctx, settlement.ContractBalance); err != nil {
			return err
		}
		if err := op.repos.AccumulatedFees.Set(ctx, settlement.AccumulatedFees); err != nil {
			return err
		}

		op.emit(domain.EventRented, map[string]string{
			"renter":             renter.String(),
			"owner":              owner.String(),
			"total_days_to_rent": strconv.FormatUint(uint64(totalDaysToRent), 10),
			"amount":             amount.String(),
		})
		return nil
	}, "renter", renter, "owner", owner, "days", totalDaysToRent, "amount", amount.String())
}

// ReturnCar makes a rented car available again and closes the rental. The
// deposit stays credited to the owner.
func (s *contractService) ReturnCar(ctx context.Context, renter, owner domain.Address) error {
	return s.update(ctx, "ReturnCar", func(op *operation) error {
		if err := s.authz.RequireAuth(ctx, renter); err != nil {
			return err
		}

		if _, err := op.repos.Rentals.Get(ctx, renter, owner); err != nil {
			return err
		}
		car, err := op.repos.Cars.Get(ctx, owner)
		if err != nil {
			return err
		}
		if car.Status != domain.CarStatusRented {
			return domain.ErrCarNotRented
		}

		car.Status = domain.CarStatusAvailable
		if err := op.repos.Cars.Set(ctx, owner, car); err != nil {
			return err
		}
		if err := op.repos.Rentals.Delete(ctx, renter, owner); err != nil {
			return err
		}

		op.emit(domain.EventCarReturned, map[string]string{
			"renter": renter.String(),
			"owner":  owner.String(),
		})
		return nil
	}, "renter", renter, "owner", owner)
}

func (s *contractService) GetRental(ctx context.Context, renter, owner domain.Address) (*domain.Rental, error) {
	var rental *domain.Rental
	err := s.view(ctx, func(r *repository.Repositories) error {
		var err error
		rental, err = r.Rentals.Get(ctx, renter, owner)
		return err
	})
	return rental, err
}

func (s *contractService) QuoteRental(ctx context.Context, owner domain.Address, totalDaysToRent uint32) (domain.Amount, error) {
	var quote domain.Amount
	err := s.view(ctx, func(r *repository.Repositories) error {
		car, err := r.Cars.Get(ctx, owner)
		if err != nil {
			return err
		}
		fee, err := r.AdminFee.Get(ctx)
		if err != nil {
			return err
		}
		quote, err = quoteRental(car.PricePerDay, totalDaysToRent, fee)
		return err
	})
	return quote, err
}

func (s *contractService) PayoutOwner(ctx context.Context, owner domain.Address, amount domain.Amount) error {
	return s.update(ctx, "PayoutOwner", func(op *operation) error {
		if err := s.authz.RequireAuth(ctx, owner); err != nil {
			return err
		}
		if !amount.IsPositive() {
			return domain.ErrAmountMustBePositive
		}

		car, err := op.repos.Cars.Get(ctx, owner)
		if err != nil {
			return err
		}
		balance, err := op.repos.ContractBalance.Get(ctx)
		if err != nil {
			return err
		}

		carBalance, contractBalance, err := settleWithdrawal(amount, car.AvailableToWithdraw, balance)
		if err != nil {
			return err
		}

		if err := s.transfer(ctx, op, s.custodian, owner, amount); err != nil {
			return err
		}

		car.AvailableToWithdraw = carBalance
		if err := op.repos.Cars.Set(ctx, owner, car); err != nil {
			return err
		}
		if err := op.repos.ContractBalance.Set(ctx, contractBalance); err != nil {
			return err
		}

		op.emit(domain.EventPayoutOwner, map[string]string{
			"owner":  owner.String(),
			"amount": amount.String(),
		})
		return nil
	}, "owner", owner, "amount", amount.String())
}

func (s *contractService) SetAdminFee(ctx context.Context, admin domain.Address, fee domain.Amount) error {
	return s.update(ctx, "SetAdminFee", func(op *operation) error {
		stored, err := s.requireAdmin(ctx, op.repos)
		if err != nil {
			return err
		}
		if admin != stored {
			return domain.ErrAdminNotFound
		}
		if fee.IsNegative() {
			return domain.ErrAmountMustBePositive
		}

		if err := op.repos.AdminFee.Set(ctx, fee); err != nil {
			return err
		}

		op.emit(domain.EventAdminFeeSet, map[string]string{
			"admin": admin.String(),
			"fee":   fee.String(),
		})
		return nil
	}, "admin", admin, "fee", fee.String())
}

func (s *contractService) WithdrawAdminFees(ctx context.Context, admin domain.Address, amount domain.Amount) error {
	return s.update(ctx, "WithdrawAdminFees", func(op *operation) error {
		stored, err := s.requireAdmin(ctx, op.repos)
		if err != nil {
			return err
		}
		if admin != stored {
			return domain.ErrAdminNotFound
		}
		if !amount.IsPositive() {
			return domain.ErrAmountMustBePositive
		}

		accumulated, err := op.repos.AccumulatedFees.Get(ctx)
		if err != nil {
			return err
		}
		balance, err := op.repos.ContractBalance.Get(ctx)
		if err != nil {
			return err
		}

		fees, contractBalance, err := settleWithdrawal(amount, accumulated, balance)
		if err != nil {
			return err
		}

		if err := s.transfer(ctx, op, s.custodian, admin, amount); err != nil {
			return err
		}

		if err := op.repos.AccumulatedFees.Set(ctx, fees); err != nil {
			return err
		}
		if err := op.repos.ContractBalance.Set(ctx, contractBalance); err != nil {
			return err
		}

		op.emit(domain.EventAdminFeesWithdrawn, map[string]string{
			"admin":  admin.String(),
			"amount": amount.String(),
		})
		return nil
	}, "admin", admin, "amount", amount.String())
}

// GetAdmin fails with domain.ErrAdminNotFound before Initialize.
func (s *contractService) GetAdmin(ctx context.Context) (domain.Address, error) {
	var admin domain.Address
	err := s.view(ctx, func(r *repository.Repositories) error {
		a, ok, err := r.Admin.Get(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAdminNotFound
		}
		admin = a
		return nil
	})
	return admin, err
}

func (s *contractService) GetAdminFee(ctx context.Context) (domain.Amount, error) {
	return s.readAmount(ctx, func(r *repository.Repositories) repository.AmountRepository { return r.AdminFee })
}

func (s *contractService) GetAdminAccumulatedFees(ctx context.Context) (domain.Amount, error) {
	return s.readAmount(ctx, func(r *repository.Repositories) repository.AmountRepository { return r.AccumulatedFees })
}

func (s *contractService) GetContractBalance(ctx context.Context) (domain.Amount, error) {
	return s.readAmount(ctx, func(r *repository.Repositories) repository.AmountRepository { return r.ContractBalance })
}

func (s *contractService) readAmount(ctx context.Context, pick func(*repository.Repositories) repository.AmountRepository) (domain.Amount, error) {
	var v domain.Amount
	err := s.view(ctx, func(r *repository.Repositories) error {
		var err error
		v, err = pick(r).Get(ctx)
		return err
	})
	return v, err
}
