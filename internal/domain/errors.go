package domain

import "errors"

type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization"
	KindPrecondition  ErrorKind = "precondition"
	KindNotFound      ErrorKind = "not_found"
	KindArithmetic    ErrorKind = "arithmetic"
	KindLiquidity     ErrorKind = "liquidity"
)

// Error is a contract failure with a stable numeric code. Values are compared
// by identity, so errors.Is works against the sentinels below.
type Error struct {
	Code    uint32
	Name    string
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return "rentacar: " + e.Message }

func newError(code uint32, name string, kind ErrorKind, msg string) *Error {
	return &Error{Code: code, Name: name, Kind: kind, Message: msg}
}

var (
	ErrContractInitialized                   = newError(1, "ContractInitialized", KindPrecondition, "contract already initialized")
	ErrAdminTokenConflict                    = newError(2, "AdminTokenConflict", KindPrecondition, "admin and token addresses must differ")
	ErrAdminNotFound                         = newError(3, "AdminNotFound", KindAuthorization, "admin not found")
	ErrCarAlreadyExist                       = newError(4, "CarAlreadyExist", KindPrecondition, "car already exists for owner")
	ErrCarNotFound                           = newError(5, "CarNotFound", KindNotFound, "car not found")
	ErrAmountMustBePositive                  = newError(6, "AmountMustBePositive", KindPrecondition, "amount must be positive")
	ErrRentalDurationCannotBeZero            = newError(7, "RentalDurationCannotBeZero", KindPrecondition, "rental duration cannot be zero")
	ErrSelfRentalNotAllowed                  = newError(8, "SelfRentalNotAllowed", KindPrecondition, "owner cannot rent own car")
	ErrCarAlreadyRented                      = newError(9, "CarAlreadyRented", KindPrecondition, "car is not available")
	ErrInsufficientBalance                   = newError(10, "InsufficientBalance", KindLiquidity, "insufficient balance")
	ErrBalanceNotAvailableForAmountRequested = newError(11, "BalanceNotAvailableForAmountRequested", KindLiquidity, "contract balance not available for amount requested")
	ErrOverflow                              = newError(12, "OverflowError", KindArithmetic, "arithmetic overflow")
	ErrUnderflow                             = newError(13, "UnderflowError", KindArithmetic, "arithmetic underflow")
	ErrAuthRequired                          = newError(14, "AuthRequired", KindAuthorization, "authorization required")
	ErrRentalNotFound                        = newError(15, "RentalNotFound", KindNotFound, "rental not found")
	ErrCarNotRented                          = newError(16, "CarNotRented", KindPrecondition, "car is not rented")
	ErrOutstandingBalance                    = newError(17, "OutstandingBalance", KindPrecondition, "car has an outstanding owner balance")
	ErrInvalidAddress                        = newError(18, "InvalidAddress", KindPrecondition, "invalid address")
)

// AsError returns the first contract error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the contract error code, or 0 when err is not a contract error.
func CodeOf(err error) uint32 {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return 0
}

// KindOf returns the error kind, or "" when err is not a contract error.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}
