package domain

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strconv"

	"github.com/shopspring/decimal"
)

// TokenDecimals is the number of fractional digits of the custodied token
// (1 unit = 10^7 stroops).
const TokenDecimals = 7

// Amount is a signed 128-bit integer expressed in the token's smallest unit.
// The zero value is 0. Arithmetic never wraps: out of range results are
// reported as ErrOverflow (addition, multiplication) or ErrUnderflow
// (subtraction).
type Amount struct {
	hi int64
	lo uint64
}

var (
	MaxAmount = Amount{hi: math.MaxInt64, lo: math.MaxUint64}
	MinAmount = Amount{hi: math.MinInt64, lo: 0}

	maxAmountBig = MaxAmount.Big()
	minAmountBig = MinAmount.Big()
	mask64       = new(big.Int).SetUint64(math.MaxUint64)
)

func NewAmount(v int64) Amount {
	if v < 0 {
		return Amount{hi: -1, lo: uint64(v)}
	}
	return Amount{lo: uint64(v)}
}

// AmountFromBig converts v, failing with ErrOverflow when it does not fit in
// 128 bits.
func AmountFromBig(v *big.Int) (Amount, error) {
	if v.Cmp(maxAmountBig) > 0 || v.Cmp(minAmountBig) < 0 {
		return Amount{}, ErrOverflow
	}
	lo := new(big.Int).And(v, mask64).Uint64()
	hi := new(big.Int).Rsh(v, 64).Int64()
	return Amount{hi: hi, lo: lo}, nil
}

// ParseAmount parses a base 10 integer string.
func ParseAmount(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return AmountFromBig(v)
}

// Add returns a+b or ErrOverflow.
func (a Amount) Add(b Amount) (Amount, error) {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	hi := int64(uint64(a.hi) + uint64(b.hi) + carry)
	sum := Amount{hi: hi, lo: lo}
	if (a.hi < 0) == (b.hi < 0) && (sum.hi < 0) != (a.hi < 0) {
		return Amount{}, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrUnderflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	lo, borrow := bits.Sub64(a.lo, b.lo, 0)
	hi := int64(uint64(a.hi) - uint64(b.hi) - borrow)
	diff := Amount{hi: hi, lo: lo}
	if (a.hi < 0) != (b.hi < 0) && (diff.hi < 0) != (a.hi < 0) {
		return Amount{}, ErrUnderflow
	}
	return diff, nil
}

// MulUint32 returns a*n or ErrOverflow.
func (a Amount) MulUint32(n uint32) (Amount, error) {
	v := new(big.Int).Mul(a.Big(), new(big.Int).SetUint64(uint64(n)))
	return AmountFromBig(v)
}

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.hi < b.hi:
		return -1
	case a.hi > b.hi:
		return 1
	case a.lo < b.lo:
		return -1
	case a.lo > b.lo:
		return 1
	}
	return 0
}

func (a Amount) Sign() int {
	switch {
	case a.hi < 0:
		return -1
	case a.hi == 0 && a.lo == 0:
		return 0
	}
	return 1
}

func (a Amount) IsZero() bool { return a.hi == 0 && a.lo == 0 }
func (a Amount) IsNegative() bool { return a.hi < 0 }
func (a Amount) IsPositive() bool { return a.Sign() > 0 }
func (a Amount) GreaterThan(b Amount) bool { return a.Cmp(b) > 0 }
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }
func (a Amount) Equal(b Amount) bool { return a == b }

func (a Amount) Big() *big.Int {
	v := new(big.Int).SetInt64(a.hi)
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(a.lo))
}

// Float64 is lossy and only meant for gauges.
func (a Amount) Float64() float64 {
	f, _ := new(big.Float).SetInt(a.Big()).Float64()
	return f
}

func (a Amount) String() string {
	if a.hi == 0 {
		return strconv.FormatUint(a.lo, 10)
	}
	return a.Big().String()
}

// Display renders the amount in whole token units, e.g. "30.5000000".
func (a Amount) Display() string {
	return decimal.NewFromBigInt(a.Big(), -TokenDecimals).StringFixed(TokenDecimals)
}

// MarshalJSON encodes the amount as a decimal string so that values beyond
// 2^53 survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON accepts a decimal string or a bare JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid amount %s: %w", s, err)
		}
		s = unquoted
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
