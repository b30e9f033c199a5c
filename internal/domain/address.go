package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Address identifies an account or contract on the settlement network.
type Address string

func (a Address) String() string { return string(a) }

func (a Address) Validate() error {
	if a == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if strings.IndexFunc(string(a), unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidAddress, string(a))
	}
	return nil
}
