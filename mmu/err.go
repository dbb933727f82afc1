package mmu

import (
	"github.com/ezrec/calos/translate"
)

var f = translate.From

var (
	ErrLimitFault = translate.Error("limit fault")
)

// ErrLimit is the trap raised for a logical address beyond the limit.
type ErrLimit struct {
	Logical int
	Base    int
	Limit   int
}

func (err *ErrLimit) Error() string {
	return f("logical address %d beyond limit %d (base %d)", err.Logical, err.Limit, err.Base)
}

func (err *ErrLimit) Unwrap() error {
	return ErrLimitFault
}
