package ram

import (
	"github.com/ezrec/calos/translate"
)

var f = translate.From

var (
	ErrIllegalAddress = translate.Error("illegal address")
)

// ErrAddress reports an access outside of memory.
type ErrAddress struct {
	Addr int
	Size int
}

func (err *ErrAddress) Error() string {
	return f("address %d outside [0, %d]", err.Addr, err.Size-1)
}

func (err *ErrAddress) Unwrap() error {
	return ErrIllegalAddress
}
