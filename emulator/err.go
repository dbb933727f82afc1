package emulator

import (
	"github.com/ezrec/calos/kernel"
	"github.com/ezrec/calos/translate"
)

var f = translate.From

// ErrProcess reports the fault that ended a process.
type ErrProcess struct {
	PCB *kernel.PCB
}

func (err *ErrProcess) Error() string {
	return f("%v: %v", err.PCB, err.PCB.Fault)
}

func (err *ErrProcess) Unwrap() error {
	return err.PCB.Fault
}
