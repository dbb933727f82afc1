package kernel

import (
	"github.com/ezrec/calos/translate"
)

var f = translate.From

var (
	ErrQueueEmpty       = translate.Error("ready queue empty")
	ErrNotReady         = translate.Error("process not ready")
	ErrNoCurrent        = translate.Error("no current process")
	ErrSwitchInProgress = translate.Error("context switch in progress")
	ErrIllegalPartition = translate.Error("illegal memory partition")
)

// ErrPartition reports a process memory partition that cannot be used.
type ErrPartition struct {
	Low, High, Entry int
}

func (err *ErrPartition) Error() string {
	return f("partition [%d, %d) entry %d: %v", err.Low, err.High, err.Entry, ErrIllegalPartition)
}

func (err *ErrPartition) Unwrap() error {
	return ErrIllegalPartition
}
