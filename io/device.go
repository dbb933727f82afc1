// Package io provides the interval timer, the memory mapped keyboard and
// screen controllers, the interrupt line they share with the CPU, and the
// tape loader.
//
// Devices run as independent tasks. They talk to the CPU only through
// their registers in memory and the interrupt line.
package io

import (
	"context"
	"iter"

	"github.com/ezrec/calos/ram"
)

// DeviceID identifies the device that raised an interrupt. The screen
// controller has an id but never interrupts.
type DeviceID int

//go:generate go tool stringer -linecomment -type=DeviceID
const (
	DEVICE_ID_TIMER    = DeviceID(0) // timer
	DEVICE_ID_KEYBOARD = DeviceID(1) // keyboard
	DEVICE_ID_SCREEN   = DeviceID(2) // screen
)

// DeviceSet is a set of device ids.
type DeviceSet uint32

// Has is true if id is in the set.
func (ds DeviceSet) Has(id DeviceID) bool {
	return (ds & (1 << id)) != 0
}

// With returns the set with id added.
func (ds DeviceSet) With(id DeviceID) DeviceSet {
	return ds | (1 << id)
}

// All iterates over the ids in the set, lowest first.
func (ds DeviceSet) All() iter.Seq[DeviceID] {
	return func(yield func(DeviceID) bool) {
		for id := DeviceID(0); ds>>id != 0; id++ {
			if ds.Has(id) && !yield(id) {
				return
			}
		}
	}
}

// Memory is the physical memory devices poll their registers from.
type Memory interface {
	Read(addr int) (ram.Word, error)
	Write(addr int, word ram.Word) error
}

// Task is a device that runs until its context is cancelled.
type Task interface {
	Run(ctx context.Context) error
}

// register reads a device register as bits. Text or unreadable words read as 0.
func register(mem Memory, addr int) int {
	word, err := mem.Read(addr)
	if err != nil {
		return 0
	}
	value, _ := word.Int()
	return value
}
