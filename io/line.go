package io

import (
	"sync"
)

// Line is the interrupt request line shared by devices and the CPU.
//
// Devices raise it at any time. The CPU samples it once per instruction,
// before the fetch, and takes every pending device at once.
type Line struct {
	mutex   sync.Mutex
	pending DeviceSet
}

// Raise the line on behalf of a device.
func (line *Line) Raise(id DeviceID) {
	line.mutex.Lock()
	line.pending = line.pending.With(id)
	line.mutex.Unlock()
}

// Pending is true while any interrupt is raised and not yet taken.
func (line *Line) Pending() (ok bool) {
	line.mutex.Lock()
	ok = line.pending != 0
	line.mutex.Unlock()
	return
}

// Peek returns the pending devices without clearing them.
func (line *Line) Peek() (pending DeviceSet) {
	line.mutex.Lock()
	pending = line.pending
	line.mutex.Unlock()
	return
}

// Take returns the pending devices and lowers the line.
func (line *Line) Take() (pending DeviceSet) {
	line.mutex.Lock()
	pending = line.pending
	line.pending = 0
	line.mutex.Unlock()
	return
}

// Lower clears one device's pending request, leaving the others raised.
func (line *Line) Lower(id DeviceID) {
	line.mutex.Lock()
	line.pending &^= DeviceSet(1) << id
	line.mutex.Unlock()
}
