// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package ram implements the word addressed main memory and its memory map.
package ram

import (
	"fmt"
	"iter"
	"maps"
	"sync"
)

// Memory map. The top of memory is the device window; the MMU never
// relocates it.
const (
	RAM_SIZE  = 1024 // Default memory size, in words.
	IO_BASE   = 992  // First address of the device window.
	IDLE_BASE = 991  // Idle process self-jump.

	KBD_STATUS  = 997 // Keyboard status register.
	KBD_CONTROL = 998 // Keyboard control register.
	KBD_DATA    = 999 // Keyboard data-in register.

	SCREEN_STATUS  = 1020 // Screen status register.
	SCREEN_CONTROL = 1021 // Screen control register.
	SCREEN_DATA    = 1022 // Screen data-out register.
)

// Device register bits.
const (
	STATUS_BUSY   = 0x1 // STATUS: device busy.
	CONTROL_READY = 0x1 // CONTROL: command ready.
	CONTROL_WRITE = 0x2 // CONTROL: screen write.
	CONTROL_READ  = 0x4 // CONTROL: keyboard read.
)

var _ram_defines = map[string]string{
	"RAM_SIZE":       fmt.Sprintf("%d", RAM_SIZE),
	"IO_BASE":        fmt.Sprintf("%d", IO_BASE),
	"KBD_STATUS":     fmt.Sprintf("%d", KBD_STATUS),
	"KBD_CONTROL":    fmt.Sprintf("%d", KBD_CONTROL),
	"KBD_DATA":       fmt.Sprintf("%d", KBD_DATA),
	"SCREEN_STATUS":  fmt.Sprintf("%d", SCREEN_STATUS),
	"SCREEN_CONTROL": fmt.Sprintf("%d", SCREEN_CONTROL),
	"SCREEN_DATA":    fmt.Sprintf("%d", SCREEN_DATA),
	"STATUS_BUSY":    fmt.Sprintf("%#x", STATUS_BUSY),
	"CONTROL_READY":  fmt.Sprintf("%#x", CONTROL_READY),
	"CONTROL_WRITE":  fmt.Sprintf("%#x", CONTROL_WRITE),
	"CONTROL_READ":   fmt.Sprintf("%#x", CONTROL_READ),
}

// Defines returns the memory map as assembler equates.
func Defines() iter.Seq2[string, string] {
	return maps.All(_ram_defines)
}

// Memory is a fixed size array of words.
//
// Each Read or Write is atomic on its own. Nothing orders accesses from
// different goroutines beyond that: a device and the CPU racing on a
// register see each other's words in whatever order they land.
type Memory struct {
	mutex sync.RWMutex
	word  []Word
}

// New creates a zeroed memory of size words.
func New(size int) (mem *Memory) {
	mem = &Memory{
		word: make([]Word, size),
	}
	return
}

// Size of the memory in words.
func (mem *Memory) Size() int {
	return len(mem.word)
}

// IsLegal is true if addr is inside memory.
func (mem *Memory) IsLegal(addr int) bool {
	return addr >= 0 && addr < len(mem.word)
}

// Read the word at addr.
func (mem *Memory) Read(addr int) (word Word, err error) {
	if !mem.IsLegal(addr) {
		err = &ErrAddress{Addr: addr, Size: len(mem.word)}
		return
	}

	mem.mutex.RLock()
	word = mem.word[addr]
	mem.mutex.RUnlock()

	return
}

// Write the word at addr.
func (mem *Memory) Write(addr int, word Word) (err error) {
	if !mem.IsLegal(addr) {
		err = &ErrAddress{Addr: addr, Size: len(mem.word)}
		return
	}

	mem.mutex.Lock()
	mem.word[addr] = word
	mem.mutex.Unlock()

	return
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	mem.mutex.Lock()
	clear(mem.word)
	mem.mutex.Unlock()
}

// Words iterates over the addresses [start, end], clipped to memory.
func (mem *Memory) Words(start, end int) iter.Seq2[int, Word] {
	return func(yield func(addr int, word Word) bool) {
		for addr := max(start, 0); addr <= end && addr < len(mem.word); addr++ {
			word, _ := mem.Read(addr)
			if !yield(addr, word) {
				return
			}
		}
	}
}
