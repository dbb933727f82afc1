// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package mmu translates a process's logical addresses to physical memory
// with a relocation base and a limit.
package mmu

import (
	"github.com/ezrec/calos/ram"
)

// MMU relocates logical addresses by Base, and faults on logical
// addresses at or beyond Limit.
//
// The device window [ram.IO_BASE, size) is exempt from both: programs
// reach the device registers at their fixed physical addresses.
type MMU struct {
	Memory *ram.Memory

	Base  int // Relocation base.
	Limit int // Size of the logical address space.
}

// New creates an MMU with an identity mapping over all of mem.
func New(mem *ram.Memory) (mmu *MMU) {
	mmu = &MMU{
		Memory: mem,
		Limit:  mem.Size(),
	}
	return
}

// SetRelocation reprograms the base and limit.
func (mmu *MMU) SetRelocation(base, limit int) {
	mmu.Base = base
	mmu.Limit = limit
}

// IsDevice is true for addresses inside the device window.
func (mmu *MMU) IsDevice(addr int) bool {
	return addr >= ram.IO_BASE && addr < mmu.Memory.Size()
}

// Translate a logical address to a physical address.
func (mmu *MMU) Translate(logical int) (physical int, err error) {
	if mmu.IsDevice(logical) {
		physical = logical
		return
	}

	if logical < 0 || logical >= mmu.Limit {
		err = &ErrLimit{Logical: logical, Base: mmu.Base, Limit: mmu.Limit}
		return
	}

	physical = logical + mmu.Base
	return
}

// Read the word at a logical address.
func (mmu *MMU) Read(logical int) (word ram.Word, err error) {
	physical, err := mmu.Translate(logical)
	if err != nil {
		return
	}

	return mmu.Memory.Read(physical)
}

// Write the word at a logical address.
func (mmu *MMU) Write(logical int, word ram.Word) (err error) {
	physical, err := mmu.Translate(logical)
	if err != nil {
		return
	}

	return mmu.Memory.Write(physical, word)
}
