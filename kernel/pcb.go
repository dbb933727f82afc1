package kernel

import (
	"fmt"

	"github.com/ezrec/calos/cpu"
)

// State is the scheduling state of a process.
//
// A NEW process has been created but not admitted. READY processes wait
// on the ready queue, and the RUNNING one owns the CPU. WAITING is
// reserved, as no instruction blocks. DONE processes ended or faulted.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_NEW     = State(iota) // NEW
	STATE_READY                 // READY
	STATE_RUNNING               // RUNNING
	STATE_WAITING               // WAITING
	STATE_DONE                  // DONE
)

// IDLE_PID is the pid of the idle process.
const IDLE_PID = 0

// PCB is a process control block.
//
// A process owns the physical partition [MemLow, MemHigh). Its logical
// address 0 is MemLow.
type PCB struct {
	Pid        int
	Name       string
	State      State
	EntryPoint int // Physical address of the first instruction.
	MemLow     int
	MemHigh    int
	Quantum    int // Timer ticks per turn.

	Registers cpu.Registers // Saved registers while not running.
	Fault     error         // Why the process ended, if it faulted.
}

// IsIdle is true for the idle process.
func (pcb *PCB) IsIdle() bool {
	return pcb.Pid == IDLE_PID
}

func (pcb *PCB) String() string {
	return fmt.Sprintf("PCB(%v): %d, state %v, pc %d", pcb.Name, pcb.Pid, pcb.State, pcb.Registers.Pc)
}
