// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package kernel

import (
	"iter"
	"log"
	"slices"

	"github.com/ezrec/calos/cpu"
	"github.com/ezrec/calos/io"
	"github.com/ezrec/calos/mmu"
	"github.com/ezrec/calos/ram"
)

// Timer is the interval timer the scheduler arms with each quantum.
type Timer interface {
	SetCountdown(value int)
}

// Scheduler is a round robin scheduler with an idle process.
type Scheduler struct {
	Verbose bool

	Cpu   *cpu.Cpu
	MMU   *mmu.MMU
	Timer Timer

	queue     ReadyQueue
	idle      *PCB
	current   *PCB
	done      []*PCB
	active    int
	nextPid   int
	switching bool
}

// NewScheduler creates a scheduler with the idle process queued. The
// idle process runs the single word at ram.IDLE_BASE.
func NewScheduler(c *cpu.Cpu, m *mmu.MMU, timer Timer, idleQuantum int) (sched *Scheduler) {
	sched = &Scheduler{
		Cpu:     c,
		MMU:     m,
		Timer:   timer,
		nextPid: IDLE_PID + 1,
	}

	sched.idle = &PCB{
		Pid:        IDLE_PID,
		Name:       "idle",
		EntryPoint: ram.IDLE_BASE,
		MemLow:     ram.IDLE_BASE,
		MemHigh:    ram.IDLE_BASE + 1,
		Quantum:    idleQuantum,
	}
	sched.queue.Enqueue(sched.idle)

	return
}

// NewPCB creates a process in the NEW state.
func (sched *Scheduler) NewPCB(name string, entry, low, high, quantum int) (pcb *PCB) {
	pcb = &PCB{
		Pid:        sched.nextPid,
		Name:       name,
		State:      STATE_NEW,
		EntryPoint: entry,
		MemLow:     low,
		MemHigh:    high,
		Quantum:    quantum,
	}
	pcb.Registers.Pc = entry - low

	sched.nextPid++
	return
}

// Enqueue a process on the ready queue. Admitting a NEW process counts
// it as active.
func (sched *Scheduler) Enqueue(pcb *PCB) {
	if pcb.State == STATE_NEW && !pcb.IsIdle() {
		sched.active++
	}

	sched.queue.Enqueue(pcb)

	if sched.Verbose {
		log.Printf("sched: enqueue %v", pcb)
	}
}

// arm points the MMU at the process's partition, and starts its quantum.
// A timer request still pending from the previous quantum is dropped.
func (sched *Scheduler) arm(pcb *PCB) {
	sched.MMU.SetRelocation(pcb.MemLow, pcb.MemHigh-pcb.MemLow)
	sched.Timer.SetCountdown(pcb.Quantum)
	if sched.Cpu.Line != nil {
		sched.Cpu.Line.Lower(io.DEVICE_ID_TIMER)
	}
}

// Dispatch the process at the head of the ready queue onto an idle CPU.
func (sched *Scheduler) Dispatch() (pcb *PCB, err error) {
	pcb, ok := sched.queue.Peek()
	if !ok {
		err = ErrQueueEmpty
		return
	}

	if pcb.State != STATE_READY {
		pcb = nil
		err = ErrNotReady
		return
	}

	sched.queue.Dequeue()

	pcb.State = STATE_RUNNING
	sched.Cpu.Registers = pcb.Registers
	sched.current = pcb
	sched.arm(pcb)

	if sched.Verbose {
		log.Printf("sched: dispatch %v", pcb)
	}

	return
}

// ContextSwitch saves the live registers to the current process, and
// loads next's saved registers and partition. Process states and the
// current process are left to the caller.
func (sched *Scheduler) ContextSwitch(next *PCB) (err error) {
	if sched.switching {
		err = ErrSwitchInProgress
		return
	}
	sched.switching = true
	defer func() { sched.switching = false }()

	if sched.current == nil {
		err = ErrNoCurrent
		return
	}

	sched.current.Registers = sched.Cpu.Registers
	sched.Cpu.Registers = next.Registers
	sched.MMU.SetRelocation(next.MemLow, next.MemHigh-next.MemLow)

	if sched.Verbose {
		log.Printf("sched: switch %v -> %v", sched.current, next)
	}

	return
}

// OnTimerInterrupt ends the current quantum. With nothing else ready
// the current process keeps the CPU; otherwise the head of the queue
// replaces it, and it goes to the back of the queue.
func (sched *Scheduler) OnTimerInterrupt() (pcb *PCB, err error) {
	prev := sched.current
	if prev == nil {
		return sched.Dispatch()
	}

	if sched.queue.Len() == 0 || sched.queue.OnlyIdle() {
		pcb = prev
		sched.Timer.SetCountdown(prev.Quantum)
		return
	}

	next, _ := sched.queue.Dequeue()

	err = sched.ContextSwitch(next)
	if err != nil {
		return
	}

	sched.Enqueue(prev)
	next.State = STATE_RUNNING
	sched.current = next
	sched.Timer.SetCountdown(next.Quantum)

	pcb = next
	return
}

// Terminate a process. A nil fault is a normal end.
func (sched *Scheduler) Terminate(pcb *PCB, fault error) {
	if pcb == sched.current {
		pcb.Registers = sched.Cpu.Registers
		sched.current = nil
	}

	pcb.State = STATE_DONE
	pcb.Fault = fault
	sched.done = append(sched.done, pcb)

	if !pcb.IsIdle() {
		sched.active--
	}

	if sched.Verbose {
		log.Printf("sched: terminate %v", pcb)
	}
}

// Abort terminates every admitted process with reason. The idle
// process is left queued.
func (sched *Scheduler) Abort(reason error) {
	if pcb := sched.current; pcb != nil {
		if pcb.IsIdle() {
			sched.current = nil
			sched.queue.Enqueue(pcb)
		} else {
			sched.Terminate(pcb, reason)
		}
	}

	waiting := slices.Collect(sched.queue.All())
	sched.queue = ReadyQueue{}
	for _, pcb := range waiting {
		if pcb.IsIdle() {
			sched.queue.Enqueue(pcb)
			continue
		}
		sched.Terminate(pcb, reason)
	}
}

// Current is the running process, or nil.
func (sched *Scheduler) Current() *PCB {
	return sched.current
}

// Idle is the idle process.
func (sched *Scheduler) Idle() *PCB {
	return sched.idle
}

// Active is the number of admitted processes not yet done.
func (sched *Scheduler) Active() int {
	return sched.active
}

// Ready iterates over the ready queue, head first.
func (sched *Scheduler) Ready() iter.Seq[*PCB] {
	return sched.queue.All()
}

// Done iterates over the terminated processes, in termination order.
func (sched *Scheduler) Done() iter.Seq[*PCB] {
	return slices.Values(sched.done)
}
