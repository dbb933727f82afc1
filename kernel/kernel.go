// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package kernel

import (
	"context"
	"errors"
	"fmt"
	stdio "io"
	"log"
	"os"

	"github.com/ezrec/calos/cpu"
	"github.com/ezrec/calos/io"
	"github.com/ezrec/calos/mmu"
	"github.com/ezrec/calos/ram"
)

// IDLE_INSTRUCTION is the idle process: a jump to itself.
const IDLE_INSTRUCTION = "jmp 0"

// syscallFunc services one system call for the current process.
type syscallFunc func(k *Kernel, regs *cpu.Registers) error

var _syscalls = map[string]syscallFunc{
	"test_syscall": (*Kernel).sysTest,
	"print":        (*Kernel).sysPrint,
	"getpid":       (*Kernel).sysGetpid,
	"yield":        (*Kernel).sysYield,
}

// Kernel services the CPU's system calls and interrupts, and runs
// processes until none are left.
type Kernel struct {
	Verbose bool
	Console stdio.Writer // Output of the 'print' and 'test_syscall' calls.

	*Scheduler

	syscalls map[string]syscallFunc
}

var _ cpu.Syscaller = (*Kernel)(nil)
var _ cpu.InterruptHandler = (*Kernel)(nil)

// NewKernel creates a kernel, installs it as the CPU's system call and
// interrupt handler, and writes the idle process to memory.
func NewKernel(c *cpu.Cpu, m *mmu.MMU, timer Timer, quantum int) (k *Kernel, err error) {
	err = m.Memory.Write(ram.IDLE_BASE, ram.Text(IDLE_INSTRUCTION))
	if err != nil {
		return
	}

	k = &Kernel{
		Console:   os.Stdout,
		Scheduler: NewScheduler(c, m, timer, quantum),
		syscalls:  _syscalls,
	}

	c.Syscalls = k
	c.Handler = k

	return
}

// SetVerbose sets the kernel and scheduler tracing.
func (k *Kernel) SetVerbose(verbose bool) {
	k.Verbose = verbose
	k.Scheduler.Verbose = verbose
}

// Syscall dispatches a 'call' instruction.
func (k *Kernel) Syscall(name string, regs *cpu.Registers) (err error) {
	fn, ok := k.syscalls[name]
	if !ok {
		err = cpu.ErrSyscall(name)
		return
	}

	if k.Verbose {
		log.Printf("kernel: call %v (%v)", name, regs)
	}

	return fn(k, regs)
}

func (k *Kernel) sysTest(regs *cpu.Registers) (err error) {
	_, err = fmt.Fprintln(k.Console, f("Test system call called!"))
	return
}

func (k *Kernel) sysPrint(regs *cpu.Registers) (err error) {
	_, err = fmt.Fprintln(k.Console, regs.Get(cpu.REG_0).String())
	return
}

func (k *Kernel) sysGetpid(regs *cpu.Registers) (err error) {
	pcb := k.Current()
	if pcb == nil {
		err = ErrNoCurrent
		return
	}
	return regs.Set(cpu.REG_0, ram.Int(pcb.Pid))
}

func (k *Kernel) sysYield(regs *cpu.Registers) (err error) {
	k.Timer.SetCountdown(1)
	return
}

// HandleInterrupt services every pending device.
func (k *Kernel) HandleInterrupt(pending io.DeviceSet) (err error) {
	for id := range pending.All() {
		switch id {
		case io.DEVICE_ID_TIMER:
			var pcb *PCB
			pcb, err = k.OnTimerInterrupt()
			if err != nil {
				return
			}
			if k.Verbose {
				log.Printf("kernel: timer, running %v", pcb)
			}
		case io.DEVICE_ID_KEYBOARD:
			if k.Verbose {
				data, _ := k.MMU.Memory.Read(ram.KBD_DATA)
				log.Printf("kernel: keyboard %v", data.Quote())
			}
		default:
			if k.Verbose {
				log.Printf("kernel: spurious interrupt from %v", id)
			}
		}
	}

	return
}

// Spawn creates a process in the partition [low, high) starting at
// entry, and queues it.
func (k *Kernel) Spawn(name string, entry, low, high, quantum int) (pcb *PCB, err error) {
	if low < 0 || high > ram.IDLE_BASE || low >= high || entry < low || entry >= high {
		err = &ErrPartition{Low: low, High: high, Entry: entry}
		return
	}

	pcb = k.NewPCB(name, entry, low, high, quantum)
	k.Enqueue(pcb)
	return
}

// Step runs one instruction cycle of the current process, dispatching
// one first if the CPU is idle. A process that ends or faults is
// terminated; its fault is logged here and kept in its PCB.
func (k *Kernel) Step() (err error) {
	if k.Current() == nil {
		_, err = k.Dispatch()
		if err != nil {
			return
		}
	}

	halted, err := k.Cpu.Tick()
	pcb := k.Current()

	var fault *cpu.ErrFault
	if err != nil && !errors.As(err, &fault) {
		// Kernel errors from the interrupt handler.
		return
	}

	if err != nil {
		log.Printf("%v: %v", pcb, err)
	}

	if halted {
		k.Terminate(pcb, err)
	}

	err = nil
	return
}

// Run steps the CPU until every process has ended, or ctx is done.
func (k *Kernel) Run(ctx context.Context) (err error) {
	for k.Active() > 0 {
		err = k.Step()
		if err != nil {
			return
		}

		err = k.Cpu.Pause(ctx)
		if err != nil {
			return
		}
	}

	return
}
