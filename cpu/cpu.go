// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ezrec/calos/io"
	"github.com/ezrec/calos/ram"
)

// DELAY_BETWEEN_INSTRUCTIONS is the default pause between instruction cycles.
const DELAY_BETWEEN_INSTRUCTIONS = 200 * time.Millisecond

// Memory is the address space the CPU executes in.
type Memory interface {
	Read(addr int) (ram.Word, error)
	Write(addr int, word ram.Word) error
}

// Syscaller services the 'call' instruction.
type Syscaller interface {
	Syscall(name string, regs *Registers) error
}

// InterruptHandler services interrupts taken at the CPU's check point.
//
// The handler runs before the next fetch, and may replace the CPU's
// registers and address space; execution continues with whatever it
// leaves behind.
type InterruptHandler interface {
	HandleInterrupt(pending io.DeviceSet) error
}

// Cpu is the execution engine.
type Cpu struct {
	Verbose bool // Set to trace each instruction cycle.

	Registers Registers        // Live register file.
	Memory    Memory           // Address space, normally an MMU.
	Line      *io.Line         // Interrupt request line.
	Syscalls  Syscaller        // System call dispatcher.
	Handler   InterruptHandler // Interrupt handler.
	Delay     time.Duration    // Pause between instruction cycles.

	Ticks int // Instructions executed.
}

// NewCpu creates a CPU executing in mem, sampling line for interrupts.
func NewCpu(mem Memory, line *io.Line) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: mem,
		Line:   line,
		Delay:  DELAY_BETWEEN_INSTRUCTIONS,
	}
	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	return fmt.Sprintf("CPU: %v", cpu.Registers)
}

// Reset clears the registers and starts execution at pc.
func (cpu *Cpu) Reset(pc int) {
	cpu.Registers = Registers{Pc: pc}
	cpu.Ticks = 0
}

// CheckInterrupt is the CPU's interrupt check point. If the line is
// raised, every pending device is taken and passed to the handler.
func (cpu *Cpu) CheckInterrupt() (taken bool, err error) {
	if cpu.Line == nil || !cpu.Line.Pending() {
		return
	}

	pending := cpu.Line.Take()
	taken = true

	if cpu.Verbose {
		log.Printf("cpu: interrupt %#x", uint32(pending))
	}

	if cpu.Handler == nil {
		return
	}

	err = cpu.Handler.HandleInterrupt(pending)
	return
}

// Fetch and decode the instruction at pc.
func (cpu *Cpu) Fetch() (ins Instruction, word ram.Word, err error) {
	word, err = cpu.Memory.Read(cpu.Registers.Pc)
	if err != nil {
		return
	}

	ins, err = Decode(word)
	return
}

// Tick runs one instruction cycle: interrupt check, fetch, decode and
// execute.
//
// halted is set when the current process cannot continue: it executed
// 'end', or faulted. An unknown system call is reported as an error
// without halting.
func (cpu *Cpu) Tick() (halted bool, err error) {
	_, err = cpu.CheckInterrupt()
	if err != nil {
		return
	}

	pc := cpu.Registers.Pc

	ins, word, err := cpu.Fetch()
	if err != nil {
		halted = true
		err = &ErrFault{Pc: pc, Instruction: word.String(), Err: err}
		return
	}

	if cpu.Verbose {
		log.Printf("%03d: %v", pc, ins)
	}

	halted, err = cpu.Execute(ins)
	if err != nil {
		if !errors.Is(err, ErrUnknownSyscall) {
			halted = true
		}
		err = &ErrFault{Pc: pc, Instruction: ins.String(), Err: err}
	}

	cpu.Ticks++

	if cpu.Verbose {
		log.Printf("%v", cpu)
	}

	return
}

// Pause waits the delay between instruction cycles.
func (cpu *Cpu) Pause(ctx context.Context) (err error) {
	if cpu.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(cpu.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
	}

	return
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(ins Instruction) (halted bool, err error) {
	regs := &cpu.Registers
	next_pc := regs.Pc + 1

	switch ins.Op {
	case OP_MOV:
		var value ram.Word
		value, err = cpu.getValue(ins.Src)
		if err != nil {
			return
		}
		err = cpu.setValue(ins.Dst, value)
		if err != nil {
			return
		}
		if ins.Dst.Kind == OPERAND_REGISTER && ins.Dst.Register == REG_PC {
			next_pc = regs.Pc + 1
		}
	case OP_ADD, OP_SUB:
		var value, input ram.Word
		value, err = cpu.getValue(ins.Src)
		if err != nil {
			return
		}
		input, err = cpu.getValue(ins.Dst)
		if err != nil {
			return
		}
		var a, b int
		a, err = asInt(input)
		if err != nil {
			return
		}
		b, err = asInt(value)
		if err != nil {
			return
		}
		if ins.Op == OP_ADD {
			a += b
		} else {
			a -= b
		}
		err = cpu.setValue(ins.Dst, ram.Int(a))
		if err != nil {
			return
		}
		if ins.Dst.Kind == OPERAND_REGISTER && ins.Dst.Register == REG_PC {
			next_pc = regs.Pc + 1
		}
	case OP_JMP:
		next_pc, err = cpu.getInt(ins.Dst)
		if err != nil {
			return
		}
	case OP_JEZ, OP_JNZ, OP_JGZ, OP_JLZ:
		var test int
		test, err = regs.Int(ins.Src.Register)
		if err != nil {
			return
		}
		var taken bool
		switch ins.Op {
		case OP_JEZ:
			taken = test == 0
		case OP_JNZ:
			taken = test != 0
		case OP_JGZ:
			taken = test > 0
		case OP_JLZ:
			taken = test < 0
		}
		if taken {
			next_pc, err = cpu.getInt(ins.Dst)
			if err != nil {
				return
			}
		}
	case OP_CALL:
		if cpu.Syscalls == nil {
			err = ErrSyscall(ins.Syscall)
		} else {
			err = cpu.Syscalls.Syscall(ins.Syscall, regs)
		}
		regs.Pc = next_pc
		return
	case OP_END:
		halted = true
		return
	default:
		err = ErrInvalidInstruction
		return
	}

	regs.Pc = next_pc
	return
}

// asInt requires an integer word.
func asInt(word ram.Word) (value int, err error) {
	value, ok := word.Int()
	if !ok {
		err = &ErrOperand{Text: word.Quote(), Err: ErrNotInteger}
	}
	return
}

// address resolves the memory address of a memory operand.
func (cpu *Cpu) address(op Operand) (addr int, err error) {
	switch op.Kind {
	case OPERAND_DIRECT:
		addr, err = asInt(op.Value)
	case OPERAND_INDIRECT:
		addr, err = cpu.Registers.Int(op.Register)
	default:
		err = &ErrOperand{Text: op.String()}
	}
	return
}

// getValue resolves the value of an operand.
func (cpu *Cpu) getValue(op Operand) (value ram.Word, err error) {
	switch op.Kind {
	case OPERAND_REGISTER:
		value = cpu.Registers.Get(op.Register)
	case OPERAND_IMMEDIATE:
		value = op.Value
	case OPERAND_DIRECT, OPERAND_INDIRECT:
		var addr int
		addr, err = cpu.address(op)
		if err != nil {
			return
		}
		value, err = cpu.Memory.Read(addr)
	default:
		err = &ErrOperand{Text: op.String()}
	}
	return
}

// getInt resolves the integer value of an operand.
func (cpu *Cpu) getInt(op Operand) (value int, err error) {
	word, err := cpu.getValue(op)
	if err != nil {
		return
	}
	return asInt(word)
}

// setValue stores a value to a destination operand.
func (cpu *Cpu) setValue(op Operand, value ram.Word) (err error) {
	switch op.Kind {
	case OPERAND_REGISTER:
		err = cpu.Registers.Set(op.Register, value)
	case OPERAND_DIRECT, OPERAND_INDIRECT:
		var addr int
		addr, err = cpu.address(op)
		if err != nil {
			return
		}
		err = cpu.Memory.Write(addr, value)
	default:
		err = &ErrOperand{Text: op.String()}
	}
	return
}
