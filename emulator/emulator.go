// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	stdio "io"
	"iter"
	"log"
	"os"

	"github.com/ezrec/calos/config"
	"github.com/ezrec/calos/cpu"
	"github.com/ezrec/calos/internal"
	"github.com/ezrec/calos/io"
	"github.com/ezrec/calos/kernel"
	"github.com/ezrec/calos/mmu"
	"github.com/ezrec/calos/ram"
)

const (
	PROGRAM_BASE = 0             // First word of the program area.
	PROGRAM_END  = ram.IDLE_BASE // End of the program area.
)

var _emulator_defines = map[string]string{
	"PROGRAM_BASE": fmt.Sprintf("%v", PROGRAM_BASE),
	"PROGRAM_END":  fmt.Sprintf("%v", PROGRAM_END),
	"IDLE_BASE":    fmt.Sprintf("%v", ram.IDLE_BASE),
}

// Emulator state. Memory + MMU + CPU + devices + kernel.
type Emulator struct {
	Verbose  bool          // If set, enables verbose logging.
	Config   config.Config // Machine configuration.
	*cpu.Cpu               // Reference to the CPU simulation.

	Memory  *ram.Memory
	MMU     *mmu.MMU
	Line    *io.Line
	Timer   *io.Timer
	Kernel  *kernel.Kernel
	Tape    *io.Tape     // Tape drive for Load and Save.
	Program *cpu.Program // Listing of the last assembled program.

	Keys   <-chan rune  // Keyboard input, may be nil.
	Output stdio.Writer // Screen and console output.
}

// NewEmulator creates a new emulator.
func NewEmulator(cfg config.Config) (emu *Emulator, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	mem := ram.New(cfg.MemorySize)
	line := &io.Line{}
	m := mmu.New(mem)

	emu = &Emulator{
		Config:  cfg,
		Cpu:     cpu.NewCpu(m, line),
		Memory:  mem,
		MMU:     m,
		Line:    line,
		Timer:   io.NewTimer(line, cfg.TimerInterval),
		Tape:    io.NewTape(),
		Program: &cpu.Program{},
		Output:  os.Stdout,
	}

	emu.Cpu.Delay = cfg.InstructionDelay

	emu.Kernel, err = kernel.NewKernel(emu.Cpu, emu.MMU, emu.Timer, cfg.Quantum)
	if err != nil {
		emu = nil
		return
	}

	emu.SetVerbose(cfg.Verbose)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(internal.SortedKeys(_emulator_defines),
		ram.Defines(),
	)
}

// SetVerbose turns the per-instruction trace on or off.
func (emu *Emulator) SetVerbose(verbose bool) {
	emu.Verbose = verbose
	emu.Cpu.Verbose = verbose
	emu.Timer.Verbose = verbose
	emu.Kernel.SetVerbose(verbose)
}

// Assemble a program for the given origin, with the machine's defines.
func (emu *Emulator) Assemble(in stdio.Reader, origin int) (prog *cpu.Program, err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose, Origin: origin}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err = asm.Parse(in)
	if err != nil {
		return
	}

	emu.Program = prog
	return
}

// Load a tape into memory at addr. Returns the address after the last
// word loaded.
func (emu *Emulator) Load(name string, addr int) (next int, err error) {
	next, err = emu.Tape.Load(name, emu.Memory, addr)
	if err == nil && emu.Verbose {
		log.Printf("emulator: %v loaded at [%d, %d)", name, addr, next)
	}
	return
}

// LoadWords places words in memory at addr.
func (emu *Emulator) LoadWords(addr int, words []ram.Word) (next int, err error) {
	return io.Place(emu.Memory, addr, words)
}

// Save memory [start, end] to a tape.
func (emu *Emulator) Save(name string, start, end int) (err error) {
	return emu.Tape.Save(name, emu.Memory, start, end)
}

// Dump writes memory [start, end], one word per line.
func (emu *Emulator) Dump(w stdio.Writer, start, end int) (err error) {
	for addr, word := range emu.Memory.Words(start, end) {
		if word == (ram.Word{}) {
			continue
		}
		_, err = fmt.Fprintf(w, "%03d: %v\n", addr, word.Quote())
		if err != nil {
			return
		}
	}
	return
}

// Spawn a process in the partition [low, high), entering at addr.
func (emu *Emulator) Spawn(name string, addr, low, high int) (pcb *kernel.PCB, err error) {
	return emu.Kernel.Spawn(name, addr, low, high, emu.Config.Quantum)
}

// Exec runs the program at addr as a single process over the whole
// program area, until it ends or ctx is done. A process fault is
// returned as an *ErrProcess.
func (emu *Emulator) Exec(ctx context.Context, addr int) (pcb *kernel.PCB, err error) {
	pcb, err = emu.Spawn("main", addr, PROGRAM_BASE, PROGRAM_END)
	if err != nil {
		return
	}

	err = emu.Run(ctx)
	if err == nil && pcb.Fault != nil {
		err = &ErrProcess{PCB: pcb}
	}
	return
}

// Run every spawned process to its end. The device tasks are created
// fresh for each run, and stopped and joined before Run returns. If ctx
// is done first, the remaining processes are aborted.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	emu.Timer.SetCountdown(io.TIMER_FIRED)
	emu.Line.Take()
	emu.Kernel.Console = emu.Output

	keyboard := &io.Keyboard{
		Verbose:  emu.Verbose,
		Memory:   emu.Memory,
		Line:     emu.Line,
		Keys:     emu.Keys,
		Interval: emu.Config.KeyboardInterval,
	}
	screen := &io.Screen{
		Verbose:  emu.Verbose,
		Memory:   emu.Memory,
		Output:   emu.Output,
		Interval: emu.Config.ScreenInterval,
	}

	devs := io.StartDevices(ctx, emu.Timer, keyboard, screen)

	err = emu.Kernel.Run(ctx)
	if err != nil {
		emu.Kernel.Abort(err)
	}

	devs.Stop()
	devErr := devs.Wait()
	if err == nil {
		err = devErr
	}

	return
}
