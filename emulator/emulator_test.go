package emulator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/calos/config"
	"github.com/ezrec/calos/cpu"
	"github.com/ezrec/calos/kernel"
	"github.com/ezrec/calos/mmu"
	"github.com/ezrec/calos/ram"
)

func newTestEmulator(t *testing.T) (emu *Emulator, output *bytes.Buffer) {
	cfg := config.Default()
	cfg.InstructionDelay = 0
	cfg.TimerInterval = time.Millisecond
	cfg.KeyboardInterval = time.Millisecond
	cfg.ScreenInterval = time.Millisecond

	emu, err := NewEmulator(cfg)
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	output = &bytes.Buffer{}
	emu.Output = output
	return
}

func doLoadSource(t *testing.T, emu *Emulator, addr int, program []string) {
	prog, err := emu.Assemble(strings.NewReader(strings.Join(program, "\n")), addr)
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	_, err = emu.LoadWords(addr, prog.Words())
	assert.NoError(t, err)
}

func doExec(t *testing.T, emu *Emulator, addr int) (pcb *kernel.PCB, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return emu.Exec(ctx, addr)
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(config.Default())
	assert.NoError(err)
	assert.False(emu.Verbose)
	assert.Equal(ram.RAM_SIZE, emu.Memory.Size())
	assert.Equal(cpu.DELAY_BETWEEN_INSTRUCTIONS, emu.Cpu.Delay)

	word, _ := emu.Memory.Read(ram.IDLE_BASE)
	assert.Equal(ram.Text(kernel.IDLE_INSTRUCTION), word)

	emu.SetVerbose(true)
	assert.True(emu.Cpu.Verbose)
	assert.True(emu.Kernel.Verbose)
	emu.SetVerbose(false)

	cfg := config.Default()
	cfg.Quantum = 0
	_, err = NewEmulator(cfg)
	assert.Equal(config.ErrQuantum, err)
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t)

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}

	assert.Equal("991", defines["IDLE_BASE"])
	assert.Equal("991", defines["PROGRAM_END"])
	assert.Equal("999", defines["KBD_DATA"])
	assert.Equal("1022", defines["SCREEN_DATA"])
}

func TestEmulator_Exec(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t)
	assert.NoError(emu.Memory.Write(5, ram.Int(7)))

	doLoadSource(t, emu, 20, []string{
		"mov 5 reg0",
		"add *reg0 reg1",
		"mov reg1 6",
		"end",
	})

	pcb, err := doExec(t, emu, 20)
	assert.NoError(err)
	assert.Equal(kernel.STATE_DONE, pcb.State)
	assert.Equal(ram.Int(7), pcb.Registers.Get(cpu.REG_1))

	word, _ := emu.Memory.Read(6)
	assert.Equal(ram.Int(7), word)
}

func TestEmulator_Screen(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t)

	doLoadSource(t, emu, 0, []string{
		"        mov 'hi' SCREEN_DATA",
		"        mov $(CONTROL_READY | CONTROL_WRITE) SCREEN_CONTROL",
		"wait:   mov *SCREEN_CONTROL reg0",
		"        jnz reg0 wait",
		"        end",
	})

	_, err := doExec(t, emu, 0)
	assert.NoError(err)
	assert.Equal("hi", output.String())
}

func TestEmulator_Keyboard(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t)

	keys := make(chan rune, 8)
	for _, key := range "abcde" {
		keys <- key
	}
	close(keys)
	emu.Keys = keys

	doLoadSource(t, emu, 0, []string{
		"        mov $(CONTROL_READY | CONTROL_READ) KBD_CONTROL",
		"kwait:  mov *KBD_CONTROL reg0",
		"        jnz reg0 kwait",
		"        mov *KBD_DATA reg1",
		"        mov reg1 SCREEN_DATA",
		"        mov $(CONTROL_READY | CONTROL_WRITE) SCREEN_CONTROL",
		"swait:  mov *SCREEN_CONTROL reg0",
		"        jnz reg0 swait",
		"        end",
	})

	pcb, err := doExec(t, emu, 0)
	assert.NoError(err)
	assert.Equal(ram.Text("bcde"), pcb.Registers.Get(cpu.REG_1))
	assert.Equal("bcde", output.String())
}

func TestEmulator_Spawn(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t)

	program := []string{
		"        mov 20 reg2",
		"loop:   sub 1 reg2",
		"        jgz reg2 loop",
		"        call getpid",
		"        call print",
		"        end",
	}
	for _, low := range []int{100, 200, 300} {
		doLoadSource(t, emu, 0, program)
		words := emu.Program.Words()
		_, err := emu.LoadWords(low, words)
		assert.NoError(err)
		_, err = emu.Spawn("count", low, low, low+len(words))
		assert.NoError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NoError(emu.Run(ctx))

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	assert.ElementsMatch([]string{"1", "2", "3"}, lines)
	assert.Equal(0, emu.Kernel.Active())
}

func TestEmulator_Fault(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t)

	doLoadSource(t, emu, 0, []string{
		"mov 1 reg0",
		"mov *2000 reg1",
		"end",
	})

	pcb, err := doExec(t, emu, 0)
	assert.True(errors.Is(err, mmu.ErrLimitFault))

	var procErr *ErrProcess
	if assert.True(errors.As(err, &procErr)) {
		assert.Equal(pcb, procErr.PCB)
	}
	assert.Equal(kernel.STATE_DONE, pcb.State)

	// A fault ends only its own process; the machine runs on.
	doLoadSource(t, emu, 0, []string{"end"})
	_, err = doExec(t, emu, 0)
	assert.NoError(err)
}

func TestEmulator_Cancel(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t)

	doLoadSource(t, emu, 0, []string{"loop: jmp loop"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	pcb, err := emu.Exec(ctx, 0)
	assert.Equal(context.DeadlineExceeded, err)
	assert.Equal(kernel.STATE_DONE, pcb.State)
	assert.Equal(context.DeadlineExceeded, pcb.Fault)
	assert.Equal(0, emu.Kernel.Active())
}

func TestEmulator_Tape(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t)
	emu.Tape.Fs = afero.NewMemMapFs()

	assert.NoError(afero.WriteFile(emu.Tape.Fs, "prog.tape", []byte(strings.Join([]string{
		"# sums two words",
		"mov *10 reg0",
		"add *11 reg0",
		"mov reg0 12",
		"end",
		"",
	}, "\n")), 0644))

	next, err := emu.Load("prog.tape", 0)
	assert.NoError(err)
	assert.Equal(4, next)

	_, err = emu.LoadWords(10, []ram.Word{ram.Int(40), ram.Int(2)})
	assert.NoError(err)

	_, err = doExec(t, emu, 0)
	assert.NoError(err)

	word, _ := emu.Memory.Read(12)
	assert.Equal(ram.Int(42), word)

	assert.NoError(emu.Save("out.tape", 10, 12))
	data, err := afero.ReadFile(emu.Tape.Fs, "out.tape")
	assert.NoError(err)
	assert.Equal("40\n2\n42\n", string(data))

	var dump strings.Builder
	assert.NoError(emu.Dump(&dump, 0, 12))
	assert.Equal(strings.Join([]string{
		"000: 'mov *10 reg0'",
		"001: 'add *11 reg0'",
		"002: 'mov reg0 12'",
		"003: 'end'",
		"010: 40",
		"011: 2",
		"012: 42",
		"",
	}, "\n"), dump.String())

	_, err = emu.Load("missing.tape", 0)
	assert.Error(err)
}
