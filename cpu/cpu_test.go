package cpu

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/calos/io"
	"github.com/ezrec/calos/mmu"
	"github.com/ezrec/calos/ram"
)

type testSyscalls struct {
	calls []string
}

func (ts *testSyscalls) Syscall(name string, regs *Registers) (err error) {
	switch name {
	case "getpid":
		ts.calls = append(ts.calls, name)
		err = regs.Set(REG_0, ram.Int(42))
	default:
		err = ErrSyscall(name)
	}
	return
}

type testHandler struct {
	taken []io.DeviceSet
}

func (th *testHandler) HandleInterrupt(pending io.DeviceSet) (err error) {
	th.taken = append(th.taken, pending)
	return
}

// newTestCpu assembles source at address 0 of a fresh memory.
func newTestCpu(t *testing.T, source string) (cpu *Cpu, mem *ram.Memory) {
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	mem = ram.New(ram.RAM_SIZE)
	_, err = io.Place(mem, 0, prog.Words())
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	cpu = NewCpu(mmu.New(mem), &io.Line{})
	cpu.Delay = 0
	cpu.Syscalls = &testSyscalls{}
	return
}

// runCpu ticks until the program halts, or limit ticks pass.
func runCpu(cpu *Cpu, limit int) (halted bool, err error) {
	for range limit {
		halted, err = cpu.Tick()
		if halted {
			return
		}
	}
	return
}

func TestCpu_Addressing(t *testing.T) {
	assert := assert.New(t)

	cpu, mem := newTestCpu(t, `
	mov 5 reg0
	add *reg0 reg1
	end
`)
	assert.NoError(mem.Write(5, ram.Int(7)))

	halted, err := runCpu(cpu, 10)
	assert.True(halted)
	assert.NoError(err)
	assert.Equal(ram.Int(5), cpu.Registers.Get(REG_0))
	assert.Equal(ram.Int(7), cpu.Registers.Get(REG_1))
	assert.Equal(2, cpu.Registers.Pc)
	assert.Equal(3, cpu.Ticks)
}

func TestCpu_Branch(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, `
	mov 0 reg0
	jnz reg0 L
	mov 1 reg2
	jmp END
L:	mov 2 reg2
END:	end
`)
	halted, err := runCpu(cpu, 10)
	assert.True(halted)
	assert.NoError(err)
	assert.Equal(ram.Int(1), cpu.Registers.Get(REG_2))
	assert.Equal(5, cpu.Registers.Pc)

	cpu, _ = newTestCpu(t, `
	jnz reg0 L
	mov 1 reg2
	jmp END
L:	mov 2 reg2
END:	end
`)
	assert.NoError(cpu.Registers.Set(REG_0, ram.Int(-3)))
	halted, err = runCpu(cpu, 10)
	assert.True(halted)
	assert.NoError(err)
	assert.Equal(ram.Int(2), cpu.Registers.Get(REG_2))
}

func TestCpu_Arithmetic(t *testing.T) {
	assert := assert.New(t)

	cpu, mem := newTestCpu(t, `
	mov 10 reg0
	sub 3 reg0
	mov reg0 20
	add 0x10 20
	mov 21 reg1
	mov 'ab' *reg1
	jgz reg0 ok
	end
ok:	mov *20 reg2
	sub 100 reg2
	jlz reg2 done
	mov 99 reg2
done:	end
`)
	halted, err := runCpu(cpu, 20)
	assert.True(halted)
	assert.NoError(err)

	assert.Equal(ram.Int(7), cpu.Registers.Get(REG_0))
	assert.Equal(ram.Int(23-100), cpu.Registers.Get(REG_2))

	word, _ := mem.Read(20)
	assert.Equal(ram.Int(23), word)
	word, _ = mem.Read(21)
	assert.Equal(ram.Text("ab"), word)
}

func TestCpu_MovPc(t *testing.T) {
	assert := assert.New(t)

	// Writing pc lands on the instruction after the target.
	cpu, _ := newTestCpu(t, `
	mov 2 pc
	mov 1 reg0
	mov 2 reg1
	mov 3 reg2
	end
`)
	halted, err := runCpu(cpu, 10)
	assert.True(halted)
	assert.NoError(err)
	assert.Equal(ram.Int(0), cpu.Registers.Get(REG_0))
	assert.Equal(ram.Int(0), cpu.Registers.Get(REG_1))
	assert.Equal(ram.Int(3), cpu.Registers.Get(REG_2))
}

func TestCpu_Faults(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		words  []ram.Word
		err    error
		halted bool
		pc     int
		fault  int
	}){
		{"data word", []ram.Word{ram.Int(17)}, ErrInvalidInstruction, true, 0, 0},
		{"unknown opcode", []ram.Word{ram.Text("nop")}, ErrInvalidInstruction, true, 0, 0},
		{"memory to memory", []ram.Word{ram.Text("mov *5 6")}, ErrIllegalOperand, true, 0, 0},
		{"text arithmetic", []ram.Word{ram.Text("mov 'a' reg0"), ram.Text("add 1 reg0")}, ErrIllegalOperand, true, 1, 1},
		{"text jump", []ram.Word{ram.Text("jmp 'a'")}, ErrIllegalOperand, true, 0, 0},
		{"unknown syscall", []ram.Word{ram.Text("call frobnicate")}, ErrUnknownSyscall, false, 1, 0},
		{"bad address", []ram.Word{ram.Text("mov *-1 reg0")}, mmu.ErrLimitFault, true, 0, 0},
	}

	for _, entry := range table {
		mem := ram.New(ram.RAM_SIZE)
		_, err := io.Place(mem, 0, entry.words)
		assert.NoError(err)

		cpu := NewCpu(mmu.New(mem), nil)
		cpu.Syscalls = &testSyscalls{}

		var halted bool
		for range entry.words {
			halted, err = cpu.Tick()
			if err != nil {
				break
			}
		}
		assert.True(errors.Is(err, entry.err), "%v: %v", entry.name, err)
		assert.Equal(entry.halted, halted, entry.name)
		assert.Equal(entry.pc, cpu.Registers.Pc, entry.name)

		var fault *ErrFault
		if assert.True(errors.As(err, &fault), entry.name) {
			assert.Equal(entry.fault, fault.Pc, entry.name)
		}
	}
}

func TestCpu_LimitFault(t *testing.T) {
	assert := assert.New(t)

	mem := ram.New(ram.RAM_SIZE)
	_, err := io.Place(mem, 100, []ram.Word{
		ram.Text("mov 4 reg0"),
		ram.Text("mov *reg0 reg1"),
		ram.Text("end"),
	})
	assert.NoError(err)

	m := mmu.New(mem)
	m.SetRelocation(100, 4)

	cpu := NewCpu(m, nil)
	halted, err := runCpu(cpu, 10)
	assert.True(halted)
	assert.True(errors.Is(err, mmu.ErrLimitFault))
	assert.Equal(1, cpu.Registers.Pc)

	// Running off the end of the partition faults too.
	_, err = io.Place(mem, 100, []ram.Word{ram.Text("mov 1 reg0")})
	assert.NoError(err)
	m.SetRelocation(100, 1)
	cpu.Reset(0)
	halted, err = runCpu(cpu, 10)
	assert.True(halted)
	assert.True(errors.Is(err, mmu.ErrLimitFault))
}

func TestCpu_Syscall(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, `
	call getpid
	mov reg0 reg1
	end
`)
	halted, err := runCpu(cpu, 10)
	assert.True(halted)
	assert.NoError(err)
	assert.Equal(ram.Int(42), cpu.Registers.Get(REG_1))
	assert.Equal([]string{"getpid"}, cpu.Syscalls.(*testSyscalls).calls)
}

func TestCpu_Interrupt(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, `
loop:	jmp loop
`)
	handler := &testHandler{}
	cpu.Handler = handler

	_, err := cpu.Tick()
	assert.NoError(err)
	assert.Empty(handler.taken)

	cpu.Line.Raise(io.DEVICE_ID_KEYBOARD)
	cpu.Line.Raise(io.DEVICE_ID_TIMER)
	_, err = cpu.Tick()
	assert.NoError(err)
	assert.Equal([]io.DeviceSet{io.DeviceSet(0).With(io.DEVICE_ID_TIMER).With(io.DEVICE_ID_KEYBOARD)}, handler.taken)
	assert.False(cpu.Line.Pending())
	assert.Equal(2, cpu.Ticks)
}

func TestCpu_Pause(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(nil, nil)
	cpu.Delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(context.Canceled, cpu.Pause(ctx))

	cpu.Delay = time.Millisecond
	assert.NoError(cpu.Pause(context.Background()))
}

func TestRegisters(t *testing.T) {
	assert := assert.New(t)

	var regs Registers
	assert.NoError(regs.Set(REG_1, ram.Text("hi")))
	assert.NoError(regs.Set(REG_PC, ram.Int(12)))
	assert.Equal(12, regs.Pc)
	assert.Equal("pc 12, reg0 0, reg1 'hi', reg2 0", regs.String())

	err := regs.Set(REG_PC, ram.Text("x"))
	assert.True(errors.Is(err, ErrIllegalOperand))
	assert.True(errors.Is(err, ErrNotInteger))

	_, err = regs.Int(REG_1)
	assert.True(errors.Is(err, ErrNotInteger))

	reg, ok := ParseRegister("reg2")
	assert.True(ok)
	assert.Equal(REG_2, reg)
	_, ok = ParseRegister("reg3")
	assert.False(ok)

	reg, ok = ParseRegister("pc")
	assert.True(ok)
	assert.Equal(REG_PC, reg)
	assert.Equal("pc", REG_PC.String())
	assert.Equal("Register(9)", Register(9).String())
}
