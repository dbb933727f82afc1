package cpu

import (
	"fmt"

	"github.com/ezrec/calos/ram"
)

// Register names one of the CPU registers.
type Register int

//go:generate go tool stringer -linecomment -type=Register
const (
	REG_0  = Register(0) // reg0
	REG_1  = Register(1) // reg1
	REG_2  = Register(2) // reg2
	REG_PC = Register(3) // pc
)

// ParseRegister looks up a register by name.
func ParseRegister(name string) (reg Register, ok bool) {
	for reg = REG_0; reg <= REG_PC; reg++ {
		if reg.String() == name {
			ok = true
			return
		}
	}
	reg = 0
	return
}

// Registers is the register file.
//
// The general registers hold any word, so that text read from a device
// can be moved through them. The program counter is always an integer.
type Registers struct {
	R  [3]ram.Word
	Pc int
}

// Get the value of a register.
func (regs *Registers) Get(reg Register) ram.Word {
	if reg == REG_PC {
		return ram.Int(regs.Pc)
	}
	return regs.R[reg]
}

// Set the value of a register.
func (regs *Registers) Set(reg Register, word ram.Word) (err error) {
	if reg == REG_PC {
		pc, ok := word.Int()
		if !ok {
			err = &ErrOperand{Text: word.Quote(), Err: ErrNotInteger}
			return
		}
		regs.Pc = pc
		return
	}

	regs.R[reg] = word
	return
}

// Int gets the integer value of a register.
func (regs *Registers) Int(reg Register) (value int, err error) {
	word := regs.Get(reg)
	value, ok := word.Int()
	if !ok {
		err = &ErrOperand{Text: reg.String(), Err: ErrNotInteger}
	}
	return
}

func (regs Registers) String() string {
	return fmt.Sprintf("pc %d, reg0 %v, reg1 %v, reg2 %v",
		regs.Pc, regs.R[0].Quote(), regs.R[1].Quote(), regs.R[2].Quote())
}
