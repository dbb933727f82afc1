package cpu

import (
	"fmt"
	"strings"

	"github.com/ezrec/calos/ram"
)

// Opcode is an instruction mnemonic.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_MOV  = Opcode(0) // mov
	OP_ADD  = Opcode(1) // add
	OP_SUB  = Opcode(2) // sub
	OP_JMP  = Opcode(3) // jmp
	OP_JEZ  = Opcode(4) // jez
	OP_JNZ  = Opcode(5) // jnz
	OP_JGZ  = Opcode(6) // jgz
	OP_JLZ  = Opcode(7) // jlz
	OP_CALL = Opcode(8) // call
	OP_END  = Opcode(9) // end
)

// opcodeArgs is the number of operands each opcode takes.
var opcodeArgs = [...]int{
	OP_MOV:  2,
	OP_ADD:  2,
	OP_SUB:  2,
	OP_JMP:  1,
	OP_JEZ:  2,
	OP_JNZ:  2,
	OP_JGZ:  2,
	OP_JLZ:  2,
	OP_CALL: 1,
	OP_END:  0,
}

// ParseOpcode looks up a mnemonic.
func ParseOpcode(name string) (op Opcode, ok bool) {
	name = strings.ToLower(name)
	for op = OP_MOV; op <= OP_END; op++ {
		if op.String() == name {
			ok = true
			return
		}
	}
	op = 0
	return
}

// IsJump is true for instructions that set pc directly.
func (op Opcode) IsJump() bool {
	return op >= OP_JMP && op <= OP_JLZ
}

// Instruction is a decoded instruction.
type Instruction struct {
	Op      Opcode
	Src     Operand // Source, or tested register for conditional jumps.
	Dst     Operand // Destination, or jump target.
	Syscall string  // System call name for OP_CALL.
}

func (ins Instruction) String() string {
	switch ins.Op {
	case OP_MOV, OP_ADD, OP_SUB:
		return fmt.Sprintf("%v %v %v", ins.Op, ins.Src, ins.Dst.destination())
	case OP_JMP:
		return fmt.Sprintf("%v %v", ins.Op, ins.Dst)
	case OP_JEZ, OP_JNZ, OP_JGZ, OP_JLZ:
		return fmt.Sprintf("%v %v %v", ins.Op, ins.Src, ins.Dst)
	case OP_CALL:
		return fmt.Sprintf("%v %v", ins.Op, ins.Syscall)
	}
	return ins.Op.String()
}

// Decode an instruction from a memory word.
func Decode(word ram.Word) (ins Instruction, err error) {
	text, ok := word.Text()
	if !ok {
		err = &ErrInstruction{Word: word}
		return
	}

	words, err := tokenize(text)
	if err != nil {
		err = &ErrOperand{Text: text, Err: err}
		return
	}

	// Labels are only meaningful to the assembler.
	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		words = words[1:]
	}

	if len(words) == 0 {
		err = &ErrInstruction{Word: word}
		return
	}

	op, ok := ParseOpcode(words[0])
	if !ok {
		err = &ErrInstruction{Word: word}
		return
	}

	args := words[1:]
	if len(args) != opcodeArgs[op] {
		err = &ErrOperand{Text: strings.Join(args, " "), Err: ErrOperandCount}
		return
	}

	ins.Op = op

	switch op {
	case OP_MOV, OP_ADD, OP_SUB:
		ins.Src, err = ParseSource(args[0])
		if err != nil {
			return
		}
		ins.Dst, err = ParseDestination(args[1])
		if err != nil {
			return
		}
		if ins.Src.IsMemory() && ins.Dst.IsMemory() {
			err = &ErrOperand{Text: strings.Join(args, " "), Err: ErrMemoryToMemory}
			return
		}
	case OP_JMP:
		ins.Dst, err = ParseSource(args[0])
	case OP_JEZ, OP_JNZ, OP_JGZ, OP_JLZ:
		ins.Src, err = ParseSource(args[0])
		if err != nil {
			return
		}
		if ins.Src.Kind != OPERAND_REGISTER {
			err = &ErrOperand{Text: args[0], Err: ErrRegisterExpected}
			return
		}
		ins.Dst, err = ParseSource(args[1])
	case OP_CALL:
		ins.Syscall = args[0]
	}

	return
}
