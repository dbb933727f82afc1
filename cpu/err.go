package cpu

import (
	"github.com/ezrec/calos/ram"
	"github.com/ezrec/calos/translate"
)

var f = translate.From

var (
	// Cpu faults
	ErrInvalidInstruction = translate.Error("invalid instruction")
	ErrIllegalOperand     = translate.Error("illegal operand")
	ErrUnknownSyscall     = translate.Error("unknown system call")

	// Operand detail
	ErrOperandCount     = translate.Error("wrong number of operands")
	ErrMemoryToMemory   = translate.Error("memory to memory transfer")
	ErrRegisterExpected = translate.Error("register expected")
	ErrNotInteger       = translate.Error("not an integer")

	// Assembler errors
	ErrEquateSyntax    = translate.Error(".equ syntax")
	ErrEquateDuplicate = translate.Error(".equ duplicated")
	ErrLabelDuplicate  = translate.Error("label duplicated")
	ErrLabelInvalid    = translate.Error("label invalid")
	ErrWordSyntax      = translate.Error(".word syntax")
	ErrQuoteUnbalanced = translate.Error("unbalanced quote")
)

// ErrInstruction reports a fetched word that is not an instruction.
type ErrInstruction struct {
	Word ram.Word
}

func (err *ErrInstruction) Error() string {
	return f("not an instruction: %v", err.Word.Quote())
}

func (err *ErrInstruction) Unwrap() error {
	return ErrInvalidInstruction
}

// ErrOperand reports operand text that is illegal where it appears.
type ErrOperand struct {
	Text string
	Err  error
}

func (err *ErrOperand) Error() string {
	if err.Err == nil {
		return f("illegal operand '%v'", err.Text)
	}
	return f("illegal operand '%v': %v", err.Text, err.Err)
}

func (err *ErrOperand) Unwrap() []error {
	if err.Err == nil {
		return []error{ErrIllegalOperand}
	}
	return []error{ErrIllegalOperand, err.Err}
}

// ErrSyscall is the error for a call to an unregistered system call.
type ErrSyscall string

func (err ErrSyscall) Error() string {
	return f("unknown system call '%v'", string(err))
}

func (err ErrSyscall) Unwrap() error {
	return ErrUnknownSyscall
}

// ErrFault locates a fault that stopped a process.
type ErrFault struct {
	Pc          int
	Instruction string
	Err         error
}

func (err *ErrFault) Error() string {
	return f("pc %d '%v': %v", err.Pc, err.Instruction, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

// ErrSyntax locates an assembler error.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
