package cpu

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ezrec/calos/ram"
)

// OperandKind is the addressing form of an operand.
type OperandKind int

const (
	OPERAND_REGISTER  = OperandKind(0) // reg
	OPERAND_IMMEDIATE = OperandKind(1) // 5, 0x10, 'text'
	OPERAND_DIRECT    = OperandKind(2) // *5 as a source, 5 as a destination
	OPERAND_INDIRECT  = OperandKind(3) // *reg
)

// Operand is a decoded instruction operand.
type Operand struct {
	Kind     OperandKind
	Register Register // OPERAND_REGISTER and OPERAND_INDIRECT
	Value    ram.Word // OPERAND_IMMEDIATE value, or OPERAND_DIRECT address
}

// IsMemory is true for operands that address memory.
func (op Operand) IsMemory() bool {
	return op.Kind == OPERAND_DIRECT || op.Kind == OPERAND_INDIRECT
}

// String renders the operand as a source operand.
func (op Operand) String() string {
	switch op.Kind {
	case OPERAND_REGISTER:
		return op.Register.String()
	case OPERAND_IMMEDIATE:
		return op.Value.Quote()
	case OPERAND_DIRECT:
		return "*" + op.Value.String()
	case OPERAND_INDIRECT:
		return "*" + op.Register.String()
	}
	return "?"
}

// destination renders the operand as a destination operand.
func (op Operand) destination() string {
	if op.Kind == OPERAND_DIRECT {
		return op.Value.String()
	}
	return op.String()
}

// ParseNumber parses a decimal or 0x hexadecimal integer, with an
// optional sign.
func ParseNumber(text string) (value int, ok bool) {
	digits := text
	negative := false
	if strings.HasPrefix(digits, "-") {
		negative = true
		digits = digits[1:]
	} else if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}

	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base = 16
		digits = digits[2:]
	}

	if len(digits) == 0 || digits[0] == '-' || digits[0] == '+' {
		return
	}

	v64, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return
	}

	value = int(v64)
	if negative {
		value = -value
	}
	ok = true
	return
}

// parseText parses a quoted text literal.
func parseText(text string) (word ram.Word, ok bool) {
	if len(text) < 2 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return
	}
	body := text[1 : len(text)-1]
	if strings.ContainsRune(body, '\'') || utf8.RuneCountInString(body) > ram.MAX_TEXT_CHARS {
		return
	}
	return ram.Text(body), true
}

// ParseSource parses a source operand: reg, immediate, 'text', *imm or *reg.
func ParseSource(text string) (op Operand, err error) {
	if reg, ok := ParseRegister(text); ok {
		op = Operand{Kind: OPERAND_REGISTER, Register: reg}
		return
	}

	if value, ok := ParseNumber(text); ok {
		op = Operand{Kind: OPERAND_IMMEDIATE, Value: ram.Int(value)}
		return
	}

	if word, ok := parseText(text); ok {
		op = Operand{Kind: OPERAND_IMMEDIATE, Value: word}
		return
	}

	if target, found := strings.CutPrefix(text, "*"); found {
		if reg, ok := ParseRegister(target); ok {
			op = Operand{Kind: OPERAND_INDIRECT, Register: reg}
			return
		}
		if addr, ok := ParseNumber(target); ok {
			op = Operand{Kind: OPERAND_DIRECT, Value: ram.Int(addr)}
			return
		}
	}

	err = &ErrOperand{Text: text}
	return
}

// ParseDestination parses a destination operand: reg, literal address or *reg.
func ParseDestination(text string) (op Operand, err error) {
	if reg, ok := ParseRegister(text); ok {
		op = Operand{Kind: OPERAND_REGISTER, Register: reg}
		return
	}

	if addr, ok := ParseNumber(text); ok {
		op = Operand{Kind: OPERAND_DIRECT, Value: ram.Int(addr)}
		return
	}

	if target, found := strings.CutPrefix(text, "*"); found {
		if reg, ok := ParseRegister(target); ok {
			op = Operand{Kind: OPERAND_INDIRECT, Register: reg}
			return
		}
	}

	err = &ErrOperand{Text: text}
	return
}

// stripComment removes a trailing '#' comment outside of quotes.
func stripComment(line string) string {
	quoted := false
	for n, r := range line {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == '#' && !quoted:
			return line[:n]
		}
	}
	return line
}

// tokenize splits an instruction into words. Commas and white space
// separate words; quoted text stays whole.
func tokenize(line string) (words []string, err error) {
	line = stripComment(line)

	var word strings.Builder
	quoted := false
	flush := func() {
		if word.Len() > 0 {
			words = append(words, word.String())
			word.Reset()
		}
	}

	for _, r := range line {
		switch {
		case quoted:
			word.WriteRune(r)
			if r == '\'' {
				quoted = false
			}
		case r == '\'':
			quoted = true
			word.WriteRune(r)
		case r == ',' || unicode.IsSpace(r):
			flush()
		default:
			word.WriteRune(r)
		}
	}

	if quoted {
		err = ErrQuoteUnbalanced
		return
	}

	flush()
	return
}
