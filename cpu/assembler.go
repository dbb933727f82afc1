// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/calos/ram"
)

// Assembler is a two pass assembler for the CalOS instruction set.
//
// Source lines are instructions, data, or directives:
//
//	label: mov 5 reg0      ; labels end in ':'
//	.equ NAME VALUE        ; textual equate
//	.word 42               ; data word (integer or 'text')
//	17                     ; bare integers are data words too
//	jmp $(LOOP + 1)        ; compile-time expression
//
// '#' starts a comment. Every instruction or data line occupies one word.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.
	Origin  int  // Address of the first word.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of jump labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// source is a line waiting for the second pass.
type source struct {
	lineno int
	text   string
}

var parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)

// isIdentifier is true for label and equate names.
func isIdentifier(word string) bool {
	if len(word) == 0 {
		return false
	}
	for n, r := range word {
		if r == '_' || unicode.IsLetter(r) || (n > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v, ok := ParseNumber(str)
		if !ok {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// firstPass strips comments, records labels and equates, and returns
// the remaining word-producing text of the line, if any.
func (asm *Assembler) firstPass(line string, addr int) (text string, err error) {
	text = strings.TrimSpace(stripComment(line))

	for {
		head, rest := text, ""
		if n := strings.IndexFunc(text, unicode.IsSpace); n >= 0 {
			head, rest = text[:n], text[n:]
		}
		label, isLabel := strings.CutSuffix(head, ":")
		if !isLabel {
			break
		}
		if !isIdentifier(label) {
			err = ErrLabelInvalid
			return
		}
		if _, ok := asm.Label[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = addr
		text = strings.TrimSpace(rest)
	}

	if len(text) == 0 {
		return
	}

	words := strings.Fields(text)
	if words[0] == ".equ" {
		if len(words) != 3 || !isIdentifier(words[1]) {
			err = ErrEquateSyntax
			return
		}
		if _, ok := asm.Equate[words[1]]; ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		text = ""
	}

	return
}

// substitute replaces an operand word with its equate or label value.
func (asm *Assembler) substitute(word string) (out string, err error) {
	prefix := ""
	if target, found := strings.CutPrefix(word, "*"); found {
		prefix = "*"
		word = target
	}

	for range len(asm.Equate) + 1 {
		equ, ok := asm.Equate[word]
		if !ok {
			break
		}
		word = equ
	}

	if addr, ok := asm.Label[word]; ok {
		word = strconv.Itoa(addr)
	}

	if _, ok := ParseRegister(word); !ok && isIdentifier(word) {
		err = ErrLabelMissing(word)
		return
	}

	out = prefix + word
	return
}

// secondPass assembles a single line to a word.
func (asm *Assembler) secondPass(text string) (word ram.Word, clean string, err error) {
	text = parenRegexp.ReplaceAllStringFunc(text, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return strconv.Itoa(value)
	})
	if err != nil {
		return
	}

	words, err := tokenize(text)
	if err != nil {
		return
	}

	if len(words) == 0 {
		err = ErrInvalidInstruction
		return
	}

	if words[0] == ".word" {
		if len(words) != 2 {
			err = ErrWordSyntax
			return
		}
		var value string
		value, err = asm.substitute(words[1])
		if err != nil {
			return
		}
		var op Operand
		op, err = ParseSource(value)
		if err != nil || op.Kind != OPERAND_IMMEDIATE {
			err = ErrWordSyntax
			return
		}
		word = op.Value
		clean = ".word " + op.Value.Quote()
		return
	}

	if len(words) == 1 {
		value, ok := ParseNumber(words[0])
		if ok {
			word = ram.Int(value)
			clean = words[0]
			return
		}
	}

	for n := 1; n < len(words); n++ {
		if words[0] == "call" {
			break
		}
		words[n], err = asm.substitute(words[n])
		if err != nil {
			return
		}
	}

	clean = strings.Join(words, " ")
	word = ram.Text(clean)

	_, err = Decode(word)
	return
}

// Parse assembles a program.
func (asm *Assembler) Parse(in io.Reader) (prog *Program, err error) {
	asm.Label = make(map[string]int)
	asm.Equate = make(map[string]string)
	for key, value := range ram.Defines() {
		asm.Equate[key] = value
	}
	maps.Copy(asm.Equate, asm.predefine)

	var lines []source
	var lineno int
	var line string

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lineno++
		line = scanner.Text()

		var text string
		text, err = asm.firstPass(line, asm.Origin+len(lines))
		if err != nil {
			return
		}
		if len(text) == 0 {
			continue
		}
		lines = append(lines, source{lineno: lineno, text: text})
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	prog = &Program{
		Origin: asm.Origin,
		Label:  asm.Label,
	}

	for n, src := range lines {
		lineno = src.lineno
		line = src.text

		var word ram.Word
		var clean string
		word, clean, err = asm.secondPass(src.text)
		if err != nil {
			prog = nil
			return
		}

		addr := asm.Origin + n
		if asm.Verbose {
			log.Printf("asm: %03d: %v", addr, word.Quote())
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo: src.lineno,
			Addr:   addr,
			Source: clean,
			Word:   word,
		})
	}

	return
}
