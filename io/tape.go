package io

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/ezrec/calos/ram"
)

// Tape loads and saves memory images as text, one word per line.
//
//   - A line that parses as a decimal integer is a data word.
//   - An empty line, or one starting with '#', is skipped.
//   - Any other line is stored verbatim as a text (instruction) word.
//
// Text words that are empty, blank, start with '#', hold a line break,
// or read as an integer have no tape line, and are refused on save.
type Tape struct {
	Fs afero.Fs // File system holding the tapes.
}

// NewTape creates a tape drive on the host file system.
func NewTape() *Tape {
	return &Tape{Fs: afero.NewOsFs()}
}

// ParseLine converts one tape line to a word. skip is set for blank and
// comment lines.
func ParseLine(line string) (word ram.Word, skip bool) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if len(trimmed) == 0 || strings.HasPrefix(trimmed, "#") {
		skip = true
		return
	}

	value, err := strconv.Atoi(trimmed)
	if err == nil {
		word = ram.Int(value)
		return
	}

	word = ram.Text(line)
	return
}

// Parse reads every word from a tape.
func Parse(r io.Reader) (words []ram.Word, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word, skip := ParseLine(scanner.Text())
		if skip {
			continue
		}
		words = append(words, word)
	}

	err = scanner.Err()
	return
}

// CheckWord returns an *ErrWord when the word at addr has no tape line
// that loads back as the same word.
func CheckWord(addr int, word ram.Word) (err error) {
	line := word.String()
	back, skip := ParseLine(line)
	if skip || back != word || strings.ContainsAny(line, "\r\n") {
		err = &ErrWord{Addr: addr, Word: word}
	}
	return
}

// Format writes words as tape lines. Nothing is written past the first
// word that fails CheckWord.
func Format(w io.Writer, words iter.Seq2[int, ram.Word]) (err error) {
	for addr, word := range words {
		err = CheckWord(addr, word)
		if err != nil {
			return
		}

		_, err = fmt.Fprintln(w, word.String())
		if err != nil {
			return
		}
	}
	return
}

// Place stores words at consecutive addresses starting at addr, and
// returns the address after the last word.
func Place(mem Memory, addr int, words []ram.Word) (next int, err error) {
	next = addr
	for _, word := range words {
		err = mem.Write(next, word)
		if err != nil {
			return
		}
		next++
	}
	return
}

// Load the named tape into mem starting at addr. Returns the address
// after the last word loaded.
func (tape *Tape) Load(name string, mem Memory, addr int) (next int, err error) {
	defer func() {
		if err != nil {
			err = &ErrTape{Name: name, Err: err}
		}
	}()

	inf, err := tape.Fs.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	words, err := Parse(inf)
	if err != nil {
		return
	}

	return Place(mem, addr, words)
}

// Save memory [start, end] to the named tape.
func (tape *Tape) Save(name string, mem *ram.Memory, start, end int) (err error) {
	defer func() {
		if err != nil {
			err = &ErrTape{Name: name, Err: err}
		}
	}()

	if !mem.IsLegal(start) {
		err = &ram.ErrAddress{Addr: start, Size: mem.Size()}
		return
	}
	if !mem.IsLegal(end) {
		err = &ram.ErrAddress{Addr: end, Size: mem.Size()}
		return
	}

	for addr, word := range mem.Words(start, end) {
		err = CheckWord(addr, word)
		if err != nil {
			return
		}
	}

	ouf, err := tape.Fs.Create(name)
	if err != nil {
		return
	}

	err = Format(ouf, mem.Words(start, end))
	if err != nil {
		ouf.Close()
		return
	}

	err = ouf.Close()
	return
}
