package cpu

import (
	"fmt"
	"io"

	calosio "github.com/ezrec/calos/io"
	"github.com/ezrec/calos/ram"
)

// Line is one assembled word and the source it came from.
type Line struct {
	LineNo int      // Source line number.
	Addr   int      // Address of the word.
	Source string   // Source text, labels and comments removed.
	Word   ram.Word // Assembled word.
}

// Program is an assembled program.
type Program struct {
	Origin int            // Address of the first word.
	Lines  []Line         // Assembled words, in address order.
	Label  map[string]int // Label addresses.
}

// Debug returns the source line assembled at addr, or nil.
func (prog *Program) Debug(addr int) (line *Line) {
	index := addr - prog.Origin
	if index < 0 || index >= len(prog.Lines) {
		return
	}
	return &prog.Lines[index]
}

// Words returns the assembled words, in address order.
func (prog *Program) Words() (words []ram.Word) {
	for _, line := range prog.Lines {
		words = append(words, line.Word)
	}
	return
}

// Len is the number of words in the program.
func (prog *Program) Len() int {
	return len(prog.Lines)
}

// WriteTo writes the program as a tape. Words with no tape line are
// refused with an *calosio.ErrWord.
func (prog *Program) WriteTo(w io.Writer) (n int64, err error) {
	for _, line := range prog.Lines {
		err = calosio.CheckWord(line.Addr, line.Word)
		if err != nil {
			return
		}

		var count int
		count, err = fmt.Fprintln(w, line.Word.String())
		n += int64(count)
		if err != nil {
			return
		}
	}
	return
}

// String renders an assembled line for listings.
func (line Line) String() string {
	return fmt.Sprintf("%03d: %v", line.Addr, line.Source)
}
