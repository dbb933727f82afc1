package io

import (
	"github.com/ezrec/calos/ram"
	"github.com/ezrec/calos/translate"
)

var f = translate.From

var (
	ErrTapeWord = translate.Error("word cannot be written to tape")
)

// ErrTape reports a failure loading or saving a tape.
type ErrTape struct {
	Name string
	Err  error
}

func (err *ErrTape) Error() string {
	return f("tape %v: %v", err.Name, err.Err)
}

func (err *ErrTape) Unwrap() error {
	return err.Err
}

// ErrWord reports a memory word that would not read back from a tape
// line as the same word.
type ErrWord struct {
	Addr int
	Word ram.Word
}

func (err *ErrWord) Error() string {
	return f("address %d %v: %v", err.Addr, err.Word.Quote(), ErrTapeWord)
}

func (err *ErrWord) Unwrap() error {
	return ErrTapeWord
}
