// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package ram

import (
	"strconv"
)

// MAX_TEXT_CHARS is the largest text a device places in a single data word.
const MAX_TEXT_CHARS = 4

// Word is the value stored at one memory address: an integer or a text.
// The zero Word is the integer 0.
type Word struct {
	value  int
	text   string
	isText bool
}

// Int makes an integer word.
func Int(value int) Word {
	return Word{value: value}
}

// Text makes a text word.
func Text(text string) Word {
	return Word{text: text, isText: true}
}

// IsText is true for text words.
func (w Word) IsText() bool {
	return w.isText
}

// Int returns the integer value of the word, and false for text words.
func (w Word) Int() (value int, ok bool) {
	if w.isText {
		return
	}
	return w.value, true
}

// Text returns the text of the word, and false for integer words.
func (w Word) Text() (text string, ok bool) {
	if !w.isText {
		return
	}
	return w.text, true
}

// String renders integers in decimal and text verbatim.
func (w Word) String() string {
	if w.isText {
		return w.text
	}
	return strconv.Itoa(w.value)
}

// Quote renders text words in single quotes, as device data is shown.
func (w Word) Quote() string {
	if w.isText {
		return "'" + w.text + "'"
	}
	return strconv.Itoa(w.value)
}
