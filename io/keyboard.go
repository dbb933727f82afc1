// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"bufio"
	"context"
	"io"
	"log"
	"time"

	"github.com/ezrec/calos/ram"
)

// Keyboard is the keyboard controller. It owns three registers:
//
//   - KBD_STATUS:  bit 0 busy.
//   - KBD_CONTROL: bit 0 command-ready, bit 2 read.
//   - KBD_DATA:    text of up to the last four characters typed.
//
// When software sets command-ready and read, the controller copies its
// buffered keys to KBD_DATA, clears the control and status registers, and
// raises a keyboard interrupt.
type Keyboard struct {
	Verbose  bool
	Memory   Memory
	Line     *Line
	Keys     <-chan rune   // Incoming keys, may be nil.
	Interval time.Duration // Time between polls.

	buffer []rune
}

var _ Task = (*Keyboard)(nil)

// Buffered returns the keys currently held by the controller.
func (kbd *Keyboard) Buffered() string {
	return string(kbd.buffer)
}

// sample drains every key waiting on Keys, keeping the most recent ones.
func (kbd *Keyboard) sample() {
	for {
		select {
		case key, ok := <-kbd.Keys:
			if !ok {
				kbd.Keys = nil
				return
			}
			if len(kbd.buffer) >= ram.MAX_TEXT_CHARS {
				kbd.buffer = kbd.buffer[1:]
			}
			kbd.buffer = append(kbd.buffer, key)
		default:
			return
		}
	}
}

// Poll runs one controller cycle.
func (kbd *Keyboard) Poll() (err error) {
	kbd.sample()

	const command = ram.CONTROL_READY | ram.CONTROL_READ
	if register(kbd.Memory, ram.KBD_CONTROL)&command != command {
		return
	}

	err = kbd.Memory.Write(ram.KBD_STATUS, ram.Int(ram.STATUS_BUSY))
	if err != nil {
		return
	}

	data := ram.Text(string(kbd.buffer))
	err = kbd.Memory.Write(ram.KBD_DATA, data)
	if err != nil {
		return
	}

	err = kbd.Memory.Write(ram.KBD_CONTROL, ram.Int(0))
	if err != nil {
		return
	}
	err = kbd.Memory.Write(ram.KBD_STATUS, ram.Int(0))
	if err != nil {
		return
	}

	if kbd.Verbose {
		log.Printf("keyboard: read %v", data.Quote())
	}

	kbd.Line.Raise(DEVICE_ID_KEYBOARD)

	return
}

// Run polls every Interval until ctx is done.
func (kbd *Keyboard) Run(ctx context.Context) (err error) {
	ticker := time.NewTicker(kbd.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err = kbd.Poll()
			if err != nil {
				return
			}
		}
	}
}

// ReadKeys decodes UTF-8 characters from r onto the returned channel,
// until r fails or ctx is done. The channel is closed when reading stops.
// Invalid input arrives as utf8.RuneError.
func ReadKeys(ctx context.Context, r io.Reader) <-chan rune {
	keys := make(chan rune, ram.MAX_TEXT_CHARS)

	go func() {
		defer close(keys)
		in := bufio.NewReader(r)
		for {
			key, _, err := in.ReadRune()
			if err != nil {
				return
			}
			select {
			case keys <- key:
			case <-ctx.Done():
				return
			}
		}
	}()

	return keys
}
