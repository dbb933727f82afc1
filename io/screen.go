package io

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/ezrec/calos/ram"
)

// Screen is the screen controller. It owns three registers:
//
//   - SCREEN_STATUS:  bit 0 busy.
//   - SCREEN_CONTROL: bit 0 command-ready, bit 1 write.
//   - SCREEN_DATA:    word to output.
//
// When software sets command-ready and write, the controller writes
// SCREEN_DATA to Output and clears the control, data and status registers.
// It raises no interrupt on completion; software polls SCREEN_STATUS.
type Screen struct {
	Verbose  bool
	Memory   Memory
	Output   io.Writer
	Interval time.Duration // Time between polls.
}

var _ Task = (*Screen)(nil)

// Poll runs one controller cycle.
func (scr *Screen) Poll() (err error) {
	const command = ram.CONTROL_READY | ram.CONTROL_WRITE
	if register(scr.Memory, ram.SCREEN_CONTROL)&command != command {
		return
	}

	err = scr.Memory.Write(ram.SCREEN_STATUS, ram.Int(ram.STATUS_BUSY))
	if err != nil {
		return
	}

	data, err := scr.Memory.Read(ram.SCREEN_DATA)
	if err != nil {
		return
	}

	if scr.Verbose {
		log.Printf("screen: write %v", data.Quote())
	}

	if scr.Output != nil {
		_, err = io.WriteString(scr.Output, data.String())
		if err != nil {
			return
		}
	}

	for _, addr := range []int{ram.SCREEN_CONTROL, ram.SCREEN_DATA, ram.SCREEN_STATUS} {
		err = scr.Memory.Write(addr, ram.Int(0))
		if err != nil {
			return
		}
	}

	return
}

// Run polls every Interval until ctx is done.
func (scr *Screen) Run(ctx context.Context) (err error) {
	ticker := time.NewTicker(scr.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err = scr.Poll()
			if err != nil {
				return
			}
		}
	}
}
