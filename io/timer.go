// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"context"
	"log"
	"sync"
	"time"
)

// TIMER_FIRED is the countdown held after the timer fires, until re-armed.
const TIMER_FIRED = -1

// Timer is an interval timer that raises the interrupt line when its
// countdown reaches zero.
type Timer struct {
	Verbose  bool
	Line     *Line
	Interval time.Duration // Time between ticks.

	mutex     sync.Mutex
	countdown int
}

var _ Task = (*Timer)(nil)

// NewTimer creates a disarmed timer.
func NewTimer(line *Line, interval time.Duration) (timer *Timer) {
	timer = &Timer{
		Line:      line,
		Interval:  interval,
		countdown: TIMER_FIRED,
	}
	return
}

// SetCountdown arms the timer to fire after value ticks.
func (timer *Timer) SetCountdown(value int) {
	timer.mutex.Lock()
	timer.countdown = value
	timer.mutex.Unlock()

	if timer.Verbose {
		log.Printf("timer: countdown %d", value)
	}
}

// Countdown returns the remaining ticks, or TIMER_FIRED.
func (timer *Timer) Countdown() (value int) {
	timer.mutex.Lock()
	value = timer.countdown
	timer.mutex.Unlock()
	return
}

// Tick advances the timer one step, and reports if it fired.
func (timer *Timer) Tick() (fired bool) {
	timer.mutex.Lock()
	defer timer.mutex.Unlock()

	if timer.countdown > 0 {
		timer.countdown--
	}

	if timer.countdown == 0 {
		timer.Line.Raise(DEVICE_ID_TIMER)
		timer.countdown = TIMER_FIRED
		fired = true
	}

	return
}

// Run ticks the timer every Interval until ctx is done.
func (timer *Timer) Run(ctx context.Context) (err error) {
	ticker := time.NewTicker(timer.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if timer.Tick() && timer.Verbose {
				log.Printf("timer: fired")
			}
		}
	}
}
