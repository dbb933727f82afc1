package kernel

import (
	"iter"
	"slices"
)

// ReadyQueue is the FIFO of processes waiting for the CPU. The idle
// process, when queued, is always last.
type ReadyQueue struct {
	pcbs []*PCB
}

// Enqueue a process, keeping the idle process at the tail.
func (rq *ReadyQueue) Enqueue(pcb *PCB) {
	pcb.State = STATE_READY

	last := len(rq.pcbs) - 1
	if !pcb.IsIdle() && last >= 0 && rq.pcbs[last].IsIdle() {
		rq.pcbs = slices.Insert(rq.pcbs, last, pcb)
		return
	}

	rq.pcbs = append(rq.pcbs, pcb)
}

// Peek at the process at the head without removing it.
func (rq *ReadyQueue) Peek() (pcb *PCB, ok bool) {
	if len(rq.pcbs) == 0 {
		return
	}

	pcb = rq.pcbs[0]
	ok = true
	return
}

// Dequeue the process at the head.
func (rq *ReadyQueue) Dequeue() (pcb *PCB, ok bool) {
	if len(rq.pcbs) == 0 {
		return
	}

	pcb = rq.pcbs[0]
	rq.pcbs[0] = nil
	rq.pcbs = rq.pcbs[1:]
	ok = true
	return
}

// Len is the number of queued processes, idle included.
func (rq *ReadyQueue) Len() int {
	return len(rq.pcbs)
}

// OnlyIdle is true when the idle process is the only one queued.
func (rq *ReadyQueue) OnlyIdle() bool {
	return len(rq.pcbs) == 1 && rq.pcbs[0].IsIdle()
}

// All iterates over the queue, head first.
func (rq *ReadyQueue) All() iter.Seq[*PCB] {
	return slices.Values(rq.pcbs)
}
