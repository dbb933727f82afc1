// Package kernel implements process control blocks, the round robin
// scheduler and the kernel's system call and interrupt entry points.
//
// The scheduler owns every piece of process state: the ready queue, the
// idle process, the current process and the active process count. The
// kernel drives the CPU one instruction at a time and is re-entered by
// the CPU at its interrupt check point.
package kernel
