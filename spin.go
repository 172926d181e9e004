package disruptor

import _ "unsafe" // required for go:linkname

// procyield executes a short, architecture-specific spin-wait hint
// (e.g. PAUSE on amd64) without yielding the goroutine to the Go
// scheduler. Linked directly into the runtime rather than
// reimplemented, following the same technique the wider lock-free Go
// corpus uses for busy-wait loops.
//
//go:linkname procyield runtime.procyield
func procyield(cycles uint32)

// osyield hands the current OS thread to the scheduler for one
// timeslice — cheaper than a full runtime.Gosched() re-queue for
// tight wait loops that expect to be runnable again almost
// immediately.
//
//go:linkname osyield runtime.osyield
func osyield()
