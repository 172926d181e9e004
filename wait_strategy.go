package disruptor

// WaitStrategy is the pluggable policy by which a consumer waits for a
// target sequence to become available. All variants share this single
// calling contract; there is no downcasting or type-switching on
// concrete strategy types anywhere in the exchange.
type WaitStrategy interface {
	// WaitFor blocks until dependent.Get() >= target, or fails with
	// errors.Alert() if barrier was alerted during the wait, or with
	// errors.Timeout() if a configured budget elapsed (timeout-capable
	// variants only).
	//
	// cursor and dependent are live views, re-read with Get() on every
	// iteration of the wait loop — never a value frozen at call time —
	// since a first-stage consumer must be able to observe producer
	// progress made while it waits. The returned sequence is
	// dependent.Get() at return and may exceed target — callers use it
	// for batching. cursor is the sequencer's own progress indicator,
	// consulted by strategies that need to distinguish "cursor moved
	// but dependent hasn't caught up yet" from "nothing has happened".
	WaitFor(target int64, cursor, dependent SequenceReader, barrier SequenceBarrier) (int64, error)

	// SignalAllWhenBlocking is called by producers at publish time and
	// by SequenceBarrier.Alert. It wakes any goroutine parked on a
	// condition variable; it is a no-op for busy-wait variants.
	SignalAllWhenBlocking()
}
