package disruptor

// EventHandler is the single mandatory interface a consumer supplies:
// invoked once per event in ascending sequence order, with endOfBatch
// true only for the final event delivered from a given WaitFor
// return.
type EventHandler[T any] interface {
	OnEvent(event *T, sequence int64, endOfBatch bool) error
}

// EventHandlerFunc adapts a plain function to EventHandler.
type EventHandlerFunc[T any] func(event *T, sequence int64, endOfBatch bool) error

// OnEvent implements EventHandler.
func (f EventHandlerFunc[T]) OnEvent(event *T, sequence int64, endOfBatch bool) error {
	return f(event, sequence, endOfBatch)
}

// HandlerCapabilities are the optional callbacks a handler may
// advertise, supplied explicitly at registration rather than
// discovered by type-asserting the handler. A capability left nil is
// simply skipped — the processor never inspects the handler's
// concrete type to decide what to call.
type HandlerCapabilities[T any] struct {
	// OnStart runs once before the processor's first WaitFor, after
	// the barrier's alert flag has been cleared.
	OnStart func()

	// OnShutdown runs once after the processor's loop exits, whether
	// by halt or by unrecoverable error.
	OnShutdown func()

	// OnBatchStart runs before the first event of a batch that
	// actually contains at least one event, receiving the batch size
	// (available - nextSequence + 1).
	OnBatchStart func(batchSize int64)

	// OnTimeout runs when a timeout-capable wait strategy's budget
	// elapses with no event available. Not treated as an error.
	OnTimeout func(sequence int64)

	// SequenceCallback, if set, is invoked once, when the processor is
	// constructed, with the processor's own Sequence, so a handler that does its own
	// asynchronous batching can publish progress mid-event instead of
	// only after OnEvent returns.
	SequenceCallback func(sequence *Sequence)
}
