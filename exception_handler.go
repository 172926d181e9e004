package disruptor

import "github.com/ringflow/disruptor/logging"

// ExceptionHandler is the sink a BatchEventProcessor or worker routes
// HandlerFailures to: one entry point per callback kind that can
// fail. Application code substitutes a logging, metrics-emitting, or
// swallowing variant. When none is supplied, BatchEventProcessor and
// WorkerPool use LoggingExceptionHandler, which does not re-raise;
// PanicExceptionHandler re-raises only when passed in explicitly.
type ExceptionHandler[T any] interface {
	HandleEventException(err error, sequence int64, event *T)
	HandleOnStartException(err error)
	HandleOnShutdownException(err error)
}

// LoggingExceptionHandler logs every failure at Error level via the
// shared exchange logger and otherwise swallows it, letting the
// owning processor advance past the offending event. This is the
// pragmatic default for this package — re-raising fatally out of a
// dedicated processor goroutine would just crash the process with no
// chance for the caller to react, so unlike the upstream default this
// does not panic.
type LoggingExceptionHandler[T any] struct {
	name string
}

// NewLoggingExceptionHandler returns an ExceptionHandler that logs
// under the given component name.
func NewLoggingExceptionHandler[T any](name string) *LoggingExceptionHandler[T] {
	return &LoggingExceptionHandler[T]{name: name}
}

func (h *LoggingExceptionHandler[T]) HandleEventException(err error, sequence int64, event *T) {
	logging.Named(h.name).Sugar().Errorw("event handler failed",
		"sequence", sequence, "event", event, "error", err)
}

func (h *LoggingExceptionHandler[T]) HandleOnStartException(err error) {
	logging.Named(h.name).Sugar().Errorw("onStart failed", "error", err)
}

func (h *LoggingExceptionHandler[T]) HandleOnShutdownException(err error) {
	logging.Named(h.name).Sugar().Errorw("onShutdown failed", "error", err)
}

// PanicExceptionHandler re-raises every failure by panicking, matching
// the fail-fast default of the source system this package is modeled
// on. Use when the caller wants failures to surface immediately during
// development rather than being logged and skipped.
type PanicExceptionHandler[T any] struct{}

// NewPanicExceptionHandler returns a PanicExceptionHandler.
func NewPanicExceptionHandler[T any]() *PanicExceptionHandler[T] { return &PanicExceptionHandler[T]{} }

func (h *PanicExceptionHandler[T]) HandleEventException(err error, sequence int64, event *T) {
	panic(err)
}

func (h *PanicExceptionHandler[T]) HandleOnStartException(err error) { panic(err) }

func (h *PanicExceptionHandler[T]) HandleOnShutdownException(err error) { panic(err) }
