package disruptor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	derrors "github.com/ringflow/disruptor/errors"
)

func TestExecutorSubmitRunsTask(t *testing.T) {
	executor, err := NewExecutor(2)
	require.NoError(t, err)

	done := make(chan struct{})
	require.NoError(t, executor.Submit("task", func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, executor.Close(ctx))
}

func TestExecutorSubmitAfterCloseFails(t *testing.T) {
	executor, err := NewExecutor(2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, executor.Close(ctx))

	err = executor.Submit("late", func() {})
	require.ErrorIs(t, err, derrors.ErrExecutorClosed)
}

func TestExecutorCloseWaitsForInFlightTasks(t *testing.T) {
	executor, err := NewExecutor(2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	release := make(chan struct{})
	require.NoError(t, executor.Submit("slow", func() {
		<-release
		wg.Done()
	}))

	closeErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		closeErr <- executor.Close(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, <-closeErr)
}

func TestExecutorCloseTimesOutIfTaskNeverReturns(t *testing.T) {
	executor, err := NewExecutor(2)
	require.NoError(t, err)

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	require.NoError(t, executor.Submit("stuck", func() { <-block }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = executor.Close(ctx)
	require.ErrorIs(t, err, derrors.ErrShutdownTimeout)
}
