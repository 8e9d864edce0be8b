package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolProcessesTasks(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(10, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 3}, logger)

	var executed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		task := newMockTask()
		task.execFn = func(ctx context.Context) error {
			defer wg.Done()
			executed.Add(1)
			return nil
		}
		assert.NoError(t, queue.Enqueue(task))
	}

	pool.Start()
	defer pool.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks to execute")
	}
	assert.Equal(t, int32(5), executed.Load())
}

func TestWorkerPoolErrorHandler(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(10, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, logger)

	wantErr := errors.New("boom")
	handled := make(chan error, 1)
	pool.SetErrorHandler(func(task Task, err error) {
		handled <- err
	})

	task := newMockTask()
	task.execFn = func(ctx context.Context) error { return wantErr }
	assert.NoError(t, queue.Enqueue(task))

	pool.Start()
	defer pool.Stop()

	select {
	case err := <-handled:
		assert.ErrorIs(t, err, wantErr)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error handler")
	}
}

func TestWorkerPoolStopsOnQueueClose(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(10, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, logger)

	pool.Start()
	queue.Close()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after queue close")
	}
}

func TestWorkerPoolDefaultsInvalidCount(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(1, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: -3}, logger)
	assert.Equal(t, 1, pool.workerCount)
}
