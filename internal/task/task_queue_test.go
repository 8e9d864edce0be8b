package task

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/qwerprog/scribe-api/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

// mockTask implements the Task interface for testing
type mockTask struct {
	id       string
	taskType string
	execFn   func(ctx context.Context) error
}

func (m *mockTask) ID() string {
	return m.id
}

func (m *mockTask) Type() string {
	return m.taskType
}

func (m *mockTask) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockTask() *mockTask {
	return &mockTask{
		id:       uuid.New().String(),
		taskType: "mock",
	}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func TestNewTaskQueue(t *testing.T) {
	queue := NewTaskQueue(10, setupTestLogger())

	assert.NotNil(t, queue)
	assert.Equal(t, 10, cap(queue.tasks))
	assert.False(t, queue.closed)
}

func TestEnqueue(t *testing.T) {
	queue := NewTaskQueue(2, setupTestLogger())

	assert.NoError(t, queue.Enqueue(newMockTask()))
	assert.NoError(t, queue.Enqueue(newMockTask()))

	// Queue full
	task3 := newMockTask()
	err := queue.Enqueue(task3)
	assert.ErrorIs(t, err, ErrQueueFull)

	// Dequeue one item to make space
	<-queue.tasks

	assert.NoError(t, queue.Enqueue(task3))
}

func TestClose(t *testing.T) {
	queue := NewTaskQueue(10, setupTestLogger())

	task := newMockTask()
	assert.NoError(t, queue.Enqueue(task))

	queue.Close()
	assert.True(t, queue.closed)

	// Enqueue after closing
	err := queue.Enqueue(newMockTask())
	assert.ErrorIs(t, err, ErrQueueClosed)

	// Already-queued tasks remain readable
	received := <-queue.GetChannel()
	assert.Equal(t, task.ID(), received.ID())

	select {
	case _, ok := <-queue.GetChannel():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for closed channel read")
	}
}

func TestCloseIdempotent(t *testing.T) {
	queue := NewTaskQueue(1, setupTestLogger())
	queue.Close()
	queue.Close()
}

func TestConcurrentEnqueue(t *testing.T) {
	queue := NewTaskQueue(100, setupTestLogger())

	taskCount := 50
	doneCh := make(chan struct{})

	go func() {
		for i := 0; i < taskCount; i++ {
			assert.NoError(t, queue.Enqueue(newMockTask()))
		}
		close(doneCh)
	}()

	<-doneCh

	count := 0
	for i := 0; i < taskCount; i++ {
		select {
		case <-queue.GetChannel():
			count++
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timed out waiting for task")
		}
	}

	assert.Equal(t, taskCount, count)
}
