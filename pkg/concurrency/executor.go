package concurrency

import (
	"context"
	"time"
)

// ExecutorStats reports an executor's queue and throughput state.
type ExecutorStats struct {
	QueuedTasks      int64
	ActiveWorkers    int
	CompletedTasks   int64
	RejectedTasks    int64
	QueueCapacity    int
	QueueUtilization float64
}

// Executor runs submitted tasks on a fixed pool of goroutines. With a
// single worker (SingleWorkerConfig) tasks run one at a time, in
// submission order. pkg/node does not use it: each worker and processor
// there runs its own relay goroutine directly off its mailbox.
type Executor interface {
	// Submit queues a task. Non-blocking: returns ErrMailboxFull if the
	// queue is at capacity.
	Submit(task Task) error

	// SubmitWithTimeout queues a task, blocking up to timeout for room.
	SubmitWithTimeout(task Task, timeout time.Duration) error

	// Shutdown stops accepting new tasks and waits for queued ones to
	// drain, up to ctx's deadline.
	Shutdown(ctx context.Context) error

	// Stats reports current executor statistics.
	Stats() ExecutorStats
}
