package concurrency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type defaultExecutor struct {
	taskChan  chan Task
	workers   int
	queueSize int
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closed    bool
	logger    simpleLogger

	queuedTasks    int64
	completedTasks int64
	rejectedTasks  int64
}

// ExecutorConfig configures an Executor's pool size and queue depth.
type ExecutorConfig struct {
	Workers   int
	QueueSize int
}

// SingleWorkerConfig builds a configuration with one worker goroutine and
// the given queue depth, so tasks run one at a time in submission order.
func SingleWorkerConfig(queueSize int) ExecutorConfig {
	return ExecutorConfig{Workers: 1, QueueSize: queueSize}
}

// NewExecutor creates an Executor and starts its worker goroutines.
func NewExecutor(ctx context.Context, config ExecutorConfig) Executor {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.QueueSize < 1 {
		config.QueueSize = DefaultCapacity
	}

	ctx, cancel := context.WithCancel(ctx)

	e := &defaultExecutor{
		taskChan:  make(chan Task, config.QueueSize),
		workers:   config.Workers,
		queueSize: config.QueueSize,
		ctx:       ctx,
		cancel:    cancel,
		logger:    newDefaultSimpleLogger(),
	}
	e.startWorkers()
	return e
}

func (e *defaultExecutor) startWorkers() {
	e.wg.Add(e.workers)
	for i := 0; i < e.workers; i++ {
		go e.worker(i)
	}
}

func (e *defaultExecutor) worker(id int) {
	defer e.wg.Done()
	for {
		select {
		case task, ok := <-e.taskChan:
			if !ok {
				return
			}
			atomic.AddInt64(&e.queuedTasks, -1)
			if err := task.Execute(e.ctx); err != nil {
				e.logger.Errorf("task %s failed: %v", task.Name(), err)
			}
			atomic.AddInt64(&e.completedTasks, 1)
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *defaultExecutor) Submit(task Task) error {
	if task == nil {
		return fmt.Errorf("concurrency: task cannot be nil")
	}
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return fmt.Errorf("concurrency: executor is closed")
	}

	select {
	case e.taskChan <- task:
		atomic.AddInt64(&e.queuedTasks, 1)
		return nil
	case <-e.ctx.Done():
		return e.ctx.Err()
	default:
		atomic.AddInt64(&e.rejectedTasks, 1)
		return ErrMailboxFull
	}
}

func (e *defaultExecutor) SubmitWithTimeout(task Task, timeout time.Duration) error {
	if task == nil {
		return fmt.Errorf("concurrency: task cannot be nil")
	}
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return fmt.Errorf("concurrency: executor is closed")
	}

	select {
	case e.taskChan <- task:
		atomic.AddInt64(&e.queuedTasks, 1)
		return nil
	case <-time.After(timeout):
		atomic.AddInt64(&e.rejectedTasks, 1)
		return fmt.Errorf("concurrency: submit timeout after %v", timeout)
	case <-e.ctx.Done():
		return e.ctx.Err()
	}
}

func (e *defaultExecutor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	close(e.taskChan)

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("concurrency: shutdown timeout: %w", ctx.Err())
	}
}

func (e *defaultExecutor) Stats() ExecutorStats {
	queued := atomic.LoadInt64(&e.queuedTasks)
	utilization := float64(queued) / float64(e.queueSize) * 100.0
	if utilization > 100.0 {
		utilization = 100.0
	}
	return ExecutorStats{
		QueuedTasks:      queued,
		ActiveWorkers:    e.workers,
		CompletedTasks:   atomic.LoadInt64(&e.completedTasks),
		RejectedTasks:    atomic.LoadInt64(&e.rejectedTasks),
		QueueCapacity:    e.queueSize,
		QueueUtilization: utilization,
	}
}
