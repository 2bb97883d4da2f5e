package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by Cancel for IDs the queue is not tracking.
var ErrUnknownJob = errors.New("job not queued or running")

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. The context is cancelled when the queue stops or
// when Cancel is called for the job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	// DisableRetries drops failed jobs instead of requeueing them.
	DisableRetries bool
	Logger         *zap.Logger
}

// Queue is a lightweight in-memory job dispatcher backed by goroutines.
type Queue struct {
	name    string
	handler Handler

	workers        int
	bufferSize     int
	maxRetries     int
	retryDelay     time.Duration
	disableRetries bool
	logger         *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool

	pending   map[string]struct{}
	cancelled map[string]struct{}
	running   map[string]context.CancelFunc
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:           name,
		handler:        handler,
		workers:        cfg.Workers,
		bufferSize:     cfg.BufferSize,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
		disableRetries: cfg.DisableRetries,
		logger:         cfg.Logger,
		jobs:           make(chan Job, cfg.BufferSize),
		pending:        make(map[string]struct{}),
		cancelled:      make(map[string]struct{}),
		running:        make(map[string]context.CancelFunc),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Enqueue pushes a job onto the queue.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	if started && job.ID != "" {
		q.pending[job.ID] = struct{}{}
	}
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		q.forget(job.ID)
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	default:
		q.forget(job.ID)
		return fmt.Errorf("queue %s full", q.name)
	}
}

// Cancel stops a running job or prevents a queued one from starting.
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if cancel, ok := q.running[id]; ok {
		cancel()
		return nil
	}
	if _, ok := q.pending[id]; ok {
		q.cancelled[id] = struct{}{}
		return nil
	}
	return ErrUnknownJob
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(workerID, job)
		}
	}
}

func (q *Queue) run(workerID int, job Job) {
	jobCtx, cancel := context.WithCancel(q.ctx)
	defer cancel()

	q.mu.Lock()
	delete(q.pending, job.ID)
	if _, skip := q.cancelled[job.ID]; skip {
		delete(q.cancelled, job.ID)
		q.mu.Unlock()
		q.logger.Sugar().Infow("job cancelled before start", "queue", q.name, "job_id", job.ID)
		return
	}
	if job.ID != "" {
		q.running[job.ID] = cancel
	}
	q.mu.Unlock()

	err := q.handler(jobCtx, job)

	q.mu.Lock()
	delete(q.running, job.ID)
	q.mu.Unlock()

	if err != nil {
		if jobCtx.Err() != nil && q.ctx.Err() == nil {
			q.logger.Sugar().Infow("job cancelled", "queue", q.name, "job_id", job.ID, "worker", workerID)
			return
		}
		q.handleFailure(job, err)
	}
}

func (q *Queue) handleFailure(job Job, err error) {
	if q.disableRetries {
		q.logger.Sugar().Errorw("job failed", "queue", q.name, "job_id", job.ID, "type", job.Type, "error", err)
		return
	}
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Sugar().Errorw("job exceeded retries", "queue", q.name, "job_id", job.ID, "type", job.Type, "error", err)
		return
	}
	q.logger.Sugar().Warnw("job failed, retrying", "queue", q.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Sugar().Errorw("failed to requeue job", "queue", q.name, "job_id", j.ID, "error", err)
			}
		}
	}(job)
}

func (q *Queue) forget(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
