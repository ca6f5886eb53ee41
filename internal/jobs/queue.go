package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/projecthub/internal/observability"
)

// HandlerFunc processes one job. Returning an error schedules a retry
// unless the error is wrapped with Permanent.
type HandlerFunc func(ctx context.Context, j Job) error

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

type Config struct {
	Workers  int
	Buffer   int
	MaxTries int
	// Backoff is the first retry delay; later ones double up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Queue is an in-process, bounded job queue worked by a fixed pool of
// goroutines. Jobs do not survive a restart.
type Queue struct {
	cfg  Config
	ch   chan Job
	log  *slog.Logger
	prom *observability.Prom

	mu       sync.RWMutex
	handlers map[JobType]HandlerFunc
	closed   bool

	wg   sync.WaitGroup
	stop context.CancelFunc
}

func NewQueue(cfg Config, log *slog.Logger, prom *observability.Prom) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = 5
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.Backoff {
		cfg.MaxBackoff = 30 * cfg.Backoff
	}
	if log == nil {
		log = slog.Default()
	}

	return &Queue{
		cfg:      cfg,
		ch:       make(chan Job, cfg.Buffer),
		log:      log,
		prom:     prom,
		handlers: map[JobType]HandlerFunc{},
	}
}

// Handle registers h for t, replacing any earlier handler.
func (q *Queue) Handle(t JobType, h HandlerFunc) {
	q.mu.Lock()
	q.handlers[t] = h
	q.mu.Unlock()
}

// Start launches the workers. Cancelling ctx aborts in-flight retries.
func (q *Queue) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	q.stop = cancel

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for j := range q.ch {
				q.run(runCtx, j)
			}
		}()
	}
}

// Enqueue validates payload and queues a job for it without blocking.
func (q *Queue) Enqueue(ctx context.Context, t JobType, payload any) (Job, error) {
	b, err := EncodePayload(t, payload)
	if err != nil {
		return Job{}, err
	}

	j, err := NewJob(t, b)
	if err != nil {
		return Job{}, err
	}
	j.MaxTries = q.cfg.MaxTries

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return Job{}, ErrQueueClosed
	}

	select {
	case q.ch <- j:
		q.log.DebugContext(ctx, "job enqueued", "job_id", j.ID, "type", j.Type)
		return j, nil
	default:
		q.prom.ObserveJob(string(t), "dropped")
		return Job{}, ErrQueueFull
	}
}

// Shutdown stops intake and waits for queued jobs to drain. If ctx ends
// first, pending retries are cancelled and ctx's error is returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if q.stop != nil {
			q.stop()
		}
		return nil
	case <-ctx.Done():
		if q.stop != nil {
			q.stop()
		}
		<-done
		return ctx.Err()
	}
}

func (q *Queue) run(ctx context.Context, j Job) {
	q.mu.RLock()
	h, ok := q.handlers[j.Type]
	q.mu.RUnlock()

	if !ok {
		q.finish(ctx, &j, JobFailed, ErrNoHandler)
		return
	}

	for {
		j.Attempts++
		j.setStatus(JobProcessing, nil)

		err := h(ctx, j)
		if err == nil {
			q.finish(ctx, &j, JobSucceeded, nil)
			return
		}

		var perm permanentError
		if errors.As(err, &perm) || errors.Is(err, ErrInvalidJobPayload) || j.Attempts >= j.MaxTries {
			q.finish(ctx, &j, JobFailed, err)
			return
		}

		q.log.WarnContext(ctx, "job attempt failed", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts, "err", err)

		select {
		case <-time.After(ExponentialBackoff(q.cfg.Backoff, q.cfg.MaxBackoff, j.Attempts)):
		case <-ctx.Done():
			q.finish(ctx, &j, JobFailed, ctx.Err())
			return
		}
	}
}

func (q *Queue) finish(ctx context.Context, j *Job, s JobStatus, err error) {
	j.setStatus(s, err)
	q.prom.ObserveJob(string(j.Type), string(s))

	if err != nil {
		q.log.ErrorContext(ctx, "job failed", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "err", err)
		return
	}
	q.log.DebugContext(ctx, "job done", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts)
}
