package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueue_RunsHandler(t *testing.T) {
	q := NewQueue(Config{Workers: 2, Buffer: 8}, quietLog(), nil)

	var (
		mu  sync.Mutex
		got []string
	)
	q.Handle(JobWelcomeUser, func(ctx context.Context, j Job) error {
		p, err := DecodePayload(j)
		if err != nil {
			return err
		}
		mu.Lock()
		got = append(got, p.(WelcomeUserPayload).UserID)
		mu.Unlock()
		return nil
	})
	q.Start(context.Background())

	for _, id := range []string{"u1", "u2", "u3"} {
		if _, err := q.Enqueue(context.Background(), JobWelcomeUser, WelcomeUserPayload{UserID: id, Email: id + "@example.com"}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 handled jobs, got %v", got)
	}
}

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	prom := observability.NewProm(prometheus.NewRegistry())
	q := NewQueue(Config{Workers: 1, MaxTries: 3, Backoff: time.Millisecond}, quietLog(), prom)

	var calls atomic.Int32
	q.Handle(JobMemberJoined, func(ctx context.Context, j Job) error {
		if calls.Add(1) < 3 {
			return errors.New("provider down")
		}
		return nil
	})
	q.Start(context.Background())

	if _, err := q.Enqueue(context.Background(), JobMemberJoined, MemberJoinedPayload{ProjectID: "p1", UserID: "u1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	if got := testutil.ToFloat64(prom.JobsProcessed.WithLabelValues(string(JobMemberJoined), "succeeded")); got != 1 {
		t.Fatalf("succeeded count: got %v want 1", got)
	}
}

func TestQueue_PermanentErrorIsNotRetried(t *testing.T) {
	prom := observability.NewProm(prometheus.NewRegistry())
	q := NewQueue(Config{Workers: 1, MaxTries: 5, Backoff: time.Millisecond}, quietLog(), prom)

	var calls atomic.Int32
	q.Handle(JobMemberJoined, func(ctx context.Context, j Job) error {
		calls.Add(1)
		return Permanent(errors.New("user gone"))
	})
	q.Start(context.Background())

	_, _ = q.Enqueue(context.Background(), JobMemberJoined, MemberJoinedPayload{ProjectID: "p1", UserID: "u1"})
	_ = q.Shutdown(context.Background())

	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
	if got := testutil.ToFloat64(prom.JobsProcessed.WithLabelValues(string(JobMemberJoined), "failed")); got != 1 {
		t.Fatalf("failed count: got %v want 1", got)
	}
}

func TestQueue_FullAndClosed(t *testing.T) {
	q := NewQueue(Config{Workers: 1, Buffer: 1}, quietLog(), nil)
	// not started, so the buffer never drains

	payload := WelcomeUserPayload{UserID: "u1", Email: "u1@example.com"}
	if _, err := q.Enqueue(context.Background(), JobWelcomeUser, payload); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if _, err := q.Enqueue(context.Background(), JobWelcomeUser, payload); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if _, err := q.Enqueue(context.Background(), JobWelcomeUser, payload); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
	// second shutdown is a no-op
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestQueue_ShutdownDeadlineCancelsRetries(t *testing.T) {
	q := NewQueue(Config{Workers: 1, MaxTries: 100, Backoff: time.Hour}, quietLog(), nil)
	q.Handle(JobWelcomeUser, func(ctx context.Context, j Job) error {
		return errors.New("always down")
	})
	q.Start(context.Background())

	_, _ = q.Enqueue(context.Background(), JobWelcomeUser, WelcomeUserPayload{UserID: "u1", Email: "u1@example.com"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := q.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestExponentialBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, base},
		{1, base},
		{2, 2 * base},
		{3, 4 * base},
		{10, max},
	}

	for _, tc := range cases {
		got := ExponentialBackoff(base, max, tc.attempt)
		if got < tc.want || got > tc.want+base/4 {
			t.Fatalf("attempt %d: got %s, want %s plus at most %s jitter", tc.attempt, got, tc.want, base/4)
		}
	}
}
