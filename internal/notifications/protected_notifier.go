package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type breakerState string

const (
	stateClosed   breakerState = "closed"
	stateOpen     breakerState = "open"
	stateHalfOpen breakerState = "half_open"
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // hard timeout per send
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // trial calls allowed while half-open
}

// ProtectedNotifier wraps a Notifier with a per-call timeout and a
// circuit breaker shared by every message kind.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	now   func() time.Time

	mu                  sync.Mutex
	state               breakerState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg,
		now:   time.Now,
		state: stateClosed,
	}
}

func (n *ProtectedNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	return n.do(ctx, func(ctx context.Context) error {
		return n.inner.SendWelcome(ctx, in)
	})
}

func (n *ProtectedNotifier) SendMemberJoined(ctx context.Context, in MemberJoinedInput) error {
	return n.do(ctx, func(ctx context.Context) error {
		return n.inner.SendMemberJoined(ctx, in)
	})
}

func (n *ProtectedNotifier) do(ctx context.Context, send func(context.Context) error) error {
	if !n.allowRequest() {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := send(sendCtx)
	n.afterRequest(err)

	return err
}

func (n *ProtectedNotifier) allowRequest() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case stateOpen:
		if n.now().Sub(n.openedAt) < n.cfg.Cooldown {
			return false
		}
		n.state = stateHalfOpen
		n.halfOpenInFlight = 1
		return true
	case stateHalfOpen:
		if n.halfOpenInFlight >= n.cfg.HalfOpenMaxCalls {
			return false
		}
		n.halfOpenInFlight++
		return true
	default:
		return true
	}
}

func (n *ProtectedNotifier) afterRequest(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == stateHalfOpen && n.halfOpenInFlight > 0 {
		n.halfOpenInFlight--
	}

	if err == nil {
		n.consecutiveFailures = 0
		n.state = stateClosed
		return
	}

	n.consecutiveFailures++

	// a failed trial reopens immediately
	if n.state == stateHalfOpen || n.consecutiveFailures >= n.cfg.FailureThreshold {
		n.state = stateOpen
		n.openedAt = n.now()
	}
}
