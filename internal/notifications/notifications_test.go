package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/geocoder89/projecthub/internal/jobs"
)

type flakyNotifier struct {
	mu      sync.Mutex
	fail    bool
	welcome []WelcomeInput
	joined  []MemberJoinedInput
	block   bool
}

func (f *flakyNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.fail {
		return errors.New("provider down")
	}
	f.welcome = append(f.welcome, in)
	return nil
}

func (f *flakyNotifier) SendMemberJoined(ctx context.Context, in MemberJoinedInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("provider down")
	}
	f.joined = append(f.joined, in)
	return nil
}

func (f *flakyNotifier) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &flakyNotifier{fail: true}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	ctx := context.Background()
	in := WelcomeInput{Email: "a@example.com"}

	for i := 0; i < 2; i++ {
		if err := n.SendWelcome(ctx, in); err == nil || errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("attempt %d: expected provider error, got %v", i, err)
		}
	}

	// open: fail fast without reaching the provider
	inner.setFail(false)
	if err := n.SendWelcome(ctx, in); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if len(inner.welcome) != 0 {
		t.Fatalf("open circuit must not call the provider")
	}

	// after cooldown one trial call goes through and closes the circuit
	now = now.Add(time.Minute)
	if err := n.SendWelcome(ctx, in); err != nil {
		t.Fatalf("half-open trial: %v", err)
	}
	if n.state != stateClosed {
		t.Fatalf("expected closed after successful trial, got %s", n.state)
	}
}

func TestProtectedNotifier_FailedTrialReopens(t *testing.T) {
	inner := &flakyNotifier{fail: true}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Second})

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	ctx := context.Background()
	_ = n.SendMemberJoined(ctx, MemberJoinedInput{})

	now = now.Add(2 * time.Second)
	if err := n.SendMemberJoined(ctx, MemberJoinedInput{}); err == nil || errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("trial should reach the provider and fail, got %v", err)
	}
	if err := n.SendMemberJoined(ctx, MemberJoinedInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected reopened circuit, got %v", err)
	}
}

func TestProtectedNotifier_Timeout(t *testing.T) {
	inner := &flakyNotifier{block: true}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{Timeout: 10 * time.Millisecond})

	err := n.SendWelcome(context.Background(), WelcomeInput{Email: "a@example.com"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type fakeDirectory struct {
	users    map[string]user.User
	projects map[string]project.Project
}

func (d fakeDirectory) GetUser(_ context.Context, id string) (user.User, error) {
	u, ok := d.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (d fakeDirectory) GetProject(_ context.Context, id string) (project.Project, error) {
	p, ok := d.projects[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func TestRegisterJobs(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	q := jobs.NewQueue(jobs.Config{Workers: 1, MaxTries: 2, Backoff: time.Millisecond}, log, nil)

	inner := &flakyNotifier{}
	dir := fakeDirectory{
		users:    map[string]user.User{"u1": {ID: "u1", FirstName: "Dan", LastName: "Smith", Email: "dan@example.com"}},
		projects: map[string]project.Project{"p1": {ID: "p1", Name: "Lets make a React App!!!"}},
	}
	RegisterJobs(q, inner, dir)
	q.Start(context.Background())

	ctx := context.Background()
	if _, err := q.Enqueue(ctx, jobs.JobWelcomeUser, jobs.WelcomeUserPayload{UserID: "u1", Email: "dan@example.com", Name: "Dan"}); err != nil {
		t.Fatalf("enqueue welcome: %v", err)
	}
	if _, err := q.Enqueue(ctx, jobs.JobMemberJoined, jobs.MemberJoinedPayload{ProjectID: "p1", UserID: "u1"}); err != nil {
		t.Fatalf("enqueue joined: %v", err)
	}
	// deleted project: dropped without retry
	if _, err := q.Enqueue(ctx, jobs.JobMemberJoined, jobs.MemberJoinedPayload{ProjectID: "gone", UserID: "u1"}); err != nil {
		t.Fatalf("enqueue joined: %v", err)
	}

	if err := q.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if len(inner.welcome) != 1 || inner.welcome[0].Email != "dan@example.com" {
		t.Fatalf("unexpected welcome messages: %+v", inner.welcome)
	}
	want := MemberJoinedInput{Email: "dan@example.com", Name: "Dan Smith", ProjectID: "p1", ProjectName: "Lets make a React App!!!"}
	if len(inner.joined) != 1 || inner.joined[0] != want {
		t.Fatalf("unexpected joined messages: %+v", inner.joined)
	}
}
