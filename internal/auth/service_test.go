package auth

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/projecthub/internal/domain/skill"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/geocoder89/projecthub/internal/repo/memory"
	"github.com/geocoder89/projecthub/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func newTestService(t *testing.T) (*Service, *memory.Store, RegisterRequest) {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	sk, err := store.CreateSkill(ctx, skill.CreateSkillRequest{Name: "Go", Description: "gophers"})
	require.NoError(t, err)

	svc := NewService(store, session.NewMemoryStore(), NewManager(testSecret), Options{
		SessionTTL:  2 * time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
	}, nil, nil)

	slot := user.SkillSlot{SkillID: sk.ID, Proficiency: 3}
	req := RegisterRequest{
		Email:     "Grace@Example.com",
		Password:  "correct horse",
		FirstName: "Grace",
		LastName:  "Hopper",
		Skills:    [user.SlotCount]user.SkillSlot{slot, slot, slot},
	}
	return svc, store, req
}

func TestRegisterStoresHashOnly(t *testing.T) {
	svc, _, req := newTestService(t)

	u, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "grace@example.com", u.Email)
	assert.NotEqual(t, req.Password, u.PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)

	_, err = svc.Register(context.Background(), req)
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestAuthenticateRoundTrip(t *testing.T) {
	svc, _, req := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, req)
	require.NoError(t, err)

	sess, err := svc.Authenticate(ctx, "grace@EXAMPLE.com", req.Password)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.UserID)
	assert.False(t, sess.Moderator)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	svc, _, req := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(ctx, req.Email, "not the password")
	_, unknownEmail := svc.Authenticate(ctx, "nobody@example.com", req.Password)

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginRememberExtendsLifetime(t *testing.T) {
	svc, _, req := newTestService(t)
	ctx := context.Background()

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)
	sess, err := svc.Authenticate(ctx, req.Email, req.Password)
	require.NoError(t, err)

	short, err := svc.Login(ctx, sess, false)
	require.NoError(t, err)
	long, err := svc.Login(ctx, sess, true)
	require.NoError(t, err)

	assert.Equal(t, fixed.Add(2*time.Hour), short.ExpiresAt)
	assert.Equal(t, fixed.Add(30*24*time.Hour), long.ExpiresAt)
	assert.True(t, long.Remember)
	assert.NotEqual(t, short.ID, long.ID)
}

func TestLoginRequiresAuthenticatedSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), Session{}, false)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestResolveAndLogout(t *testing.T) {
	svc, _, req := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, req)
	require.NoError(t, err)
	sess, err := svc.Authenticate(ctx, req.Email, req.Password)
	require.NoError(t, err)
	active, err := svc.Login(ctx, sess, false)
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, active.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)
	assert.Equal(t, active.ID, got.ID)

	require.NoError(t, svc.Logout(ctx, active.Token))
	_, err = svc.Resolve(ctx, active.Token)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	// second logout and garbage tokens are no-ops
	require.NoError(t, svc.Logout(ctx, active.Token))
	require.NoError(t, svc.Logout(ctx, "garbage"))
	require.NoError(t, svc.Logout(ctx, ""))
}

func TestResolveRejectsBadTokens(t *testing.T) {
	svc, _, req := newTestService(t)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "")
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.Resolve(ctx, "not.a.jwt")
	require.ErrorIs(t, err, ErrNotAuthenticated)

	// signed with a different key
	other := NewManager("another-secret-0123456789")
	now := time.Now()
	forged, err := other.GenerateSessionToken("sid", "uid", req.Email, true, now, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, forged)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	// valid signature but no server-side record
	orphan, err := svc.tokens.GenerateSessionToken("sid", "uid", req.Email, false, now, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, orphan)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestResolveDropsSessionOfDeletedUser(t *testing.T) {
	svc, store, req := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, req)
	require.NoError(t, err)
	sess, err := svc.Authenticate(ctx, req.Email, req.Password)
	require.NoError(t, err)
	active, err := svc.Login(ctx, sess, true)
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, u.ID))

	_, err = svc.Resolve(ctx, active.Token)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.sessions.Get(ctx, active.ID)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestRegisterRunsHookOnSuccessOnly(t *testing.T) {
	svc, _, req := newTestService(t)

	var registered []string
	svc.opts.OnRegister = func(_ context.Context, u user.User) { registered = append(registered, u.ID) }

	u, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, []string{u.ID}, registered)
}
