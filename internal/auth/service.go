package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/geocoder89/projecthub/internal/security"
	"github.com/geocoder89/projecthub/internal/session"
	"github.com/google/uuid"
)

var (
	// one outcome for unknown email and wrong password alike
	ErrInvalidCredentials = errors.New("email/password combination invalid")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

type UserStore interface {
	CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

type RegisterRequest struct {
	Email     string                         `json:"email" binding:"required,email,max=120"`
	Password  string                         `json:"password" binding:"required,min=8,max=72"`
	FirstName string                         `json:"firstName" binding:"required,min=1,max=20"`
	LastName  string                         `json:"lastName" binding:"required,min=1,max=20"`
	Skills    [user.SlotCount]user.SkillSlot `json:"skills" binding:"required,dive"`
}

// Session is a verified identity that has not been logged in yet.
type Session struct {
	UserID          string    `json:"userId"`
	Email           string    `json:"email"`
	Moderator       bool      `json:"isModerator"`
	AuthenticatedAt time.Time `json:"authenticatedAt"`
}

// ActiveSession is a logged-in session with its bearer token.
type ActiveSession struct {
	ID        string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Moderator bool      `json:"isModerator"`
	Remember  bool      `json:"remember"`
	ExpiresAt time.Time `json:"expiresAt"`
	Token     string    `json:"token"`
}

type Options struct {
	SessionTTL  time.Duration
	RememberTTL time.Duration
	// OnRegister runs after an account is created. It must not block.
	OnRegister func(ctx context.Context, u user.User)
}

type Service struct {
	users    UserStore
	sessions session.Store
	tokens   *Manager
	opts     Options
	log      *slog.Logger
	prom     *observability.Prom
	now      func() time.Time
}

func NewService(users UserStore, sessions session.Store, tokens *Manager, opts Options, log *slog.Logger, prom *observability.Prom) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.RememberTTL < opts.SessionTTL {
		opts.RememberTTL = opts.SessionTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		opts:     opts,
		log:      log,
		prom:     prom,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates the account. Only the bcrypt hash of the password is kept.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (user.User, error) {
	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, user.CreateUserRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Skills:       req.Skills,
	})
	if err != nil {
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)
	if s.opts.OnRegister != nil {
		s.opts.OnRegister(ctx, u)
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return Session{}, err
		}
		security.BurnCompare(password)
		s.prom.ObserveAuth(false)
		return Session{}, ErrInvalidCredentials
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		s.prom.ObserveAuth(false)
		return Session{}, ErrInvalidCredentials
	}

	s.prom.ObserveAuth(true)

	return Session{
		UserID:          u.ID,
		Email:           u.Email,
		Moderator:       u.IsModerator,
		AuthenticatedAt: s.now(),
	}, nil
}

// Login activates an authenticated session. remember stretches the
// lifetime from SessionTTL to RememberTTL.
func (s *Service) Login(ctx context.Context, sess Session, remember bool) (ActiveSession, error) {
	if sess.UserID == "" {
		return ActiveSession{}, ErrNotAuthenticated
	}

	now := s.now()
	ttl := s.opts.SessionTTL
	if remember {
		ttl = s.opts.RememberTTL
	}

	active := ActiveSession{
		ID:        uuid.NewString(),
		UserID:    sess.UserID,
		Email:     sess.Email,
		Moderator: sess.Moderator,
		Remember:  remember,
		ExpiresAt: now.Add(ttl),
	}

	token, err := s.tokens.GenerateSessionToken(active.ID, active.UserID, active.Email, active.Moderator, now, active.ExpiresAt)
	if err != nil {
		return ActiveSession{}, fmt.Errorf("sign session token: %w", err)
	}
	active.Token = token

	err = s.sessions.Save(ctx, session.Record{
		ID:        active.ID,
		UserID:    active.UserID,
		TokenHash: s.tokens.HashToken(token),
		Remember:  remember,
		ExpiresAt: active.ExpiresAt,
		CreatedAt: now,
	})
	if err != nil {
		return ActiveSession{}, fmt.Errorf("store session: %w", err)
	}

	s.log.InfoContext(ctx, "session started", "user_id", active.UserID, "session_id", active.ID, "remember", remember)
	return active, nil
}

// Resolve maps a bearer token back to its live session.
func (s *Service) Resolve(ctx context.Context, token string) (ActiveSession, error) {
	if token == "" {
		return ActiveSession{}, ErrNotAuthenticated
	}

	claims, err := s.tokens.VerifySessionToken(token)
	if err != nil {
		return ActiveSession{}, ErrNotAuthenticated
	}

	rec, err := s.sessions.Get(ctx, claims.SessionID())
	if errors.Is(err, session.ErrNotFound) {
		return ActiveSession{}, ErrNotAuthenticated
	}
	if err != nil {
		return ActiveSession{}, err
	}

	// verify hash matches the presented token (prevents token substitution)
	if subtle.ConstantTimeCompare([]byte(rec.TokenHash), []byte(s.tokens.HashToken(token))) != 1 || rec.UserID != claims.UserID {
		return ActiveSession{}, ErrNotAuthenticated
	}

	u, err := s.users.GetUser(ctx, rec.UserID)
	if errors.Is(err, user.ErrNotFound) {
		_ = s.sessions.Delete(ctx, rec.ID)
		return ActiveSession{}, ErrNotAuthenticated
	}
	if err != nil {
		return ActiveSession{}, err
	}

	return ActiveSession{
		ID:        rec.ID,
		UserID:    u.ID,
		Email:     u.Email,
		Moderator: u.IsModerator,
		Remember:  rec.Remember,
		ExpiresAt: rec.ExpiresAt,
		Token:     token,
	}, nil
}

// Logout ends the session behind token. Unknown, expired or malformed
// tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ParseAndValidate(token)
	if err != nil || claims.TokenType != tokenTypeSession || claims.ID == "" {
		return nil
	}

	if err := s.sessions.Delete(ctx, claims.SessionID()); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.log.InfoContext(ctx, "session ended", "user_id", claims.UserID, "session_id", claims.ID)
	return nil
}
