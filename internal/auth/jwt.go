package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeSession = "session"

type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Moderator bool   `json:"mod"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// SessionID is the jti, which keys the server-side session record.
func (c *Claims) SessionID() string {
	return c.ID
}

type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

func (m *Manager) GenerateSessionToken(sessionID, userID, email string, moderator bool, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID:    userID,
		Email:     email,
		Moderator: moderator,
		TokenType: tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) ParseAndValidate(tokenStr string) (claims *Claims, err error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return
	}
	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		err = errors.New("invalid token")
		return
	}
	return
}

func (m *Manager) VerifySessionToken(tokenStr string) (*Claims, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeSession {
		return nil, errors.New("invalid token type")
	}
	if claims.ID == "" {
		return nil, errors.New("missing jti")
	}
	return claims, nil
}

// Deterministic HMAC hash (server-side pepper = JWT secret bytes).
// Stored with the session so a record only accepts the token it was issued with.
func (m *Manager) HashToken(raw string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}
