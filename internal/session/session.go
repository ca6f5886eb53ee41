// Package session keeps the server-side record of logged-in sessions.
// A session token is only honoured while its record is present here.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"tokenHash"`
	Remember  bool      `json:"remember"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store implementations must return ErrNotFound for missing, expired and
// deleted records, and treat Delete of an unknown id as success.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}
