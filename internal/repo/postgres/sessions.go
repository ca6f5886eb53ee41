package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/geocoder89/projecthub/internal/session"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionsRepo is the Postgres session.Store. Logout revokes the row
// instead of deleting it so the history stays queryable.
type SessionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSessionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{pool: pool, prom: prom}
}

func (r *SessionsRepo) Save(ctx context.Context, rec session.Record) error {
	return r.prom.ObserveDB("sessions.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO user_session (id, user_id, token_hash, remember, expires_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			`,
			rec.ID, rec.UserID, rec.TokenHash, rec.Remember, rec.ExpiresAt, rec.CreatedAt,
		)
		return err
	})
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (session.Record, error) {
	if !validID(id) {
		return session.Record{}, session.ErrNotFound
	}

	var rec session.Record

	err := r.prom.ObserveDB("sessions.get", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, user_id, token_hash, remember, expires_at, created_at
			FROM user_session
			WHERE id = $1 AND revoked_at IS NULL AND expires_at > NOW()
		`, id).Scan(
			&rec.ID,
			&rec.UserID,
			&rec.TokenHash,
			&rec.Remember,
			&rec.ExpiresAt,
			&rec.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Record{}, session.ErrNotFound
		}

		return session.Record{}, err
	}

	return rec, nil
}

func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}

	return r.prom.ObserveDB("sessions.revoke", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE user_session
			SET revoked_at = NOW()
			WHERE id = $1 AND revoked_at IS NULL
		`, id)
		return err
	})
}
