package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Resetter drops and recreates the schema. *db.Migrator satisfies it.
type Resetter interface {
	Reset() error
}

// Store is the Postgres entity store. Every write runs in its own
// transaction so the uniqueness/reference checks and the insert commit
// together; unique indexes back the checks up under concurrency.
type Store struct {
	pool   *pgxpool.Pool
	prom   *observability.Prom
	schema Resetter
}

func NewStore(pool *pgxpool.Pool, prom *observability.Prom, schema Resetter) *Store {
	return &Store{pool: pool, prom: prom, schema: schema}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) observe(op string, fn func() error) error {
	return s.prom.ObserveDB(op, fn)
}

// implementation of the transaction helper using the "named return and defer" approach
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = fn(tx)
	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

// Reset drops every table and re-applies the migrations.
func (s *Store) Reset(ctx context.Context) error {
	if s.schema == nil {
		return errors.New("postgres store: no schema resetter configured")
	}
	return s.schema.Reset()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// ids are uuids; anything else cannot match a row and would make
// Postgres fail with invalid_text_representation.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
