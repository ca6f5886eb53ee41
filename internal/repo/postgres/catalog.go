package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/projecthub/internal/domain/catalog"
	"github.com/jackc/pgx/v5"
)

// kind.Table() only ever returns one of two fixed names, so it is safe
// to splice into SQL.

func (s *Store) CreateCatalogEntry(ctx context.Context, kind catalog.Kind, req catalog.CreateEntryRequest) (e catalog.Entry, err error) {
	if !kind.Valid() {
		return catalog.Entry{}, catalog.ErrUnknownKind
	}

	if err = req.Validate(); err != nil {
		return catalog.Entry{}, err
	}

	table := kind.Table()
	e = catalog.NewFromCreateRequest(kind, req)

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		qerr := s.observe(table+".create.duplicate_check", func() error {
			return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE name = $1)`, e.Name).Scan(&exists)
		})
		if qerr != nil {
			return qerr
		}
		if exists {
			return catalog.ErrDuplicateName
		}

		return s.observe(table+".create.insert", func() error {
			_, qerr := tx.Exec(ctx,
				`INSERT INTO `+table+` (id, name, description, image) VALUES ($1,$2,$3,$4)`,
				e.ID, e.Name, e.Description, e.Image,
			)
			return qerr
		})
	})

	if err != nil {
		if IsUniqueViolation(err, table+"_name_uniq") {
			err = catalog.ErrDuplicateName
		}
		return catalog.Entry{}, err
	}
	return e, nil
}

func (s *Store) GetCatalogEntry(ctx context.Context, kind catalog.Kind, id string) (catalog.Entry, error) {
	if !kind.Valid() {
		return catalog.Entry{}, catalog.ErrUnknownKind
	}
	if !validID(id) {
		return catalog.Entry{}, catalog.ErrNotFound
	}

	e := catalog.Entry{Kind: kind}
	err := s.observe(kind.Table()+".get_by_id", func() error {
		return s.pool.QueryRow(ctx,
			`SELECT id, name, description, image FROM `+kind.Table()+` WHERE id = $1`, id,
		).Scan(&e.ID, &e.Name, &e.Description, &e.Image)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Entry{}, err
	}
	return e, nil
}

func (s *Store) ListCatalog(ctx context.Context, kind catalog.Kind) ([]catalog.Entry, error) {
	if !kind.Valid() {
		return nil, catalog.ErrUnknownKind
	}

	var rows pgx.Rows
	err := s.observe(kind.Table()+".list", func() error {
		var qerr error
		rows, qerr = s.pool.Query(ctx, `SELECT id, name, description, image FROM `+kind.Table()+` ORDER BY name ASC`)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.Entry, 0)
	for rows.Next() {
		e := catalog.Entry{Kind: kind}
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Image); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
