package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/projecthub/internal/domain/skill"
	"github.com/jackc/pgx/v5"
)

const skillColumns = `id, name, description, image`

func scanSkill(row pgx.Row) (skill.Skill, error) {
	var sk skill.Skill
	err := row.Scan(&sk.ID, &sk.Name, &sk.Description, &sk.Image)
	return sk, err
}

func (s *Store) CreateSkill(ctx context.Context, req skill.CreateSkillRequest) (sk skill.Skill, err error) {
	if err = req.Validate(); err != nil {
		return skill.Skill{}, err
	}

	sk = skill.NewFromCreateRequest(req)

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		var exists bool

		e := s.observe("skills.create.duplicate_check", func() error {
			return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM skill WHERE name = $1)`, sk.Name).Scan(&exists)
		})
		if e != nil {
			return e
		}
		if exists {
			return skill.ErrDuplicateName
		}

		return s.observe("skills.create.insert", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO skill (id, name, description, image) VALUES ($1,$2,$3,$4)`,
				sk.ID, sk.Name, sk.Description, sk.Image,
			)
			return e
		})
	})

	if err != nil {
		if IsUniqueViolation(err, "skill_name_uniq") {
			err = skill.ErrDuplicateName
		}
		return skill.Skill{}, err
	}
	return sk, nil
}

func (s *Store) GetSkill(ctx context.Context, id string) (skill.Skill, error) {
	if !validID(id) {
		return skill.Skill{}, skill.ErrNotFound
	}

	var sk skill.Skill
	err := s.observe("skills.get_by_id", func() error {
		var e error
		sk, e = scanSkill(s.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skill WHERE id = $1`, id))
		return e
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return skill.Skill{}, skill.ErrNotFound
	}
	return sk, err
}

func (s *Store) GetSkillByName(ctx context.Context, name string) (skill.Skill, error) {
	var sk skill.Skill
	err := s.observe("skills.get_by_name", func() error {
		var e error
		sk, e = scanSkill(s.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skill WHERE name = $1`, name))
		return e
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return skill.Skill{}, skill.ErrNotFound
	}
	return sk, err
}

func (s *Store) ListSkills(ctx context.Context) ([]skill.Skill, error) {
	var rows pgx.Rows
	err := s.observe("skills.list", func() error {
		var e error
		rows, e = s.pool.Query(ctx, `SELECT `+skillColumns+` FROM skill ORDER BY name ASC`)
		return e
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]skill.Skill, 0)
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sk)
	}
	return out, rows.Err()
}
