package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/skill"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, first_name, last_name, email, password_hash, profile_image, date_joined, is_moderator,
	skill_id_1, skill_proficiency_1, skill_id_2, skill_proficiency_2, skill_id_3, skill_proficiency_3`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.ProfileImage,
		&u.DateJoined,
		&u.IsModerator,
		&u.Skills[0].SkillID,
		&u.Skills[0].Proficiency,
		&u.Skills[1].SkillID,
		&u.Skills[1].Proficiency,
		&u.Skills[2].SkillID,
		&u.Skills[2].Proficiency,
	)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, req user.CreateUserRequest) (u user.User, err error) {
	if err = req.Validate(); err != nil {
		return user.User{}, err
	}

	u = user.NewFromCreateRequest(req)

	distinct := make([]string, 0, user.SlotCount)
	seen := make(map[string]struct{}, user.SlotCount)
	for _, slot := range u.Skills {
		if !validID(slot.SkillID) {
			return user.User{}, user.ErrInvalidSkillRef
		}
		if _, dup := seen[slot.SkillID]; !dup {
			seen[slot.SkillID] = struct{}{}
			distinct = append(distinct, slot.SkillID)
		}
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		// 1) every slot must resolve to a committed skill
		var found int
		e := s.observe("users.create.skill_check", func() error {
			return tx.QueryRow(ctx, `SELECT COUNT(*) FROM skill WHERE id = ANY($1::uuid[])`, distinct).Scan(&found)
		})
		if e != nil {
			return e
		}
		if found != len(distinct) {
			return user.ErrInvalidSkillRef
		}

		// 2) email uniqueness, the unique index catches concurrent inserts
		var exists bool
		e = s.observe("users.create.duplicate_check", func() error {
			return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM "user" WHERE email = $1)`, u.Email).Scan(&exists)
		})
		if e != nil {
			return e
		}
		if exists {
			return user.ErrDuplicateEmail
		}

		return s.observe("users.create.insert", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO "user" (`+userColumns+`)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
				u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.ProfileImage, u.DateJoined, u.IsModerator,
				u.Skills[0].SkillID, u.Skills[0].Proficiency,
				u.Skills[1].SkillID, u.Skills[1].Proficiency,
				u.Skills[2].SkillID, u.Skills[2].Proficiency,
			)
			return e
		})
	})

	if err != nil {
		switch {
		case IsUniqueViolation(err, "user_email_uniq"):
			err = user.ErrDuplicateEmail
		case isForeignKeyViolation(err):
			err = user.ErrInvalidSkillRef
		}
		return user.User{}, err
	}

	return u, nil
}

func (s *Store) getUser(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User
	err := s.observe(op, func() error {
		var e error
		u, e = scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM "user" WHERE `+where, arg))
		return e
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	if !validID(id) {
		return user.User{}, user.ErrNotFound
	}
	return s.getUser(ctx, "users.get_by_id", "id = $1", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.getUser(ctx, "users.get_by_email", "email = $1", user.NormalizeEmail(email))
}

func (s *Store) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (u user.User, err error) {
	if err = req.Validate(); err != nil {
		return user.User{}, err
	}
	if !validID(id) {
		return user.User{}, user.ErrNotFound
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		e := s.observe("users.update_profile.lock", func() error {
			var e error
			u, e = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = $1 FOR UPDATE`, id))
			return e
		})
		if errors.Is(e, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		if e != nil {
			return e
		}

		u.Apply(req)

		return s.observe("users.update_profile.update", func() error {
			_, e := tx.Exec(ctx,
				`UPDATE "user" SET first_name = $2, last_name = $3, profile_image = $4 WHERE id = $1`,
				u.ID, u.FirstName, u.LastName, u.ProfileImage,
			)
			return e
		})
	})

	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// DeleteUser removes the user; userproject rows go with it (ON DELETE CASCADE).
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return user.ErrNotFound
	}

	var tag pgconn.CommandTag
	err := s.observe("users.delete", func() error {
		var e error
		tag, e = s.pool.Exec(ctx, `DELETE FROM "user" WHERE id = $1`, id)
		return e
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *Store) SetSkillSlot(ctx context.Context, userID string, slot int, value user.SkillSlot) (u user.User, err error) {
	if err = user.ValidateSlot(slot); err != nil {
		return user.User{}, err
	}
	if err = user.ValidateProficiency(value.Proficiency); err != nil {
		return user.User{}, err
	}
	if !validID(userID) {
		return user.User{}, user.ErrNotFound
	}
	if !validID(value.SkillID) {
		return user.User{}, skill.ErrNotFound
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		// lock the user row so concurrent slot writes serialize
		var locked string
		e := s.observe("users.set_skill_slot.lock", func() error {
			return tx.QueryRow(ctx, `SELECT id FROM "user" WHERE id = $1 FOR UPDATE`, userID).Scan(&locked)
		})
		if errors.Is(e, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		if e != nil {
			return e
		}

		var exists bool
		e = s.observe("users.set_skill_slot.skill_check", func() error {
			return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM skill WHERE id = $1)`, value.SkillID).Scan(&exists)
		})
		if e != nil {
			return e
		}
		if !exists {
			return skill.ErrNotFound
		}

		// slot is validated to 1..3 above, so the column names are fixed
		q := fmt.Sprintf(
			`UPDATE "user" SET skill_id_%[1]d = $2, skill_proficiency_%[1]d = $3 WHERE id = $1 RETURNING `+userColumns,
			slot,
		)
		return s.observe("users.set_skill_slot.update", func() error {
			var e error
			u, e = scanUser(tx.QueryRow(ctx, q, userID, value.SkillID, value.Proficiency))
			return e
		})
	})

	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) ListProjectsForUser(ctx context.Context, userID string) ([]project.Project, error) {
	if !validID(userID) {
		return nil, user.ErrNotFound
	}

	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	var rows pgx.Rows
	err := s.observe("users.list_projects", func() error {
		var e error
		rows, e = s.pool.Query(ctx, `
			SELECT `+projectColumnsPrefixed+`
			FROM project p
			JOIN userproject up ON up.project_id = p.id
			WHERE up.user_id = $1
			ORDER BY p.name ASC
		`, userID)
		return e
	})
	if err != nil {
		return nil, err
	}

	projects, err := collectProjects(rows)
	if err != nil {
		return nil, err
	}

	return projects, s.attachMembers(ctx, s.pool, projects)
}
