package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	projectColumns         = `id, name, description, image, creation_timestamp, start_date, target_end_date`
	projectColumnsPrefixed = `p.id, p.name, p.description, p.image, p.creation_timestamp, p.start_date, p.target_end_date`
)

func scanProject(row pgx.Row) (project.Project, error) {
	var p project.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.CreatedAt, &p.StartDate, &p.TargetEndDate)
	p.Members = []string{}
	return p, err
}

func collectProjects(rows pgx.Rows) ([]project.Project, error) {
	defer rows.Close()

	out := make([]project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// attachMembers fills Members for every project in one query.
func (s *Store) attachMembers(ctx context.Context, q querier, projects []project.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]string, 0, len(projects))
	index := make(map[string]int, len(projects))
	for i, p := range projects {
		ids = append(ids, p.ID)
		index[p.ID] = i
	}

	var rows pgx.Rows
	err := s.observe("projects.members_for", func() error {
		var e error
		rows, e = q.Query(ctx, `
			SELECT project_id, user_id
			FROM userproject
			WHERE project_id = ANY($1::uuid[])
			ORDER BY project_id, user_id
		`, ids)
		return e
	})
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pid, uid string
		if err := rows.Scan(&pid, &uid); err != nil {
			return err
		}
		i := index[pid]
		projects[i].Members = append(projects[i].Members, uid)
	}
	return rows.Err()
}

func (s *Store) CreateProject(ctx context.Context, req project.CreateProjectRequest) (p project.Project, err error) {
	if err = req.Validate(); err != nil {
		return project.Project{}, err
	}

	p = project.NewFromCreateRequest(req)

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		e := s.observe("projects.create.duplicate_check", func() error {
			return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM project WHERE name = $1)`, p.Name).Scan(&exists)
		})
		if e != nil {
			return e
		}
		if exists {
			return project.ErrDuplicateName
		}

		return s.observe("projects.create.insert", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO project (`+projectColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				p.ID, p.Name, p.Description, p.Image, p.CreatedAt, p.StartDate, p.TargetEndDate,
			)
			return e
		})
	})

	if err != nil {
		if IsUniqueViolation(err, "project_name_uniq") {
			err = project.ErrDuplicateName
		}
		return project.Project{}, err
	}
	return p, nil
}

func (s *Store) getProject(ctx context.Context, op, where string, arg any) (project.Project, error) {
	var p project.Project
	err := s.observe(op, func() error {
		var e error
		p, e = scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM project WHERE `+where, arg))
		return e
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return project.Project{}, project.ErrNotFound
	}
	if err != nil {
		return project.Project{}, err
	}

	list := []project.Project{p}
	if err := s.attachMembers(ctx, s.pool, list); err != nil {
		return project.Project{}, err
	}
	return list[0], nil
}

func (s *Store) GetProject(ctx context.Context, id string) (project.Project, error) {
	if !validID(id) {
		return project.Project{}, project.ErrNotFound
	}
	return s.getProject(ctx, "projects.get_by_id", "id = $1", id)
}

func (s *Store) GetProjectByName(ctx context.Context, name string) (project.Project, error) {
	return s.getProject(ctx, "projects.get_by_name", "name = $1", name)
}

func (s *Store) ListProjects(ctx context.Context) ([]project.Project, error) {
	var rows pgx.Rows
	err := s.observe("projects.list", func() error {
		var e error
		rows, e = s.pool.Query(ctx, `SELECT `+projectColumns+` FROM project ORDER BY creation_timestamp ASC, id ASC`)
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

// DeleteProject removes the project; its userproject rows cascade.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if !validID(id) {
		return project.ErrNotFound
	}

	var tag pgconn.CommandTag
	err := s.observe("projects.delete", func() error {
		var e error
		tag, e = s.pool.Exec(ctx, `DELETE FROM project WHERE id = $1`, id)
		return e
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return project.ErrNotFound
	}
	return nil
}

// lockProject takes a share lock so the project cannot be deleted
// while a membership row referencing it is written.
func (s *Store) lockProject(ctx context.Context, tx pgx.Tx, op, projectID string) error {
	var id string
	err := s.observe(op, func() error {
		return tx.QueryRow(ctx, `SELECT id FROM project WHERE id = $1 FOR SHARE`, projectID).Scan(&id)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return project.ErrNotFound
	}
	return err
}

// AddMember reports whether a new userproject row was inserted.
func (s *Store) AddMember(ctx context.Context, projectID, userID string) (added bool, err error) {
	if !validID(projectID) {
		return false, project.ErrNotFound
	}
	if !validID(userID) {
		return false, user.ErrNotFound
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if e := s.lockProject(ctx, tx, "memberships.add.project_lock", projectID); e != nil {
			return e
		}

		var id string
		e := s.observe("memberships.add.user_lock", func() error {
			return tx.QueryRow(ctx, `SELECT id FROM "user" WHERE id = $1 FOR SHARE`, userID).Scan(&id)
		})
		if errors.Is(e, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		if e != nil {
			return e
		}

		return s.observe("memberships.add.insert", func() error {
			tag, e := tx.Exec(ctx, `
				INSERT INTO userproject (user_id, project_id)
				VALUES ($1, $2)
				ON CONFLICT (user_id, project_id) DO NOTHING
			`, userID, projectID)
			added = tag.RowsAffected() == 1
			return e
		})
	})

	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveMember reports whether a userproject row was deleted.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID string) (removed bool, err error) {
	if !validID(projectID) {
		return false, project.ErrNotFound
	}
	if !validID(userID) {
		// cannot be a member
		_, err = s.GetProject(ctx, projectID)
		return false, err
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if e := s.lockProject(ctx, tx, "memberships.remove.project_lock", projectID); e != nil {
			return e
		}

		return s.observe("memberships.remove.delete", func() error {
			tag, e := tx.Exec(ctx, `DELETE FROM userproject WHERE user_id = $1 AND project_id = $2`, userID, projectID)
			removed = tag.RowsAffected() == 1
			return e
		})
	})

	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *Store) ListMembers(ctx context.Context, projectID string) ([]user.User, error) {
	if !validID(projectID) {
		return nil, project.ErrNotFound
	}

	// in the event i want a 404 if the project itself does not exist
	var id string
	err := s.observe("memberships.list.check_project_exists", func() error {
		return s.pool.QueryRow(ctx, `SELECT id FROM project WHERE id = $1`, projectID).Scan(&id)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, project.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rows pgx.Rows
	err = s.observe("memberships.list", func() error {
		var e error
		rows, e = s.pool.Query(ctx, `
			SELECT u.id, u.first_name, u.last_name, u.email, u.password_hash, u.profile_image, u.date_joined, u.is_moderator,
				u.skill_id_1, u.skill_proficiency_1, u.skill_id_2, u.skill_proficiency_2, u.skill_id_3, u.skill_proficiency_3
			FROM "user" u
			JOIN userproject up ON up.user_id = u.id
			WHERE up.project_id = $1
			ORDER BY u.last_name ASC, u.id ASC
		`, projectID)
		return e
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
