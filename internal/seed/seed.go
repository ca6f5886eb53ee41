// Package seed resets storage and loads the demo dataset.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/projecthub/internal/association"
	"github.com/geocoder89/projecthub/internal/domain/catalog"
	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/skill"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/geocoder89/projecthub/internal/security"
)

type Store interface {
	Reset(ctx context.Context) error
	CreateSkill(ctx context.Context, req skill.CreateSkillRequest) (skill.Skill, error)
	ListSkills(ctx context.Context) ([]skill.Skill, error)
	CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	CreateProject(ctx context.Context, req project.CreateProjectRequest) (project.Project, error)
	CreateCatalogEntry(ctx context.Context, kind catalog.Kind, req catalog.CreateEntryRequest) (catalog.Entry, error)
}

// Members is the roster side of the association manager.
type Members interface {
	AddMember(ctx context.Context, projectID, userID string) (association.Delta, error)
}

type Seeder struct {
	store    Store
	members  Members
	password string
	log      *slog.Logger
}

// New builds a seeder. Seeded users all get password so the demo
// accounts can log in.
func New(store Store, members Members, password string, log *slog.Logger) *Seeder {
	if log == nil {
		log = slog.Default()
	}
	return &Seeder{store: store, members: members, password: password, log: log}
}

// Reset destructively drops and recreates all entity storage.
func (s *Seeder) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.log.WarnContext(ctx, "storage reset")
	return nil
}

// Bootstrap is Reset followed by Seed.
func (s *Seeder) Bootstrap(ctx context.Context) error {
	if err := s.Reset(ctx); err != nil {
		return err
	}
	return s.Seed(ctx)
}

// Seed inserts the sample dataset into freshly reset storage. Each record
// is committed before anything that references it. A failure leaves the
// earlier steps applied.
func (s *Seeder) Seed(ctx context.Context) error {
	skills := make(map[string]string, len(sampleSkills))
	for _, req := range sampleSkills {
		sk, err := s.store.CreateSkill(ctx, req)
		if err != nil {
			return fmt.Errorf("seed skill %q: %w", req.Name, err)
		}
		skills[sk.Name] = sk.ID
	}

	hash, err := security.HashPassword(s.password)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}

	users := make(map[string]string, len(sampleUsers))
	for _, su := range sampleUsers {
		var slots [user.SlotCount]user.SkillSlot
		for i, pick := range su.skills {
			id, ok := skills[pick.name]
			if !ok {
				return fmt.Errorf("seed user %q: unknown skill %q", su.email, pick.name)
			}
			slots[i] = user.SkillSlot{SkillID: id, Proficiency: pick.proficiency}
		}

		u, err := s.store.CreateUser(ctx, user.CreateUserRequest{
			FirstName:    su.first,
			LastName:     su.last,
			Email:        su.email,
			PasswordHash: hash,
			Skills:       slots,
		})
		if err != nil {
			return fmt.Errorf("seed user %q: %w", su.email, err)
		}
		users[su.email] = u.ID
	}

	for _, sp := range sampleProjects {
		p, err := s.store.CreateProject(ctx, project.CreateProjectRequest{
			Name:        sp.name,
			Description: sp.desc,
		})
		if err != nil {
			return fmt.Errorf("seed project %q: %w", sp.name, err)
		}

		for _, email := range sp.members {
			if _, err := s.members.AddMember(ctx, p.ID, users[email]); err != nil {
				return fmt.Errorf("seed membership %q -> %q: %w", email, sp.name, err)
			}
		}
	}

	for _, se := range sampleCatalog {
		if _, err := s.store.CreateCatalogEntry(ctx, se.kind, se.req); err != nil {
			return fmt.Errorf("seed %s %q: %w", se.kind, se.req.Name, err)
		}
	}

	s.log.InfoContext(ctx, "sample data seeded",
		"skills", len(sampleSkills),
		"users", len(sampleUsers),
		"projects", len(sampleProjects),
		"catalog", len(sampleCatalog),
	)
	return nil
}

type Moderator struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

var ErrNoSkills = errors.New("no skills in storage, bootstrap first")

// EnsureModerator creates the moderator account when it is configured and
// missing. The moderator needs three skill slots like everyone else, so
// it takes the first skill by name.
func (s *Seeder) EnsureModerator(ctx context.Context, m Moderator) error {
	if m.Email == "" || m.Password == "" {
		return nil
	}

	// check if the user exists
	_, err := s.store.GetUserByEmail(ctx, m.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(m.Password)
	if err != nil {
		return err
	}

	skills, err := s.store.ListSkills(ctx)
	if err != nil {
		return err
	}
	if len(skills) == 0 {
		return ErrNoSkills
	}

	slot := user.SkillSlot{SkillID: skills[0].ID, Proficiency: user.MaxProficiency}
	u, err := s.store.CreateUser(ctx, user.CreateUserRequest{
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		PasswordHash: hash,
		IsModerator:  true,
		Skills:       [user.SlotCount]user.SkillSlot{slot, slot, slot},
	})
	if err != nil {
		return fmt.Errorf("create moderator: %w", err)
	}

	s.log.InfoContext(ctx, "moderator created", "user_id", u.ID)
	return nil
}
