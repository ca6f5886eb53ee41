package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/skill"
	"github.com/geocoder89/projecthub/internal/domain/user"
)

func (s *Store) CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	if err := req.Validate(); err != nil {
		return user.User{}, err
	}

	u := user.NewFromCreateRequest(req)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range u.Skills {
		if _, ok := s.skills[slot.SkillID]; !ok {
			return user.User{}, user.ErrInvalidSkillRef
		}
	}

	if _, taken := s.emails[u.Email]; taken {
		return user.User{}, user.ErrDuplicateEmail
	}

	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	if err := req.Validate(); err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.Apply(req)
	s.users[id] = u
	return u, nil
}

// DeleteUser removes the user and every membership row that names them.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}

	for _, roster := range s.members {
		delete(roster, id)
	}
	delete(s.emails, u.Email)
	delete(s.users, id)
	return nil
}

func (s *Store) SetSkillSlot(ctx context.Context, userID string, slot int, value user.SkillSlot) (user.User, error) {
	if err := user.ValidateSlot(slot); err != nil {
		return user.User{}, err
	}
	if err := user.ValidateProficiency(value.Proficiency); err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if _, ok := s.skills[value.SkillID]; !ok {
		return user.User{}, skill.ErrNotFound
	}

	u.Skills[slot-1] = value
	s.users[userID] = u
	return u, nil
}

func (s *Store) ListProjectsForUser(ctx context.Context, userID string) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, user.ErrNotFound
	}

	out := make([]project.Project, 0)
	for pid, roster := range s.members {
		if _, in := roster[userID]; in {
			out = append(out, s.projectWithMembers(pid))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
