package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/user"
)

func (s *Store) CreateProject(ctx context.Context, req project.CreateProjectRequest) (project.Project, error) {
	if err := req.Validate(); err != nil {
		return project.Project{}, err
	}

	p := project.NewFromCreateRequest(req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.projectNames[p.Name]; taken {
		return project.Project{}, project.ErrDuplicateName
	}

	p.Members = nil
	s.projects[p.ID] = p
	s.projectNames[p.Name] = p.ID
	s.members[p.ID] = make(map[string]struct{})

	return s.projectWithMembers(p.ID), nil
}

func (s *Store) GetProject(ctx context.Context, id string) (project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[id]; !ok {
		return project.Project{}, project.ErrNotFound
	}
	return s.projectWithMembers(id), nil
}

func (s *Store) GetProjectByName(ctx context.Context, name string) (project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.projectNames[name]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return s.projectWithMembers(id), nil
}

func (s *Store) ListProjects(ctx context.Context) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]project.Project, 0, len(s.projects))
	for id := range s.projects {
		out = append(out, s.projectWithMembers(id))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt) ||
			(out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID)
	})
	return out, nil
}

// DeleteProject removes the project and its roster.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return project.ErrNotFound
	}

	delete(s.members, id)
	delete(s.projectNames, p.Name)
	delete(s.projects, id)
	return nil
}

// AddMember reports whether a new membership row was created.
func (s *Store) AddMember(ctx context.Context, projectID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, ok := s.members[projectID]
	if !ok {
		return false, project.ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return false, user.ErrNotFound
	}

	if _, in := roster[userID]; in {
		return false, nil
	}
	roster[userID] = struct{}{}
	return true, nil
}

// RemoveMember reports whether a membership row was deleted.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, ok := s.members[projectID]
	if !ok {
		return false, project.ErrNotFound
	}

	if _, in := roster[userID]; !in {
		return false, nil
	}
	delete(roster, userID)
	return true, nil
}

func (s *Store) ListMembers(ctx context.Context, projectID string) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roster, ok := s.members[projectID]
	if !ok {
		return nil, project.ErrNotFound
	}

	out := make([]user.User, 0, len(roster))
	for uid := range roster {
		out = append(out, s.users[uid])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// caller holds s.mu
func (s *Store) projectWithMembers(id string) project.Project {
	p := s.projects[id]

	ids := make([]string, 0, len(s.members[id]))
	for uid := range s.members[id] {
		ids = append(ids, uid)
	}
	sort.Strings(ids)
	p.Members = ids
	return p
}
