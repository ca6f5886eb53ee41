package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/projecthub/internal/domain/catalog"
	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/skill"
	"github.com/geocoder89/projecthub/internal/domain/user"
)

// Store is the in-process entity store. One RWMutex guards every table so
// each operation's checks and writes happen as a unit.
type Store struct {
	mu sync.RWMutex

	users  map[string]user.User
	emails map[string]string // normalized email -> user id

	skills     map[string]skill.Skill
	skillNames map[string]string

	projects     map[string]project.Project
	projectNames map[string]string
	// project id -> set of user ids
	members map[string]map[string]struct{}

	catalog      map[catalog.Kind]map[string]catalog.Entry
	catalogNames map[catalog.Kind]map[string]string
}

func NewStore() *Store {
	s := &Store{}
	s.init()
	return s
}

func (s *Store) init() {
	s.users = make(map[string]user.User)
	s.emails = make(map[string]string)
	s.skills = make(map[string]skill.Skill)
	s.skillNames = make(map[string]string)
	s.projects = make(map[string]project.Project)
	s.projectNames = make(map[string]string)
	s.members = make(map[string]map[string]struct{})
	s.catalog = map[catalog.Kind]map[string]catalog.Entry{
		catalog.KindField:    {},
		catalog.KindInterest: {},
	}
	s.catalogNames = map[catalog.Kind]map[string]string{
		catalog.KindField:    {},
		catalog.KindInterest: {},
	}
}

// Reset drops every record.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.init()
	s.mu.Unlock()
	return nil
}

// Skills

func (s *Store) CreateSkill(ctx context.Context, req skill.CreateSkillRequest) (skill.Skill, error) {
	if err := req.Validate(); err != nil {
		return skill.Skill{}, err
	}

	sk := skill.NewFromCreateRequest(req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.skillNames[sk.Name]; taken {
		return skill.Skill{}, skill.ErrDuplicateName
	}

	s.skills[sk.ID] = sk
	s.skillNames[sk.Name] = sk.ID
	return sk, nil
}

func (s *Store) GetSkill(ctx context.Context, id string) (skill.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sk, ok := s.skills[id]
	if !ok {
		return skill.Skill{}, skill.ErrNotFound
	}
	return sk, nil
}

func (s *Store) GetSkillByName(ctx context.Context, name string) (skill.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.skillNames[name]
	if !ok {
		return skill.Skill{}, skill.ErrNotFound
	}
	return s.skills[id], nil
}

func (s *Store) ListSkills(ctx context.Context) ([]skill.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]skill.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Catalog (fields, interests)

func (s *Store) CreateCatalogEntry(ctx context.Context, kind catalog.Kind, req catalog.CreateEntryRequest) (catalog.Entry, error) {
	if !kind.Valid() {
		return catalog.Entry{}, catalog.ErrUnknownKind
	}

	if err := req.Validate(); err != nil {
		return catalog.Entry{}, err
	}

	e := catalog.NewFromCreateRequest(kind, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.catalogNames[kind][e.Name]; taken {
		return catalog.Entry{}, catalog.ErrDuplicateName
	}

	s.catalog[kind][e.ID] = e
	s.catalogNames[kind][e.Name] = e.ID
	return e, nil
}

func (s *Store) GetCatalogEntry(ctx context.Context, kind catalog.Kind, id string) (catalog.Entry, error) {
	if !kind.Valid() {
		return catalog.Entry{}, catalog.ErrUnknownKind
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.catalog[kind][id]
	if !ok {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListCatalog(ctx context.Context, kind catalog.Kind) ([]catalog.Entry, error) {
	if !kind.Valid() {
		return nil, catalog.ErrUnknownKind
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Entry, 0, len(s.catalog[kind]))
	for _, e := range s.catalog[kind] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
