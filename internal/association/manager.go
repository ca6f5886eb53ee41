// Package association maintains project rosters and the fixed skill slots
// on each user.
package association

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/geocoder89/projecthub/internal/observability"
)

type Store interface {
	AddMember(ctx context.Context, projectID, userID string) (bool, error)
	RemoveMember(ctx context.Context, projectID, userID string) (bool, error)
	ListMembers(ctx context.Context, projectID string) ([]user.User, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]project.Project, error)
	SetSkillSlot(ctx context.Context, userID string, slot int, value user.SkillSlot) (user.User, error)
}

// Delta describes the effect of a single membership call.
type Delta struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	Changed   bool   `json:"changed"`
}

type Failure struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// BulkResult reports AddMembers per id. Ids in Added and Unchanged stay
// applied even when others fail.
type BulkResult struct {
	ProjectID string    `json:"projectId"`
	Added     []string  `json:"added"`
	Unchanged []string  `json:"unchanged"`
	Failed    []Failure `json:"failed"`
}

func (r BulkResult) OK() bool {
	return len(r.Failed) == 0
}

type Manager struct {
	store   Store
	log     *slog.Logger
	prom    *observability.Prom
	onAdded func(ctx context.Context, d Delta)
}

func NewManager(store Store, log *slog.Logger, prom *observability.Prom) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, log: log, prom: prom}
}

// AddMember is idempotent: an existing member yields Changed=false.
func (m *Manager) AddMember(ctx context.Context, projectID, userID string) (Delta, error) {
	added, err := m.store.AddMember(ctx, projectID, userID)
	if err != nil {
		return Delta{}, err
	}

	m.prom.ObserveMembership("add", added)
	m.log.DebugContext(ctx, "membership add", "project_id", projectID, "user_id", userID, "changed", added)

	d := Delta{ProjectID: projectID, UserID: userID, Changed: added}
	if added && m.onAdded != nil {
		m.onAdded(ctx, d)
	}
	return d, nil
}

// OnAdded sets a callback for memberships that were actually created.
// Idempotent re-adds do not trigger it. Set it before serving traffic.
func (m *Manager) OnAdded(fn func(ctx context.Context, d Delta)) {
	m.onAdded = fn
}

// AddMembers applies AddMember for each id in order. Nothing is rolled
// back; failures are listed in the result. Only infrastructure errors
// (not missing users/projects) stop the loop and are returned.
func (m *Manager) AddMembers(ctx context.Context, projectID string, userIDs []string) (BulkResult, error) {
	res := BulkResult{
		ProjectID: projectID,
		Added:     []string{},
		Unchanged: []string{},
		Failed:    []Failure{},
	}

	for _, id := range userIDs {
		d, err := m.AddMember(ctx, projectID, id)
		switch {
		case err == nil && d.Changed:
			res.Added = append(res.Added, id)
		case err == nil:
			res.Unchanged = append(res.Unchanged, id)
		case errors.Is(err, user.ErrNotFound), errors.Is(err, project.ErrNotFound):
			res.Failed = append(res.Failed, Failure{UserID: id, Reason: err.Error(), Err: err})
		default:
			return res, err
		}
	}

	return res, nil
}

// RemoveMember is idempotent: removing a non-member is a successful no-op.
func (m *Manager) RemoveMember(ctx context.Context, projectID, userID string) (Delta, error) {
	removed, err := m.store.RemoveMember(ctx, projectID, userID)
	if err != nil {
		return Delta{}, err
	}

	m.prom.ObserveMembership("remove", removed)
	m.log.DebugContext(ctx, "membership remove", "project_id", projectID, "user_id", userID, "changed", removed)

	return Delta{ProjectID: projectID, UserID: userID, Changed: removed}, nil
}

// SetSkillSlot overwrites one of the three slots (1-based). The other two
// are left as they were.
func (m *Manager) SetSkillSlot(ctx context.Context, userID string, slot int, skillID string, proficiency int) (user.User, error) {
	if err := user.ValidateSlot(slot); err != nil {
		return user.User{}, err
	}
	if err := user.ValidateProficiency(proficiency); err != nil {
		return user.User{}, err
	}

	u, err := m.store.SetSkillSlot(ctx, userID, slot, user.SkillSlot{SkillID: skillID, Proficiency: proficiency})
	if err != nil {
		return user.User{}, err
	}

	m.log.DebugContext(ctx, "skill slot set", "user_id", userID, "slot", slot, "skill_id", skillID)
	return u, nil
}

func (m *Manager) Members(ctx context.Context, projectID string) ([]user.User, error) {
	return m.store.ListMembers(ctx, projectID)
}

func (m *Manager) ProjectsOf(ctx context.Context, userID string) ([]project.Project, error) {
	return m.store.ListProjectsForUser(ctx, userID)
}
