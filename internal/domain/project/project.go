package project

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultImage = "project.jpg"

type Project struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Image         string     `json:"image"`
	CreatedAt     time.Time  `json:"createdAt"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	TargetEndDate *time.Time `json:"targetEndDate,omitempty"`
	// member user ids, sorted on read. storage has no order.
	Members []string `json:"members"`
}

// Membership is the (user, project) pair. It carries no payload.
type Membership struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}

var (
	ErrNotFound      = errors.New("project not found")
	ErrDuplicateName = errors.New("project name already exists")
	ErrInvalidDates  = errors.New("target end date is before start date")
	ErrBlankName     = errors.New("project name is blank")
)

type CreateProjectRequest struct {
	Name          string     `json:"name" binding:"required,min=1,max=250"`
	Description   string     `json:"description" binding:"required,max=500"`
	Image         string     `json:"image" binding:"omitempty,max=20"`
	StartDate     *time.Time `json:"startDate"`
	TargetEndDate *time.Time `json:"targetEndDate"`
}

func (req CreateProjectRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrBlankName
	}
	if req.StartDate != nil && req.TargetEndDate != nil && req.TargetEndDate.Before(*req.StartDate) {
		return ErrInvalidDates
	}
	return nil
}

func NewFromCreateRequest(req CreateProjectRequest) Project {
	img := req.Image
	if img == "" {
		img = DefaultImage
	}

	return Project{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Image:         img,
		CreatedAt:     time.Now().UTC(),
		StartDate:     utcPtr(req.StartDate),
		TargetEndDate: utcPtr(req.TargetEndDate),
		Members:       []string{},
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
