package skill

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const DefaultImage = "skill.jpg"

type Skill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

var (
	ErrNotFound      = errors.New("skill not found")
	ErrDuplicateName = errors.New("skill name already exists")
	ErrBlankName     = errors.New("skill name is blank")
)

type CreateSkillRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=50"`
	Description string `json:"description" binding:"required,max=250"`
	Image       string `json:"image" binding:"omitempty,max=20"`
}

// Validate rejects names that are empty once trimmed.
func (req CreateSkillRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrBlankName
	}
	return nil
}

func NewFromCreateRequest(req CreateSkillRequest) Skill {
	img := req.Image
	if img == "" {
		img = DefaultImage
	}

	return Skill{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Image:       img,
	}
}
