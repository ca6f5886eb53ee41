// Package catalog holds the career fields and project interests lookup
// entities. Neither is linked to users or projects yet.
package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

type Kind string

const (
	KindField    Kind = "field"
	KindInterest Kind = "interest"
)

var (
	ErrNotFound      = errors.New("catalog entry not found")
	ErrDuplicateName = errors.New("catalog entry name already exists")
	ErrUnknownKind   = errors.New("unknown catalog kind")
	ErrBlankName     = errors.New("catalog entry name is blank")
)

type Entry struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type CreateEntryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=50"`
	Description string `json:"description" binding:"required,max=250"`
	Image       string `json:"image" binding:"omitempty,max=20"`
}

func (req CreateEntryRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrBlankName
	}
	return nil
}

func (k Kind) Valid() bool {
	return k == KindField || k == KindInterest
}

// Table is the backing table name for the kind.
func (k Kind) Table() string {
	switch k {
	case KindField:
		return "csfield"
	case KindInterest:
		return "projectinterests"
	}
	return ""
}

func (k Kind) DefaultImage() string {
	if k == KindField {
		return "csField.jpg"
	}
	return "ProjectInterests.jpg"
}

func NewFromCreateRequest(kind Kind, req CreateEntryRequest) Entry {
	img := req.Image
	if img == "" {
		img = kind.DefaultImage()
	}

	return Entry{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Image:       img,
	}
}
