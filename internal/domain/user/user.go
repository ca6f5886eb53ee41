package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SlotCount      = 3
	MinProficiency = 1
	MaxProficiency = 5

	DefaultProfileImage = "profile.jpg"
)

type SkillSlot struct {
	SkillID     string `json:"skillId" binding:"required"`
	Proficiency int    `json:"proficiency" binding:"required,min=1,max=5"`
}

type User struct {
	ID           string               `json:"id"`
	FirstName    string               `json:"firstName"`
	LastName     string               `json:"lastName"`
	Email        string               `json:"email"`
	PasswordHash string               `json:"-"` // never expose hash in JSON
	ProfileImage string               `json:"profileImage"`
	DateJoined   time.Time            `json:"dateJoined"`
	IsModerator  bool                 `json:"isModerator"`
	Skills       [SlotCount]SkillSlot `json:"skills"`
}

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidSkillRef    = errors.New("skill reference does not resolve")
	ErrInvalidSlot        = errors.New("skill slot must be 1, 2 or 3")
	ErrInvalidProficiency = errors.New("proficiency must be between 1 and 5")
	ErrBlankName          = errors.New("first and last name are required")
)

type CreateUserRequest struct {
	FirstName    string               `json:"firstName" binding:"required,min=1,max=20"`
	LastName     string               `json:"lastName" binding:"required,min=1,max=20"`
	Email        string               `json:"email" binding:"required,email,max=120"`
	PasswordHash string               `json:"-"`
	ProfileImage string               `json:"profileImage" binding:"omitempty,max=20"`
	IsModerator  bool                 `json:"-"`
	Skills       [SlotCount]SkillSlot `json:"skills" binding:"required,dive"`
}

// a partial update: nil fields are left alone.
type UpdateProfileRequest struct {
	FirstName    *string `json:"firstName" binding:"omitempty,min=1,max=20"`
	LastName     *string `json:"lastName" binding:"omitempty,min=1,max=20"`
	ProfileImage *string `json:"profileImage" binding:"omitempty,min=1,max=20"`
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateProficiency(p int) error {
	if p < MinProficiency || p > MaxProficiency {
		return ErrInvalidProficiency
	}
	return nil
}

// ValidateSlot checks a 1-based slot index.
func ValidateSlot(slot int) error {
	if slot < 1 || slot > SlotCount {
		return ErrInvalidSlot
	}
	return nil
}

// Validate checks the names and the three skill slots.
func (req CreateUserRequest) Validate() error {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return ErrBlankName
	}
	return ValidateSkills(req.Skills)
}

// Validate rejects a name that is set but blank.
func (req UpdateProfileRequest) Validate() error {
	for _, n := range []*string{req.FirstName, req.LastName} {
		if n != nil && strings.TrimSpace(*n) == "" {
			return ErrBlankName
		}
	}
	return nil
}

// ValidateSkills checks proficiencies and that every slot names a skill.
// Whether the skill exists is the store's job.
func ValidateSkills(slots [SlotCount]SkillSlot) error {
	for _, s := range slots {
		if strings.TrimSpace(s.SkillID) == "" {
			return ErrInvalidSkillRef
		}
		if err := ValidateProficiency(s.Proficiency); err != nil {
			return err
		}
	}
	return nil
}

func NewFromCreateRequest(req CreateUserRequest) User {
	img := req.ProfileImage
	if img == "" {
		img = DefaultProfileImage
	}

	return User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        NormalizeEmail(req.Email),
		PasswordHash: req.PasswordHash,
		ProfileImage: img,
		DateJoined:   time.Now().UTC(),
		IsModerator:  req.IsModerator,
		Skills:       req.Skills,
	}
}

// Apply copies the set fields of req onto u.
func (u *User) Apply(req UpdateProfileRequest) {
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.ProfileImage != nil {
		u.ProfileImage = *req.ProfileImage
	}
}
