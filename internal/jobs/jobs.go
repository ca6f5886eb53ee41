package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Job is a unit of asynchronous work. Payload is the JSON encoding of the
// payload struct matching Type.
type Job struct {
	ID        string    `json:"id"`
	Type      JobType   `json:"type"`
	Payload   []byte    `json:"payload"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	MaxTries  int       `json:"maxTries"`
	LastError *string   `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewJob creates a pending job with defaults.
func NewJob(t JobType, payloadJSON []byte) (Job, error) {
	if !t.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	now := time.Now().UTC()

	return Job{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payloadJSON,
		Status:    JobPending,
		MaxTries:  5,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (j *Job) setStatus(s JobStatus, err error) {
	j.Status = s
	j.UpdatedAt = time.Now().UTC()
	if err != nil {
		msg := err.Error()
		j.LastError = &msg
	}
}
