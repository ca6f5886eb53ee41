package jobs

import "errors"

var (
	ErrInvalidJobType      = errors.New("invalid job type")
	ErrInvalidJobStatus    = errors.New("invalid job status")
	ErrInvalidJobPayload   = errors.New("invalid job payload")
	ErrPayloadTypeMismatch = errors.New("payload type mismatch for job type")
	ErrQueueFull           = errors.New("job queue full")
	ErrQueueClosed         = errors.New("job queue closed")
	ErrNoHandler           = errors.New("no handler for job type")
)
