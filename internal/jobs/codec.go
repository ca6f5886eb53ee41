package jobs

import (
	"encoding/json"
	"fmt"
)

// EncodePayload checks that payload matches t and marshals it.
func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals j.Payload into the typed payload struct for j.Type.
func DecodePayload(j Job) (any, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var out any
	switch j.Type {
	case JobWelcomeUser:
		var p WelcomeUserPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p

	case JobMemberJoined:
		var p MemberJoinedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p

	default:
		return nil, ErrInvalidJobType
	}

	if err := ValidatePayload(j.Type, out); err != nil {
		return nil, err
	}
	return out, nil
}
