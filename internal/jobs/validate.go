package jobs

import "strings"

// ValidatePayload checks payload has the type t expects and carries its
// required IDs. Pointers to payload structs are accepted.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch t {
	case JobWelcomeUser:
		var p WelcomeUserPayload
		switch v := payload.(type) {
		case WelcomeUserPayload:
			p = v
		case *WelcomeUserPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.UserID) || blank(p.Email) {
			return ErrInvalidJobPayload
		}
		return nil

	case JobMemberJoined:
		var p MemberJoinedPayload
		switch v := payload.(type) {
		case MemberJoinedPayload:
			p = v
		case *MemberJoinedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.ProjectID) || blank(p.UserID) {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
