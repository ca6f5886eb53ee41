package jobs

// WelcomeUserPayload greets a newly registered account.
type WelcomeUserPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// MemberJoinedPayload is ID-based; the handler loads the user and project.
type MemberJoinedPayload struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}
