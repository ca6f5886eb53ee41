package notifications

import "context"

type WelcomeInput struct {
	Email string
	Name  string
}

type MemberJoinedInput struct {
	Email       string
	Name        string
	ProjectID   string
	ProjectName string
}

// Notifier delivers user-facing messages. Implementations must respect
// ctx cancellation.
type Notifier interface {
	SendWelcome(ctx context.Context, in WelcomeInput) error
	SendMemberJoined(ctx context.Context, in MemberJoinedInput) error
}
