package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the structured log instead of
// sending them anywhere.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.InfoContext(ctx, "notification.welcome", "email", in.Email, "name", in.Name)
	return nil
}

func (n *LogNotifier) SendMemberJoined(ctx context.Context, in MemberJoinedInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.InfoContext(ctx, "notification.member_joined",
		"email", in.Email, "name", in.Name, "project_id", in.ProjectID, "project", in.ProjectName)
	return nil
}
