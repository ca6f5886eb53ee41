package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/geocoder89/projecthub/internal/jobs"
)

// Directory resolves the IDs carried by job payloads.
type Directory interface {
	GetUser(ctx context.Context, id string) (user.User, error)
	GetProject(ctx context.Context, id string) (project.Project, error)
}

// RegisterJobs binds the notification job types on q to n.
func RegisterJobs(q *jobs.Queue, n Notifier, dir Directory) {
	q.Handle(jobs.JobWelcomeUser, func(ctx context.Context, j jobs.Job) error {
		decoded, err := jobs.DecodePayload(j)
		if err != nil {
			return err
		}
		p := decoded.(jobs.WelcomeUserPayload)

		return n.SendWelcome(ctx, WelcomeInput{Email: p.Email, Name: p.Name})
	})

	q.Handle(jobs.JobMemberJoined, func(ctx context.Context, j jobs.Job) error {
		decoded, err := jobs.DecodePayload(j)
		if err != nil {
			return err
		}
		p := decoded.(jobs.MemberJoinedPayload)

		u, err := dir.GetUser(ctx, p.UserID)
		if err != nil {
			return notFoundIsPermanent(err)
		}
		pr, err := dir.GetProject(ctx, p.ProjectID)
		if err != nil {
			return notFoundIsPermanent(err)
		}

		return n.SendMemberJoined(ctx, MemberJoinedInput{
			Email:       u.Email,
			Name:        strings.TrimSpace(u.FirstName + " " + u.LastName),
			ProjectID:   pr.ID,
			ProjectName: pr.Name,
		})
	})
}

// the user or project was deleted after the job was queued
func notFoundIsPermanent(err error) error {
	if errors.Is(err, user.ErrNotFound) || errors.Is(err, project.ErrNotFound) {
		return jobs.Permanent(fmt.Errorf("member joined: %w", err))
	}
	return err
}
