package jobs

type JobType string

const (
	JobWelcomeUser  JobType = "welcome_user"
	JobMemberJoined JobType = "member_joined"
)

// IsValid reports whether t is a known job type.
func (t JobType) IsValid() bool {
	switch t {
	case JobWelcomeUser, JobMemberJoined:
		return true
	default:
		return false
	}
}
