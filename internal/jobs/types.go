package jobs

type JobType string

const (
	JobSendWelcomeEmail    JobType = "send_welcome_email"
	JobSendPasswordChanged JobType = "send_password_changed"
)

// IsValid reports whether t is a known job type.
func (t JobType) IsValid() bool {
	switch t {
	case JobSendWelcomeEmail, JobSendPasswordChanged:
		return true
	default:
		return false
	}
}
