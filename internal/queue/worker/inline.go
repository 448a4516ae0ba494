package worker

import (
	"context"

	"github.com/geocoder89/tourhub/internal/jobs"
	"github.com/geocoder89/tourhub/internal/notifications"
)

// Inline sends a job's email during Enqueue. The API uses it when no redis
// is configured, so there is no queue to hand the job to.
type Inline struct {
	mailer notifications.Mailer
	appURL string
}

func NewInline(mailer notifications.Mailer, appURL string) *Inline {
	return &Inline{mailer: mailer, appURL: appURL}
}

func (i *Inline) Enqueue(ctx context.Context, j jobs.Job) error {
	msg, err := MessageFor(j, i.appURL)
	if err != nil {
		return err
	}
	return i.mailer.Send(ctx, msg)
}
