package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/tourhub/internal/jobs"
	"github.com/geocoder89/tourhub/internal/notifications"
	"github.com/geocoder89/tourhub/internal/queue"
)

// ProcessOne takes at most one job off the queue and runs it. It reports
// whether a job was taken. A failing job is not an error here: it is retried
// or dead-lettered.
func (w *Worker) ProcessOne(ctx, workCtx context.Context) (bool, error) {
	j, err := w.src.Dequeue(ctx, w.cfg.PollTimeout)
	if err != nil {
		if errors.Is(err, queue.ErrEmpty) || ctx.Err() != nil {
			return false, nil
		}
		return false, err
	}

	w.metrics.IncDequeued()
	j.Attempts++

	start := time.Now()
	err = w.execute(workCtx, j)
	d := time.Since(start)
	w.metrics.ObserveDuration(d)

	if err != nil {
		w.handleFailure(workCtx, j, err, d)
		return true, nil
	}

	w.metrics.IncDone()
	w.prom.ObserveJob(string(j.Type), "done", d)
	w.log.Info("job.done", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "request_id", j.RequestID)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	msg, err := MessageFor(j, w.cfg.AppURL)
	if err != nil {
		return err
	}
	return w.mailer.Send(ctx, msg)
}

// MessageFor renders the email a job stands for.
func MessageFor(j jobs.Job, appURL string) (notifications.Message, error) {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return notifications.Message{}, err
	}

	switch p := payload.(type) {
	case jobs.WelcomeEmailPayload:
		url := p.URL
		if url == "" {
			url = appURL + "/me"
		}
		return notifications.WelcomeMessage(p.Email, p.Name, url), nil

	case jobs.PasswordChangedPayload:
		return notifications.PasswordChangedMessage(p.Email, p.Name, p.ChangedAt), nil

	default:
		return notifications.Message{}, fmt.Errorf("%w: %T", jobs.ErrPayloadTypeMismatch, payload)
	}
}

func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, cause error, d time.Duration) {
	j.LastError = cause.Error()

	// a payload that does not decode will never succeed
	permanent := errors.Is(cause, jobs.ErrInvalidJobPayload) ||
		errors.Is(cause, jobs.ErrInvalidJobType) ||
		errors.Is(cause, jobs.ErrPayloadTypeMismatch) ||
		errors.Is(cause, notifications.ErrUnknownTemplate)

	if permanent || j.Exhausted() {
		if err := w.src.DeadLetter(ctx, j); err != nil {
			w.log.Error("job.dead_letter_failed", "job_id", j.ID, "err", err)
		}
		w.metrics.IncDeadLettered()
		w.prom.ObserveJob(string(j.Type), "dead", d)
		w.log.Error("job.dead_lettered", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "err", cause)
		return
	}

	delay := w.backoff(j.Attempts - 1)
	if err := w.src.Retry(ctx, j, delay); err != nil {
		w.log.Error("job.retry_schedule_failed", "job_id", j.ID, "err", err)
		return
	}

	w.metrics.IncRetried()
	w.prom.ObserveJob(string(j.Type), "retry", d)
	w.log.Warn("job.retry_scheduled", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "delay", delay, "err", cause)
}
