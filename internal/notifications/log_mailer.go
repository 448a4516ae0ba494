package notifications

import (
	"context"
	"log/slog"
)

// LogMailer renders messages and writes them to the log instead of sending.
// Used in dev and whenever no SMTP relay is configured.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	body, err := Render(msg)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "mail.logged",
		"to", msg.To,
		"subject", msg.Subject,
		"template", msg.Template,
		"body", body,
	)
	return nil
}
