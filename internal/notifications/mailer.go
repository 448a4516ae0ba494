package notifications

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"text/template"
)

const (
	TemplateWelcome         = "welcome"
	TemplatePasswordReset   = "password_reset"
	TemplatePasswordChanged = "password_changed"
)

var ErrUnknownTemplate = errors.New("unknown mail template")

// Message is one outbound email. Template names a body template that is
// rendered with Data.
type Message struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

// Render produces the plain-text body for msg.
func Render(msg Message) (string, error) {
	t := templates.Lookup(msg.Template + ".txt")
	if t == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, msg.Template)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, msg.Data); err != nil {
		return "", fmt.Errorf("render %s: %w", msg.Template, err)
	}
	return buf.String(), nil
}
