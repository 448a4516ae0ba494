package notifications

import (
	"strconv"
	"strings"
	"time"
)

// FirstName is what greetings use: the first word of a display name.
func FirstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return "there"
}

func WelcomeMessage(to, name, url string) Message {
	return Message{
		To:       to,
		Subject:  "Welcome to the Tourhub family!",
		Template: TemplateWelcome,
		Data:     map[string]any{"FirstName": FirstName(name), "URL": url},
	}
}

func PasswordResetMessage(to, name, url string, validFor time.Duration) Message {
	return Message{
		To:       to,
		Subject:  "Your password reset token (valid for " + humanMinutes(validFor) + ")",
		Template: TemplatePasswordReset,
		Data: map[string]any{
			"FirstName": FirstName(name),
			"URL":       url,
			"ValidFor":  humanMinutes(validFor),
		},
	}
}

func PasswordChangedMessage(to, name string, at time.Time) Message {
	return Message{
		To:       to,
		Subject:  "Your password was changed",
		Template: TemplatePasswordChanged,
		Data: map[string]any{
			"FirstName": FirstName(name),
			"ChangedAt": at.UTC().Format(time.RFC1123),
		},
	}
}

func humanMinutes(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return strconv.Itoa(m) + " minutes"
}
