package mailer

import (
	"fmt"
	"time"
)

// PasswordReset builds the forgot-password email carrying resetURL.
func PasswordReset(to, toName, resetURL string, validFor time.Duration) Message {
	return Message{
		To:      to,
		ToName:  toName,
		Subject: fmt.Sprintf("Your password reset token (valid for %s)", formatMinutes(validFor)),
		Text: fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password "+
			"and passwordConfirm to: %s.\nIf you didn't forget your password, please ignore this email!", resetURL),
	}
}

func formatMinutes(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
