// AngelaMos | 2026
// sender.go

package mail

import (
	"context"
	"log/slog"
)

// Sender delivers the plaintext password-reset token to the account owner.
// The token never appears in an API response; this is its only way out.
type Sender interface {
	SendPasswordReset(ctx context.Context, recipient, token string) error
}

// LogSender is the development delivery backend: it logs the reset token
// instead of sending email. Never enable in production.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendPasswordReset(
	ctx context.Context,
	recipient, token string,
) error {
	s.logger.InfoContext(ctx, "password reset token issued",
		"recipient", recipient,
		"token", token,
	)
	return nil
}

var _ Sender = (*LogSender)(nil)
