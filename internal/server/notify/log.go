package notify

import (
	"context"

	"github.com/legalize/backoffice/internal/logging"
)

// LogSender stands in for SMTP when no mail host is configured. Messages
// are logged and count as not delivered.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "mail")}
}

func (s *LogSender) Send(ctx context.Context, subject, _ string, recipients []string) (int, error) {
	s.log.Info(ctx, "mail disabled, message dropped", "subject", subject, "recipients", recipients)
	return 0, nil
}
