package notify

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them. It backs
// the "log" mail provider used in development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, env Envelope) error {
	s.logger.InfoContext(ctx, "notification",
		"from", env.From,
		"to", env.To,
		"subject", env.Subject,
		"body_bytes", len(env.HTML),
	)
	return nil
}
