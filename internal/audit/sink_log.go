package audit

import (
	"context"
	"log/slog"
)

// LogSink writes audit events to the structured logger. Always wired; the
// kafka sink is layered on top when brokers are configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, event.Action,
		"log_type", "audit",
		"account", event.Account,
		"registry", event.Registry,
		"token_id", uint64(event.TokenID),
		"detail", event.Detail,
		"timestamp", event.Timestamp,
	)
	return nil
}
