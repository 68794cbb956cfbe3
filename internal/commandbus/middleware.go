package commandbus

import (
	"context"
	"log/slog"
)

type LoggingMiddleware struct {
	logger *slog.Logger
}

func NewLoggingMiddleware(logger *slog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) Before(ctx context.Context, cmd Command) error {
	m.logger.Info("executing command", "command_type", cmd.CommandType())
	return nil
}

func (m *LoggingMiddleware) After(ctx context.Context, cmd Command, result interface{}) {
	m.logger.Info("command executed", "command_type", cmd.CommandType())
}

func (m *LoggingMiddleware) OnError(ctx context.Context, cmd Command, err error) {
	m.logger.Error("command failed",
		"command_type", cmd.CommandType(),
		"error", err)
}
