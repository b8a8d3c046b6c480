package middleware

import (
	"context"
	"log/slog"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/outbox"
)

// OutboxFlush nudges the relay once a command succeeded. It must wrap the
// Transaction middleware so the flush observes committed records. A failed
// flush is logged only: the records are durable and the relay retries them.
func OutboxFlush(flusher outbox.Flusher, logger *slog.Logger) CommandMiddleware {
	if flusher == nil {
		panic("middleware: outbox flusher required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := flusher.Flush(ctx); err != nil && logger != nil {
				logger.Warn("outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
