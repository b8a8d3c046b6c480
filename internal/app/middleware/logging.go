package middleware

import (
	"context"
	"log/slog"
	"time"

	"travelstay/internal/app/commands"
	"travelstay/internal/domain/shared/fault"
)

// Logging records every command outcome. Classified domain failures are
// logged at info level, anything else as an error.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		return nil
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(start)}
			if actor, ok := cmd.(ActorMessage); ok {
				attrs = append(attrs, "actor", actor.Actor())
			}
			switch {
			case err == nil:
				logger.Debug("command handled", attrs...)
			case fault.KindOf(err) != nil:
				logger.Info("command rejected", append(attrs, "error", err)...)
			default:
				logger.Error("command failed", append(attrs, "error", err)...)
			}
			return res, err
		})
	}
}
