package middleware

import (
	"context"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/uow"
)

// Transaction runs every command inside a unit of work, committing on success
// and rolling back on error or panic.
func Transaction(factory uow.UoWFactory) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if _, ok := uow.FromContext(ctx); ok {
				return nextFn(ctx, cmd)
			}
			unit, execCtx, err := uow.Begin(ctx, factory, uow.TxOptions{})
			if err != nil {
				return nil, err
			}
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			uow.RunAfterCommit(execCtx)
			return res, nil
		})
	}
}
