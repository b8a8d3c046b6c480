package middleware

import "context"

// Validator checks the struct tags of a command or query. Failures are
// expected to carry the validation fault kind.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return commandGuard(v.Validate)
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return queryGuard(v.Validate)
}
