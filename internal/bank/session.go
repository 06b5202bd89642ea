package bank

import (
	"context"
	"errors"
	"fmt"
)

// WithSession starts a session on c, runs fn and ends the session on every
// exit path, including panics inside fn. If Start fails fn is not run.
// Errors from fn and from End are joined.
func WithSession(ctx context.Context, c Client, fn func(ctx context.Context) error) (err error) {
	if err := c.Start(ctx); err != nil {
		return err
	}

	defer func() {
		// Logout must go out even when the caller's context is already done.
		if endErr := c.End(context.WithoutCancel(ctx)); endErr != nil {
			err = errors.Join(err, fmt.Errorf("end session: %w", endErr))
		}
	}()

	return fn(ctx)
}
