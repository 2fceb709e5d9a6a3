// Package ctxutil provides contexts carrying their own cancel function,
// so that the creator and any later holder can stop them.
package ctxutil

import (
	"context"
)

type key string

var cancelkey = key("cancel")

func CancelContext(ctx context.Context) context.Context {
	return cancelContext(context.WithCancel(ctx))
}

func cancelContext(ctx context.Context, cancel context.CancelFunc) context.Context {
	return context.WithValue(ctx, cancelkey, cancel)
}

// Cancel cancels a context created by this package. For other contexts
// it does nothing.
func Cancel(ctx context.Context) {
	if cancel, ok := ctx.Value(cancelkey).(context.CancelFunc); ok {
		cancel()
	}
}
