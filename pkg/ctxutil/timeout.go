package ctxutil

import (
	"context"
	"os"
	"os/signal"
	"time"
)

func TimeoutContext(ctx context.Context, duration time.Duration) context.Context {
	return cancelContext(context.WithTimeout(ctx, duration))
}

// SignalContext is canceled when one of the given signals is received.
func SignalContext(ctx context.Context, sigs ...os.Signal) context.Context {
	return cancelContext(signal.NotifyContext(ctx, sigs...))
}
