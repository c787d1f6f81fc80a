package service

import (
	"context"
	"errors"
	"time"

	"invernadero-server/internal/modules/telemetry/types"
)

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// errorKind is the metrics label for a store failure.
func errorKind(err error) string {
	switch {
	case errors.Is(err, types.ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, types.ErrStoreWrite):
		return "write"
	case errors.Is(err, types.ErrStoreRead):
		return "read"
	default:
		return "other"
	}
}
