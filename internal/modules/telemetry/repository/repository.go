package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"invernadero-server/internal/modules/telemetry/query"
	"invernadero-server/internal/modules/telemetry/types"
)

// TelemetryRepository persists telemetry records in a single collection.
type TelemetryRepository interface {
	// InsertMany stores the batch and returns one identifier per record, in order.
	InsertMany(ctx context.Context, records []types.Record) ([]string, error)
	// Find returns every record when r is nil, otherwise the records whose
	// FECHA lies in r. Results are in insertion order and never nil.
	Find(ctx context.Context, r *query.DateRange) ([]types.Record, error)
	Ping(ctx context.Context) error
}

// classify wraps a driver error with the store sentinel matching its cause.
// Connectivity problems map to ErrStoreUnavailable, anything else to fallback.
func classify(op string, err error, fallback error) error {
	if err == nil {
		return nil
	}
	if unavailable(err) {
		return fmt.Errorf("%w: %s: %w", types.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %w", fallback, op, err)
}

func unavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, mongo.ErrClientDisconnected) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
			return true
		}
	}
	return false
}
