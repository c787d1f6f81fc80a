package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"invernadero-server/internal/metrics"
	"invernadero-server/internal/modules/telemetry/query"
	"invernadero-server/internal/modules/telemetry/repository"
	"invernadero-server/internal/modules/telemetry/types"
)

// Reader serves read-only queries over the telemetry collection.
type Reader struct {
	repository repository.TelemetryRepository
	timeout    time.Duration
	logger     *slog.Logger
}

func NewReader(repository repository.TelemetryRepository, timeout time.Duration, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{repository: repository, timeout: timeout, logger: logger}
}

// All returns the whole collection in insertion order.
func (r *Reader) All(ctx context.Context) ([]types.Record, error) {
	return r.find(ctx, nil)
}

// Between returns the records whose FECHA lies in [start, end]. Malformed
// bounds fail before the store is queried.
func (r *Reader) Between(ctx context.Context, start, end string) ([]types.Record, error) {
	dr, err := query.Build(start, end)
	if err != nil {
		return nil, err
	}
	if dr.Empty() {
		r.logger.Debug("reversed date range", "range", dr.String())
		return []types.Record{}, nil
	}
	return r.find(ctx, &dr)
}

func (r *Reader) find(ctx context.Context, dr *query.DateRange) ([]types.Record, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	records, err := r.repository.Find(ctx, dr)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("find", errorKind(err)).Inc()
		r.logger.Error("find telemetry", "range", rangeAttr(dr), "error", err)
		return nil, err
	}
	r.logger.Debug("telemetry read", "range", rangeAttr(dr), "records", len(records))
	if records == nil {
		records = []types.Record{}
	}
	return records, nil
}

func rangeAttr(dr *query.DateRange) string {
	if dr == nil {
		return "all"
	}
	return dr.String()
}

// Encode renders records as a JSON array of relaxed Extended JSON documents,
// so "_id" appears as {"$oid": "..."}.
func Encode(records []types.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for n, rec := range records {
		if n > 0 {
			buf.WriteByte(',')
		}
		b, err := bson.MarshalExtJSON(rec, false, false)
		if err != nil {
			return nil, fmt.Errorf("encode record %d: %w", n, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
