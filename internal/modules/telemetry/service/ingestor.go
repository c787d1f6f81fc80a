package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"invernadero-server/internal/metrics"
	"invernadero-server/internal/modules/telemetry/repository"
	"invernadero-server/internal/modules/telemetry/types"
)

// Ingestor validates batches of telemetry records and stores them.
type Ingestor struct {
	repository repository.TelemetryRepository
	timeout    time.Duration
	logger     *slog.Logger
}

func NewIngestor(repository repository.TelemetryRepository, timeout time.Duration, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{repository: repository, timeout: timeout, logger: logger}
}

// Ingest decodes a JSON array of records and stores it as one batch.
// source labels the caller ("http", "mqtt") in logs and metrics.
func (i *Ingestor) Ingest(ctx context.Context, source string, payload []byte) ([]string, error) {
	records, err := DecodeBatch(payload)
	if err != nil {
		i.logger.Warn("rejected telemetry batch", "source", source, "error", err)
		return nil, err
	}
	return i.IngestRecords(ctx, source, records)
}

// IngestRecords validates already decoded records and stores them. The
// returned identifiers follow the order of records.
func (i *Ingestor) IngestRecords(ctx context.Context, source string, records []types.Record) ([]string, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty batch", types.ErrInvalidInput)
	}
	for n, rec := range records {
		if err := validateRecord(n, rec); err != nil {
			return nil, err
		}
	}

	ctx, cancel := withTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	ids, err := i.repository.InsertMany(ctx, records)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("insert", errorKind(err)).Inc()
		i.logger.Error("insert telemetry batch", "source", source, "records", len(records), "error", err)
		return nil, err
	}
	if len(ids) != len(records) {
		metrics.StoreErrors.WithLabelValues("insert", errorKind(types.ErrStoreWrite)).Inc()
		return nil, fmt.Errorf("%w: store returned %d ids for %d records", types.ErrStoreWrite, len(ids), len(records))
	}

	metrics.RecordsIngested.WithLabelValues(source).Add(float64(len(ids)))
	i.logger.Info("telemetry batch stored",
		"source", source,
		"records", len(ids),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ids, nil
}

func validateRecord(n int, rec types.Record) error {
	if _, ok := types.Lookup(rec, types.FieldID); ok {
		return fmt.Errorf("%w: record %d: %s is assigned by the store", types.ErrValidation, n, types.FieldID)
	}
	v, ok := types.Lookup(rec, types.FieldDate)
	if !ok {
		return fmt.Errorf("%w: record %d: missing %s", types.ErrValidation, n, types.FieldDate)
	}
	fecha, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: record %d: %s must be a string", types.ErrValidation, n, types.FieldDate)
	}
	if len(fecha) < len(types.DateLayout) {
		return fmt.Errorf("%w: record %d: invalid %s %q (expected YYYY-MM-DD)", types.ErrValidation, n, types.FieldDate, fecha)
	}
	if _, err := time.Parse(types.DateLayout, fecha[:len(types.DateLayout)]); err != nil {
		return fmt.Errorf("%w: record %d: invalid %s %q (expected YYYY-MM-DD)", types.ErrValidation, n, types.FieldDate, fecha)
	}
	return nil
}
