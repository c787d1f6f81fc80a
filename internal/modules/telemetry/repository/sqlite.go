package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"

	"invernadero-server/internal/modules/telemetry/query"
	"invernadero-server/internal/modules/telemetry/types"
)

//go:embed sql/insert-record.sql
var insertRecordSQL string

//go:embed sql/get-records.sql
var getRecordsSQL string

//go:embed sql/get-records-between.sql
var getRecordsBetweenSQL string

// sqliteRepository keeps each record as a BSON document so reads return the
// same values and types as the MongoDB backend.
type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) TelemetryRepository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) InsertMany(ctx context.Context, records []types.Record) (ids []string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin tx", err, types.ErrStoreWrite)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback insert", "error", rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return nil, classify("prepare insert", err, types.ErrStoreWrite)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("close insert stmt", "error", err)
		}
	}()

	ids = make([]string, 0, len(records))
	for i, rec := range records {
		oid := bson.NewObjectID()
		doc := make(bson.D, 0, len(rec)+1)
		doc = append(doc, bson.E{Key: types.FieldID, Value: oid})
		doc = append(doc, rec...)

		raw, mErr := bson.Marshal(doc)
		if mErr != nil {
			return nil, fmt.Errorf("%w: encode record %d: %w", types.ErrStoreWrite, i, mErr)
		}
		fecha, _ := types.Date(rec)

		if _, err = stmt.ExecContext(ctx, oid.Hex(), fecha, raw); err != nil {
			return nil, classify(fmt.Sprintf("insert record %d", i), err, types.ErrStoreWrite)
		}
		ids = append(ids, oid.Hex())
	}

	if err = tx.Commit(); err != nil {
		return nil, classify("commit", err, types.ErrStoreWrite)
	}
	return ids, nil
}

func (r *sqliteRepository) Find(ctx context.Context, dr *query.DateRange) ([]types.Record, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if dr == nil {
		rows, err = r.db.QueryContext(ctx, getRecordsSQL)
	} else {
		lo, hi := dr.Bounds()
		rows, err = r.db.QueryContext(ctx, getRecordsBetweenSQL, lo, hi)
	}
	if err != nil {
		return nil, classify("query records", err, types.ErrStoreRead)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close records rows", "error", err)
		}
	}()

	out := make([]types.Record, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, classify("scan record", err, types.ErrStoreRead)
		}
		var doc bson.D
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode record: %w", types.ErrStoreRead, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate records", err, types.ErrStoreRead)
	}
	return out, nil
}

func (r *sqliteRepository) Ping(ctx context.Context) error {
	var ok int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return classify("ping", err, types.ErrStoreRead)
	}
	return nil
}
