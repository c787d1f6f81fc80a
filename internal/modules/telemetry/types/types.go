package types

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// FieldID is the store-assigned identifier.
	FieldID = "_id"
	// FieldDate holds the reading date, YYYY-MM-DD optionally followed by a time.
	FieldDate = "FECHA"
	// FieldTime holds the reading time of day.
	FieldTime = "HORA"

	// DateLayout is the only accepted layout for FECHA and for filter bounds.
	DateLayout = "2006-01-02"
)

// Record is a free-form telemetry document. Field order is kept as submitted;
// records returned by the store carry FieldID first.
type Record = bson.D

// Lookup returns the value of the first element named key.
func Lookup(r Record, key string) (any, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Date returns the FECHA value if it is a string.
func Date(r Record) (string, bool) {
	v, ok := Lookup(r, FieldDate)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ID returns the hex form of the record identifier, or "" when absent.
func ID(r Record) string {
	v, ok := Lookup(r, FieldID)
	if !ok {
		return ""
	}
	if oid, ok := v.(bson.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

// FilterRequest is the body of POST /api/v1/filterDatos.
type FilterRequest struct {
	FechaIni string `json:"fecha_ini"`
	FechaFin string `json:"fecha_fin"`
}

// Validate checks that both bounds were sent. Their format is checked when
// the range is built.
func (f FilterRequest) Validate() error {
	if f.FechaIni == "" {
		return fmt.Errorf("%w: missing 'fecha_ini'", ErrValidation)
	}
	if f.FechaFin == "" {
		return fmt.Errorf("%w: missing 'fecha_fin'", ErrValidation)
	}
	return nil
}
