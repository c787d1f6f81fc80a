package types

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestRecordAccessors(t *testing.T) {
	oid := bson.NewObjectID()
	rec := Record{
		{Key: FieldID, Value: oid},
		{Key: FieldDate, Value: "2021-06-01"},
		{Key: FieldTime, Value: "10:00"},
		{Key: "TEMP", Value: 22.5},
	}

	if v, ok := Lookup(rec, "TEMP"); !ok || v != 22.5 {
		t.Errorf("Lookup(TEMP) = %v, %v; want 22.5, true", v, ok)
	}
	if _, ok := Lookup(rec, "HUM"); ok {
		t.Error("Lookup(HUM) ok = true; want false")
	}
	if d, ok := Date(rec); !ok || d != "2021-06-01" {
		t.Errorf("Date = %q, %v", d, ok)
	}
	if got := ID(rec); got != oid.Hex() {
		t.Errorf("ID = %q; want %q", got, oid.Hex())
	}
}

func TestRecordAccessors_WrongTypes(t *testing.T) {
	rec := Record{
		{Key: FieldID, Value: "not-an-oid"},
		{Key: FieldDate, Value: int32(20210601)},
	}

	if _, ok := Date(rec); ok {
		t.Error("Date on numeric FECHA ok = true; want false")
	}
	if got := ID(rec); got != "" {
		t.Errorf("ID on string _id = %q; want empty", got)
	}
	if got := ID(Record{}); got != "" {
		t.Errorf("ID on empty record = %q; want empty", got)
	}
}

func TestFilterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     FilterRequest
		wantErr bool
	}{
		{name: "both bounds", req: FilterRequest{FechaIni: "2021-06-01", FechaFin: "2021-06-30"}},
		{name: "format not checked here", req: FilterRequest{FechaIni: "x", FechaFin: "y"}},
		{name: "missing start", req: FilterRequest{FechaFin: "2021-06-30"}, wantErr: true},
		{name: "missing end", req: FilterRequest{FechaIni: "2021-06-01"}, wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Validate() = %v; want ErrValidation", err)
				}
				if !IsClientError(err) {
					t.Errorf("IsClientError(%v) = false", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v; want nil", err)
			}
		})
	}
}
