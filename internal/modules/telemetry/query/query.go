// Package query turns user supplied date bounds into store filters over FECHA.
//
// FECHA is compared as a fixed-format string. Bounds are re-formatted from the
// parsed date so both sides of the comparison always use YYYY-MM-DD. The upper
// bound is made exclusive on the following day, which keeps values such as
// "2021-06-01 10:00" inside a range ending on 2021-06-01.
package query

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"invernadero-server/internal/modules/telemetry/types"
)

// DateRange is the closed interval [Start, End] over FECHA.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Build parses both bounds as YYYY-MM-DD. A reversed range is valid and
// matches nothing.
func Build(start, end string) (DateRange, error) {
	s, err := parseDate("fecha_ini", start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := parseDate("fecha_fin", end)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: s, End: e}, nil
}

func parseDate(name, value string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid '%s' %q (expected YYYY-MM-DD)", types.ErrValidation, name, value)
	}
	return t, nil
}

// Empty reports whether the range can match no record.
func (r DateRange) Empty() bool {
	return r.Start.After(r.End)
}

// Bounds returns the half-open string interval [lo, hi) equivalent to the range.
func (r DateRange) Bounds() (lo, hi string) {
	return r.Start.Format(types.DateLayout), r.End.AddDate(0, 0, 1).Format(types.DateLayout)
}

// Filter returns the MongoDB filter selecting records in the range.
func (r DateRange) Filter() bson.D {
	lo, hi := r.Bounds()
	return bson.D{
		{Key: types.FieldDate, Value: bson.D{
			{Key: "$gte", Value: lo},
			{Key: "$lt", Value: hi},
		}},
	}
}

// Contains applies the same comparison as Filter to a single FECHA value.
func (r DateRange) Contains(fecha string) bool {
	lo, hi := r.Bounds()
	return fecha >= lo && fecha < hi
}

func (r DateRange) String() string {
	return r.Start.Format(types.DateLayout) + ".." + r.End.Format(types.DateLayout)
}
