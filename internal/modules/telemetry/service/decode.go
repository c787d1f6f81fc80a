package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/v2/bson"

	"invernadero-server/internal/modules/telemetry/types"
)

// maxNesting matches the MongoDB limit on embedded documents and arrays.
const maxNesting = 100

// DecodeBatch parses a JSON array of objects into records. Values are taken
// as plain JSON: field order is kept, integers stay int32/int64, decimals
// become doubles, and objects become embedded documents even when their keys
// look like Extended JSON. Values that cannot be stored exactly are rejected.
func DecodeBatch(payload []byte) ([]types.Record, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: missing payload", types.ErrInvalidInput)
	}
	if !utf8.Valid(trimmed) {
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", types.ErrValidation)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("%w: payload must be a JSON array of records: %w", types.ErrInvalidInput, err)
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: empty batch", types.ErrInvalidInput)
	}

	records := make([]types.Record, 0, len(raws))
	for n, raw := range raws {
		doc, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", types.ErrValidation, n, err)
		}
		records = append(records, doc)
	}
	return records, nil
}

func decodeRecord(raw json.RawMessage) (types.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("not a JSON object")
	}
	return decodeObject(dec, 1)
}

func decodeObject(dec *json.Decoder, depth int) (bson.D, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("nested deeper than %d levels", maxNesting)
	}
	doc := bson.D{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if strings.IndexByte(key, 0) >= 0 {
			return nil, fmt.Errorf("field name %q contains a NUL character", key)
		}
		val, err := decodeValue(dec, depth)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		doc = append(doc, bson.E{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeArray(dec *json.Decoder, depth int) (bson.A, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("nested deeper than %d levels", maxNesting)
	}
	arr := bson.A{}
	for dec.More() {
		val, err := decodeValue(dec, depth)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", len(arr), err)
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func decodeValue(dec *json.Decoder, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec, depth+1)
		case '[':
			return decodeArray(dec, depth+1)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v)
	case json.Number:
		return numberValue(v)
	case string, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// numberValue keeps the JSON number class: int32 when it fits, then int64,
// then double. A double is only accepted when it denotes exactly the value
// written by the client.
func numberValue(n json.Number) (any, error) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
		return i, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("number %s is out of range", s)
	}
	want, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid number %s", s)
	}
	got, _ := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
	if got == nil || want.Cmp(got) != 0 {
		return nil, fmt.Errorf("number %s cannot be stored without losing precision", s)
	}
	return f, nil
}
