package controller

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"invernadero-server/internal/modules/telemetry/types"
)

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	return io.ReadAll(r.Body)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// parseRange splits the "<fecha_ini>&<fecha_fin>" path segment.
func parseRange(s string) (start, end string, err error) {
	start, end, ok := strings.Cut(s, "&")
	if !ok {
		return "", "", errors.New("invalid range (expected <fecha_ini>&<fecha_fin>)")
	}
	if start == "" {
		return "", "", errors.New("missing 'fecha_ini'")
	}
	if end == "" {
		return "", "", errors.New("missing 'fecha_fin'")
	}
	return start, end, nil
}

// statusFor maps a service error to the response status and message.
// invalidMsg replaces the message for ErrInvalidInput when set.
func statusFor(err error, invalidMsg string) (int, string) {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		if invalidMsg != "" {
			return http.StatusBadRequest, invalidMsg
		}
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, types.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store unavailable"
	case errors.Is(err, types.ErrStoreWrite):
		return http.StatusInternalServerError, "failed to store records"
	case errors.Is(err, types.ErrStoreRead):
		return http.StatusInternalServerError, "failed to load records"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
