package api

import (
	"encoding/json"
	"io"
	"net/http"
)

const maxBodySize = 1 << 20

// decodeJSON reads the request body into T. Missing, oversized, or
// unparsable bodies yield the zero value so that required-field checks
// decide the outcome.
func decodeJSON[T any](r *http.Request) T {
	var v T
	if r.Body == nil {
		return v
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil || len(data) > maxBodySize {
		return v
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero
	}
	return v
}
