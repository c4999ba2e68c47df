package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmcleod/agentgate/agent"
	"github.com/jmcleod/agentgate/web"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// errorStatus maps component errors to response codes. Anything unknown is
// an internal error.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, web.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, web.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrMissingAPIKey), errors.Is(err, agent.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}

func staticError(w http.ResponseWriter, _ *http.Request, err error) {
	mapError(w, err)
}
