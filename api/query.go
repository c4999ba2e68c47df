package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jmcleod/agentgate/agent"
)

// Query handles POST /api/query. The upstream call is detached from the
// inbound request so a disconnecting caller does not cancel it; the agent
// client bounds it with its own timeout.
func (a *API) Query(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req := decodeJSON[QueryRequest](r)
	if req.AgentID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "agentId and message are required")
		return
	}

	res, err := a.agent.Query(context.WithoutCancel(r.Context()), agent.Request{
		AgentID:  req.AgentID,
		Message:  req.Message,
		Username: sess.Username,
	})
	if err != nil {
		a.events.logFailure(EventQueryFailed, r, err.Error(),
			slog.String("username", sess.Username),
			slog.String("agent_id", req.AgentID))
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}

	a.events.logUser(EventQueryForwarded, r, sess.Username, slog.String("agent_id", req.AgentID))
	writeJSON(w, http.StatusOK, QueryResponse{Reply: res.Reply, Raw: rawOrNull(res.Raw)})
}

func rawOrNull(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
