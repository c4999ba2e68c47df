// Package agent forwards a user message to the hosted conversational agent
// and flattens the reply. It performs no retries: upstream failures are
// reported to the caller as they happen.
package agent

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrMissingAPIKey means the upstream credential was never configured.
	ErrMissingAPIKey = errors.New("agent API key is not configured")
	// ErrUpstream wraps transport failures and non-2xx upstream responses.
	ErrUpstream = errors.New("agent upstream failure")
)

// EmptyReply is returned as the reply when the agent produced no text.
const EmptyReply = "The agent replied without any text. See the raw response for details."

// Request is one message for an agent.
type Request struct {
	AgentID string
	Message string
	// Username is attached as metadata; it is not used for authorization.
	Username string
}

// Result is the flattened reply plus the untouched upstream payload.
type Result struct {
	Reply string
	Raw   json.RawMessage
}

// Client queries an agent.
type Client interface {
	Query(ctx context.Context, req Request) (Result, error)
}
