package api

import "encoding/json"

// LoginRequest is the JSON body for POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned from POST /api/login.
type LoginResponse struct {
	Message      string   `json:"message"`
	AllowedPages []string `json:"allowedPages"`
}

// MessageResponse carries a human-readable status.
type MessageResponse struct {
	Message string `json:"message"`
}

// SessionResponse is returned from GET /api/session. Username is null when
// the caller is not authenticated.
type SessionResponse struct {
	Authenticated bool     `json:"authenticated"`
	Username      *string  `json:"username"`
	AllowedPages  []string `json:"allowedPages"`
}

// QueryRequest is the JSON body for POST /api/query.
type QueryRequest struct {
	AgentID string `json:"agentId"`
	Message string `json:"message"`
}

// QueryResponse is returned from POST /api/query.
type QueryResponse struct {
	Reply string          `json:"reply"`
	Raw   json.RawMessage `json:"raw"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
