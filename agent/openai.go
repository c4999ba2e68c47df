package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultBaseURL is the public OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1/"
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 60 * time.Second

	responsesPath  = "responses"
	metadataSource = "agentgate"
)

// OpenAI calls the Responses endpoint with an agent_id.
type OpenAI struct {
	client  openai.Client
	apiKey  string
	model   string
	timeout time.Duration
}

var _ Client = (*OpenAI)(nil)

// OpenAIOption is a functional option for configuring OpenAI.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) OpenAIOption {
	return func(c *openAIConfig) {
		c.baseURL = u
	}
}

// WithModel adds a model to every request.
func WithModel(model string) OpenAIOption {
	return func(c *openAIConfig) {
		c.model = model
	}
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(c *openAIConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(c *openAIConfig) {
		c.httpClient = client
	}
}

// NewOpenAI builds the client. An empty apiKey is accepted so the server can
// start; every Query then fails with ErrMissingAPIKey.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	cfg := openAIConfig{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.baseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.timeout),
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}
	return &OpenAI{
		client:  openai.NewClient(reqOpts...),
		apiKey:  apiKey,
		model:   cfg.model,
		timeout: cfg.timeout,
	}
}

type inputText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string      `json:"role"`
	Content []inputText `json:"content"`
}

type responsesRequest struct {
	AgentID  string            `json:"agent_id"`
	Model    string            `json:"model,omitempty"`
	Input    []inputMessage    `json:"input"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON lets the SDK send the request as a JSON body.
func (r responsesRequest) MarshalJSON() ([]byte, error) {
	type plain responsesRequest
	return json.Marshal(plain(r))
}

type responsesPayload struct {
	Output []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Query sends the message and waits at most the configured timeout. The
// deadline is applied on top of ctx; callers that must outlive their own
// request should detach ctx first.
func (o *OpenAI) Query(ctx context.Context, req Request) (Result, error) {
	if o.apiKey == "" {
		return Result{}, ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	body := responsesRequest{
		AgentID: req.AgentID,
		Model:   o.model,
		Input: []inputMessage{{
			Role:    "user",
			Content: []inputText{{Type: "input_text", Text: req.Message}},
		}},
	}
	if req.Username != "" {
		body.Metadata = map[string]string{"username": req.Username, "source": metadataSource}
	}

	var raw json.RawMessage
	err := o.client.Post(ctx, responsesPath, body, &raw)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Result{}, fmt.Errorf("%w: agent API returned %d: %v", ErrUpstream, apiErr.StatusCode, err)
		}
		return Result{}, fmt.Errorf("%w: network error: %v", ErrUpstream, err)
	}
	reply, err := flatten(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: decoding agent response: %v", ErrUpstream, err)
	}
	return Result{Reply: reply, Raw: raw}, nil
}

// flatten joins every text fragment of the response with newlines.
func flatten(raw json.RawMessage) (string, error) {
	var payload responsesPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", err
	}
	var parts []string
	for _, item := range payload.Output {
		for _, piece := range item.Content {
			if (piece.Type == "output_text" || piece.Type == "text") && piece.Text != "" {
				parts = append(parts, piece.Text)
			}
		}
	}
	if len(parts) == 0 {
		return EmptyReply, nil
	}
	return strings.Join(parts, "\n"), nil
}
