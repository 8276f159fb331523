package induce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces a structured completion for a conversation. The
// schema constrains the model's output to a JSON document.
type Client interface {
	CompleteStructured(ctx context.Context, msgs []Message, schema map[string]any) (json.RawMessage, error)
}

// ClientConfig configures an OpenAI-format chat client.
type ClientConfig struct {
	// Endpoint is the server base URL, e.g. "http://localhost:8000".
	Endpoint string

	// Model is the model name passed through to the server.
	Model string

	// APIKey is sent as a bearer token when non-empty. Local servers
	// (vLLM, Ollama) typically need none.
	APIKey string

	// Timeout bounds each HTTP call. Default 120s.
	Timeout time.Duration
}

// OpenAIClient implements Client against the OpenAI /v1/chat/completions
// API format. This covers vLLM, Ollama, LiteLLM, and OpenAI itself.
type OpenAIClient struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewOpenAIClient creates a chat client from the config.
func NewOpenAIClient(cfg ClientConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// chatRequest is the JSON body sent to /v1/chat/completions.
type chatRequest struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	ResponseFormat any       `json:"response_format,omitempty"`
	Temperature    float64   `json:"temperature"`
}

// chatResponse is the JSON response (OpenAI format).
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// CompleteStructured sends the conversation with a json_schema response
// format and returns the model's JSON output. Models that ignore the
// response format and wrap their JSON in a markdown code fence are
// handled by stripping the fence.
func (c *OpenAIClient) CompleteStructured(ctx context.Context, msgs []Message, schema map[string]any) (json.RawMessage, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: msgs,
	}
	if schema != nil {
		reqBody.ResponseFormat = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "response",
				"schema": schema,
				"strict": true,
			},
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.endpoint + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from %s", url)
	}

	return json.RawMessage(stripMarkdownFence(result.Choices[0].Message.Content)), nil
}

// stripMarkdownFence removes a surrounding ```json / ``` code fence if
// present, returning the inner content trimmed.
func stripMarkdownFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
