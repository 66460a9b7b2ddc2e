package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	cclog "github.com/yzzting/commit-crafter/internal/log"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 60 * time.Second

	maxRetries = 3
)

// ErrMissingCredentials is returned when the API key or URL is not set.
var ErrMissingCredentials = errors.New("OpenAI API key or URL is empty")

// Request is one chat-completions call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
}

// Response is the generated text and the tokens it cost.
type Response struct {
	Content    string
	TokensUsed int
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Options configure an OpenAI client.
type Options struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

// OpenAI implements Generator for OpenAI-compatible endpoints.
type OpenAI struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// NewOpenAI creates a client. The URL may be a bare host, a /v1 base or a
// full chat-completions endpoint.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" || strings.TrimSpace(opts.URL) == "" {
		return nil, ErrMissingCredentials
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAI{
		apiKey:   opts.APIKey,
		model:    model,
		endpoint: NormalizeURL(opts.URL),
		client:   &http.Client{Timeout: timeout},
		log:      cclog.WithComponent("llm"),
	}, nil
}

// NormalizeURL turns a configured base URL into a chat-completions endpoint.
func NormalizeURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	switch {
	case strings.HasSuffix(u, "/chat/completions"):
		return u
	case strings.HasSuffix(u, "/v1"):
		return u + "/chat/completions"
	default:
		return u + "/v1/chat/completions"
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Model returns the model requests are sent to.
func (o *OpenAI) Model() string { return o.model }

// Endpoint returns the normalized chat-completions URL.
func (o *OpenAI) Endpoint() string { return o.endpoint }

func (o *OpenAI) Generate(ctx context.Context, req Request) (Response, error) {
	body := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	var resp Response
	err = retryWithBackoff(ctx, maxRetries, func(attempt int) error {
		start := time.Now()
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

		httpResp, err := o.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		o.log.Debug().
			Int("attempt", attempt+1).
			Int("status", httpResp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("chat completion response")

		switch {
		case httpResp.StatusCode == http.StatusTooManyRequests:
			return &rateLimitError{}
		case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
			return &AuthError{StatusCode: httpResp.StatusCode, Message: string(respBody)}
		case httpResp.StatusCode >= 500:
			return &serverError{statusCode: httpResp.StatusCode, body: string(respBody)}
		case httpResp.StatusCode != http.StatusOK:
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
		}

		if !gjson.ValidBytes(respBody) {
			return fmt.Errorf("parsing response: invalid JSON")
		}
		content := gjson.GetBytes(respBody, "choices.0.message.content")
		if !content.Exists() {
			return fmt.Errorf("no choices in response")
		}
		if content.String() == "" {
			return fmt.Errorf("empty text content in API response")
		}

		resp = Response{
			Content:    content.String(),
			TokensUsed: int(gjson.GetBytes(respBody, "usage.total_tokens").Int()),
		}
		return nil
	})

	return resp, err
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
