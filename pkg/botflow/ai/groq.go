package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Default request parameters. The reply path uses a conversational
// temperature; corrections run cold for consistent output.
const (
	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultModel       = "gemma2-9b-it"
	defaultMaxTokens   = 150
	replyTemperature   = 0.7
	correctTemperature = 0.1
)

const replySystemPrompt = "You are a helpful chatbot assistant."

const correctSystemPrompt = "You are an AI assistant specialized in correcting grammatical mistakes, " +
	"spelling errors, and awkward phrasing in user's input. Your sole task is to provide the " +
	"grammatically correct and polished version of the user's message. Do NOT add any extra " +
	"information, greetings, or explanations. Only return the corrected text. If the input is " +
	"already perfect, return it as is."

// Groq implements Client against an OpenAI-compatible chat completions
// endpoint.
type Groq struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	httpClient  *http.Client
	maxAttempts int
	backoff     time.Duration
}

// GroqOption configures Groq.
type GroqOption func(*Groq)

// NewGroq creates a new Groq client.
func NewGroq(apiKey string, opts ...GroqOption) *Groq {
	g := &Groq{
		baseURL:     defaultBaseURL,
		apiKey:      apiKey,
		model:       defaultModel,
		maxTokens:   defaultMaxTokens,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) GroqOption {
	return func(g *Groq) { g.baseURL = strings.TrimRight(url, "/") }
}

// WithModel sets the completion model.
func WithModel(model string) GroqOption {
	return func(g *Groq) { g.model = model }
}

// WithMaxTokens sets the reply token budget.
func WithMaxTokens(n int) GroqOption {
	return func(g *Groq) { g.maxTokens = n }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) GroqOption {
	return func(g *Groq) { g.httpClient = c }
}

// WithMaxAttempts sets the attempt limit for transient failures.
// Default: 3 (including the initial attempt).
func WithMaxAttempts(n int) GroqOption {
	return func(g *Groq) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// Reply implements Client.
func (g *Groq) Reply(ctx context.Context, userMessage string) (string, error) {
	content, err := g.complete(ctx, "reply", replySystemPrompt, userMessage, replyTemperature)
	if err != nil {
		return "", err
	}
	return sanitizeReply(content), nil
}

// Correct implements Client.
func (g *Groq) Correct(ctx context.Context, userMessage string) (string, error) {
	content, err := g.complete(ctx, "correct", correctSystemPrompt, userMessage, correctTemperature)
	if err != nil {
		return "", err
	}
	return unwrapFence(content), nil
}

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete issues a chat completion with bounded retry on transient
// failures.
func (g *Groq) complete(ctx context.Context, op, systemPrompt, userMessage string, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", NewError(op, fmt.Errorf("encode request: %w", err), false)
	}

	backoff := g.backoff
	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", NewError(op, ctx.Err(), false)
			}
			backoff *= 2
		}

		content, err := g.doRequest(ctx, op, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (g *Groq) doRequest(ctx context.Context, op string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", NewError(op, err, false)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", NewError(op, ctx.Err(), false)
		}
		return "", NewError(op, err, true)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewError(op, fmt.Errorf("read response: %w", err), true)
	}

	if resp.StatusCode != http.StatusOK {
		errMsg := fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		return "", NewError(op, errors.New(errMsg), isRetryableStatus(resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", NewError(op, fmt.Errorf("decode response: %w", err), false)
	}
	if len(parsed.Choices) == 0 {
		return "", NewError(op, errors.New("empty choices in response"), false)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// isRetryableStatus checks if an HTTP status indicates a transient error.
func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusServiceUnavailable,
		http.StatusBadGateway,
		http.StatusGatewayTimeout,
		529: // "overloaded", Groq-specific
		return true
	}
	return false
}

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	bulletPattern = regexp.MustCompile(`(?m)^\*\s*`)
)

// sanitizeReply strips markdown the model tends to emit so the sink can
// render plain text: **bold** markers removed, leading list asterisks
// turned into bullets.
func sanitizeReply(s string) string {
	s = boldPattern.ReplaceAllString(s, "$1")
	s = bulletPattern.ReplaceAllString(s, "• ")
	return s
}

// unwrapFence removes a surrounding code fence from a correction, which
// some models add despite instructions.
func unwrapFence(s string) string {
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") {
		inner := s
		if idx := strings.Index(inner, "\n"); idx >= 0 {
			inner = inner[idx+1:]
		} else {
			inner = strings.TrimPrefix(inner, "```")
		}
		inner = strings.TrimSuffix(inner, "```")
		return strings.TrimSpace(inner)
	}
	return s
}
