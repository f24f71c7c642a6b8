package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ===== CLIENT CONFIGURATION =====

// ClientConfig holds Gemini API client configuration.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	MaxRetries  int
	CallTimeout time.Duration
	RateLimit   time.Duration
	HTTPClient  *http.Client
	Logger      *zap.Logger
	Observer    Observer
}

// DefaultClientConfig returns sensible defaults: the public v1beta
// endpoint, three retries and a 120 second ceiling per logical call.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
		MaxRetries:  3,
		CallTimeout: 120 * time.Second,
		RateLimit:   100 * time.Millisecond,
	}
}

// Observer receives call outcomes for metrics. The zero observer is a
// no-op; the HTTP server installs a Prometheus-backed one.
type Observer interface {
	ObserveCall(model, outcome string, d time.Duration)
	ObserveFallback(primary, fallback string)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(string, string, time.Duration) {}
func (nopObserver) ObserveFallback(string, string)            {}

// ===== REQUEST / RESULT =====

// Image is inline media attached to a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is one structured-generation call. Schema, when set, is a
// JSON Schema map the API enforces on the response shape.
type Request struct {
	System string
	Prompt string
	Images []Image
	Schema map[string]any
	Config ModelConfig
}

// Usage reports token consumption for a completed call.
type Usage struct {
	PromptTokens int `json:"promptTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// Result is a successful structured generation. Raw holds the sanitized
// JSON payload; ModelUsed names the model that actually answered, which
// differs from the requested model when a fallback served the call.
type Result struct {
	Raw       json.RawMessage
	ModelUsed string
	Fallback  bool
	Usage     Usage
}

// Generator is the call surface agents depend on.
type Generator interface {
	GenerateStructured(ctx context.Context, req Request) (*Result, error)
}

// ===== CLIENT =====

// Client talks to the Google Generative Language REST API directly over
// net/http. It serializes request pacing, retries transient failures
// with exponential backoff and walks the static fallback chain when a
// model keeps failing.
type Client struct {
	apiKey      string
	baseURL     string
	maxRetries  int
	callTimeout time.Duration
	rateLimit   time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
	observer    Observer

	mu          sync.Mutex
	lastRequest time.Time
}

var _ Generator = (*Client)(nil)

// NewClient creates a Gemini API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	def := DefaultClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.CallTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		maxRetries:  cfg.MaxRetries,
		callTimeout: cfg.CallTimeout,
		rateLimit:   cfg.RateLimit,
		httpClient:  cfg.HTTPClient,
		logger:      cfg.Logger.Named("gemini"),
		observer:    cfg.Observer,
	}, nil
}

// GenerateStructured runs one structured-generation call. The requested
// model is tried first; on retryable exhaustion, an empty answer or an
// unparseable payload the client steps down the model's fallback chain.
// Context cancellation stops the walk immediately. The returned Raw
// payload is valid JSON: well-formed output is taken as-is, anything
// else goes through the repair chain first.
func (c *Client) GenerateStructured(ctx context.Context, req Request) (*Result, error) {
	// Every logical call gets a deadline even if the caller forgot one.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	primary := req.Config.Model
	candidates := append([]string{primary}, FallbackChain(primary)...)

	var lastErr error
	for i, model := range candidates {
		if i > 0 {
			c.logger.Warn("falling back to secondary model",
				zap.String("primary", primary),
				zap.String("fallback", model),
				zap.Error(lastErr))
			c.observer.ObserveFallback(primary, model)
		}
		text, usage, err := c.callModel(ctx, model, req)
		if err == nil {
			clean := Clean(text)
			if json.Valid([]byte(clean)) {
				return &Result{
					Raw:       json.RawMessage(clean),
					ModelUsed: model,
					Fallback:  i > 0,
					Usage:     usage,
				}, nil
			}
			lastErr = &DecodeError{Model: model, Head: head(clean, 160), Err: fmt.Errorf("payload is not valid JSON")}
			c.observer.ObserveCall(model, "decode_error", 0)
			continue
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("gemini call canceled: %w", ctx.Err())
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w (primary %s, %d candidates): %v",
		ErrChainExhausted, primary, len(candidates), lastErr)
}

// callModel issues the request against one concrete model, retrying
// transient failures with exponential backoff (1s, 2s, 4s, ...).
func (c *Client) callModel(ctx context.Context, model string, req Request) (string, Usage, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return "", Usage{}, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			c.logger.Warn("retrying Gemini call",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", Usage{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, usage, err := c.doRequest(ctx, model, body)
		if err == nil {
			return text, usage, nil
		}
		lastErr = err
		if !retryable(err) {
			return "", Usage{}, err
		}
	}
	return "", Usage{}, fmt.Errorf("gemini call to %s failed after %d attempts: %w",
		model, c.maxRetries+1, lastErr)
}

// doRequest performs a single HTTP round trip.
func (c *Client) doRequest(ctx context.Context, model string, body []byte) (string, Usage, error) {
	c.waitRateLimit()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", Usage{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observer.ObserveCall(model, "network_error", time.Since(start))
		return "", Usage{}, fmt.Errorf("gemini request: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		c.observer.ObserveCall(model, "network_error", time.Since(start))
		return "", Usage{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
		var parsed GeminiResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			apiErr.Status = parsed.Error.Status
			apiErr.Message = parsed.Error.Message
		}
		c.observer.ObserveCall(model, "api_error", time.Since(start))
		return "", Usage{}, apiErr
	}

	var parsed GeminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.observer.ObserveCall(model, "decode_error", time.Since(start))
		return "", Usage{}, &DecodeError{Model: model, Head: head(string(respBody), 160), Err: err}
	}
	if parsed.Error != nil {
		c.observer.ObserveCall(model, "api_error", time.Since(start))
		return "", Usage{}, &APIError{StatusCode: parsed.Error.Code, Status: parsed.Error.Status, Message: parsed.Error.Message}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		c.observer.ObserveCall(model, "empty", time.Since(start))
		return "", Usage{}, ErrEmptyResponse
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	usage := Usage{
		PromptTokens: parsed.UsageMetadata.PromptTokenCount,
		OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
		TotalTokens:  parsed.UsageMetadata.TotalTokenCount,
	}
	c.observer.ObserveCall(model, "ok", time.Since(start))
	c.logger.Debug("gemini call complete",
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", usage.TotalTokens))
	return text.String(), usage, nil
}

// buildRequest assembles the wire request from a structured call.
func (c *Client) buildRequest(req Request) GeminiRequest {
	parts := []GeminiPart{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, GeminiPart{InlineData: &GeminiInlineData{
			MIMEType: img.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}

	wire := GeminiRequest{
		Contents: []GeminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: GeminiGenerationConfig{
			Temperature:     req.Config.Temperature,
			MaxOutputTokens: req.Config.MaxOutputTokens,
		},
	}
	if req.System != "" {
		wire.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: req.System}}}
	}
	if req.Schema != nil {
		wire.GenerationConfig.ResponseMimeType = "application/json"
		wire.GenerationConfig.ResponseJSONSchema = req.Schema
	}
	return wire
}

// waitRateLimit enforces minimum spacing between outbound requests.
func (c *Client) waitRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elapsed := time.Since(c.lastRequest); elapsed < c.rateLimit {
		time.Sleep(c.rateLimit - elapsed)
	}
	c.lastRequest = time.Now()
}
