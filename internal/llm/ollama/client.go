package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/llm"
)

const DefaultBaseURL = "http://localhost:11434"

// Config for the Ollama generate endpoint.
type Config struct {
	BaseURL    string        // default http://localhost:11434
	Model      string        // used when the request carries none
	Timeout    time.Duration // 0 = transport default
	RatePerSec float64       // 0 = unlimited
}

// Client implements llm.Completer against POST {base}/api/generate.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

type generateOptions struct {
	NumCtx int `json:"num_ctx,omitempty"`
}

type generateBody struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateReply struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	if cfg.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return c
}

var _ llm.Completer = (*Client)(nil)

// Generate sends one non-streaming request and returns the "response" field.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return llm.GenerateResponse{}, common.TransportError(fmt.Errorf("rate limit wait: %w", err))
		}
	}

	body := generateBody{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: false,
	}
	if body.Model == "" {
		body.Model = c.cfg.Model
	}
	if req.NumCtx > 0 {
		body.Options = &generateOptions{NumCtx: req.NumCtx}
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/generate"
	raw, err := llm.PostJSON(ctx, c.http, url, body, c.logger)
	if err != nil {
		var se *llm.StatusError
		if errors.As(err, &se) {
			var reply generateReply
			if json.Unmarshal(se.Body, &reply) == nil && reply.Error != "" {
				err = fmt.Errorf("%w: %s", err, reply.Error)
			}
		}
		return llm.GenerateResponse{}, common.TransportError(fmt.Errorf("ollama generate: %w", err))
	}

	var reply generateReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return llm.GenerateResponse{}, common.TransportError(fmt.Errorf("decode ollama response: %w", err))
	}
	if reply.Error != "" {
		return llm.GenerateResponse{}, common.TransportError(fmt.Errorf("ollama error: %s", reply.Error))
	}
	return llm.GenerateResponse{Text: reply.Response}, nil
}
