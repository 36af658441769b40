package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/llm"
	goopenai "github.com/sashabaranov/go-openai"
)

var _ llm.Completer = (*Client)(nil)

// Generate sends the prompt as a single user message and returns the first choice.
// NumCtx has no chat-completions equivalent and is ignored.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	rid := uuid.New().String()
	start := time.Now()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return llm.GenerateResponse{}, common.TransportError(fmt.Errorf("rate limit wait: %w", err))
		}
	}

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	c.logger.Debug("llm.openai.request",
		"req_id", rid,
		"model", model,
		"prompt_len", len(req.Prompt),
	)

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.cfg.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("llm.openai.api_error",
				"req_id", rid, "status", apiErr.HTTPStatusCode, "error", apiErr.Message,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		} else {
			c.logger.Error("llm.openai.send_error",
				"req_id", rid, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		}
		return llm.GenerateResponse{}, common.TransportError(fmt.Errorf("openai chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return llm.GenerateResponse{}, common.TransportError(errors.New("no choices in openai response"))
	}

	c.logger.Debug("llm.openai.response",
		"req_id", rid,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.GenerateResponse{Text: resp.Choices[0].Message.Content}, nil
}
