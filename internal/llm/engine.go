package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Attempt results reported to an AttemptObserver.
const (
	AttemptJSON           = "json"
	AttemptNoJSON         = "no_json"
	AttemptTransportError = "transport_error"
)

// AttemptObserver is notified once per model call.
type AttemptObserver interface {
	ObserveAttempt(strategy, result string)
}

// EngineConfig holds the per-request model options.
type EngineConfig struct {
	Model              string
	NumCtx             int
	MaxTranscriptChars int // 0 = DefaultMaxTranscriptChars
}

// EngineResult is the outcome of Extract.
type EngineResult struct {
	// Text is the response of the winning attempt, or of the last attempt
	// when none produced a JSON object. Empty if that attempt failed in transport.
	Text      string
	Attempts  int
	Strategy  string
	Recovered bool // Text contains a parseable JSON object
}

// Engine turns a transcript into raw model text, retrying once with a stricter prompt.
type Engine struct {
	completer  Completer
	cfg        EngineConfig
	strategies []PromptStrategy
	schema     *jsonschema.Schema
	observer   AttemptObserver
	logger     *slog.Logger
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithStrategies replaces the default primary/fallback prompt order.
func WithStrategies(s ...PromptStrategy) EngineOption {
	return func(e *Engine) {
		if len(s) > 0 {
			e.strategies = s
		}
	}
}

// WithAttemptObserver attaches a per-attempt hook (metrics).
func WithAttemptObserver(o AttemptObserver) EngineOption {
	return func(e *Engine) { e.observer = o }
}

func NewEngine(completer Completer, cfg EngineConfig, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTranscriptChars <= 0 {
		cfg.MaxTranscriptChars = DefaultMaxTranscriptChars
	}
	e := &Engine{
		completer:  completer,
		cfg:        cfg,
		strategies: DefaultStrategies(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	schema, err := CompileSchema(BuildInvoiceJSONSchema())
	if err != nil {
		logger.Warn("llm.engine.schema_compile_error", "error", err)
	} else {
		e.schema = schema
	}
	return e
}

// Extract queries the model with each strategy in order and stops at the first
// response that contains a JSON object. Transport failures count as an attempt
// that produced no text. The only error returned is ctx's.
func (e *Engine) Extract(ctx context.Context, transcript string) (EngineResult, error) {
	truncated := TruncateTranscript(transcript, e.cfg.MaxTranscriptChars)
	e.logger.Debug("llm.engine.start",
		"transcript_chars", len([]rune(transcript)),
		"truncated", len(truncated) < len(transcript),
		"strategies", len(e.strategies),
	)

	var res EngineResult
	for _, strategy := range e.strategies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempts++
		res.Strategy = strategy.Name
		start := time.Now()

		resp, err := e.completer.Generate(ctx, GenerateRequest{
			Model:  e.cfg.Model,
			Prompt: strategy.Build(truncated),
			NumCtx: e.cfg.NumCtx,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			e.logger.Warn("llm.engine.attempt_error",
				"attempt", res.Attempts, "strategy", strategy.Name, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			e.observe(strategy.Name, AttemptTransportError)
			res.Text = ""
			continue
		}

		res.Text = resp.Text
		obj, ok := ExtractJSONObject(resp.Text)
		if !ok {
			e.logger.Info("llm.engine.attempt_no_json",
				"attempt", res.Attempts, "strategy", strategy.Name,
				"response_chars", len(resp.Text),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			e.observe(strategy.Name, AttemptNoJSON)
			continue
		}

		e.observe(strategy.Name, AttemptJSON)
		e.checkSchema(strategy.Name, obj)
		e.logger.Info("llm.engine.attempt_ok",
			"attempt", res.Attempts, "strategy", strategy.Name,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		res.Recovered = true
		return res, nil
	}
	return res, nil
}

// checkSchema only logs; the normalizer coerces whatever shape arrived.
func (e *Engine) checkSchema(strategy string, obj map[string]any) {
	if e.schema == nil {
		return
	}
	if err := e.schema.Validate(obj); err != nil {
		e.logger.Warn("llm.engine.schema_mismatch", "strategy", strategy, "error", err)
	}
}

func (e *Engine) observe(strategy, result string) {
	if e.observer != nil {
		e.observer.ObserveAttempt(strategy, result)
	}
}
