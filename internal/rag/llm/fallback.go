package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/metrics"
	"github.com/akolanti/PDFChat/internal/rag/providerErrors"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

// GenerationError is returned when every attempt at producing an answer failed.
type GenerationError struct {
	Provider string
	Attempts int
	Kind     providerErrors.Kind
	Err      error
}

func (e *GenerationError) Error() string {
	var hint string
	switch e.Kind {
	case providerErrors.KindQuota:
		hint = "The model provider is rate limiting requests. Wait a minute before asking again, or switch to another processing mode."
	case providerErrors.KindTimeout:
		hint = "The model took too long to answer. Try a shorter or more specific question, or wait a moment and try again."
	case providerErrors.KindEmptyOutput:
		hint = "The model returned an empty answer. Try rephrasing or shortening the question."
	default:
		hint = "Try shortening the question, wait a moment before retrying, or switch to another processing mode."
	}
	return fmt.Sprintf("Could not get an answer from %s after %d attempt(s). %s (%s: %v)",
		e.Provider, e.Attempts, hint, providerErrors.TypeName(e.Err), e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type Reply struct {
	Text     string
	Provider string
	Notes    []string
}

// Fallback asks the paid provider once when bound and otherwise, or after it fails, the free
// provider with a bounded number of attempts.
type Fallback struct {
	paid     Provider
	free     Provider
	attempts int
	timeout  time.Duration
	backoff  time.Duration
	logger   *logger_i.Logger
}

type FallbackOption func(*Fallback)

func WithAttempts(n int) FallbackOption {
	return func(f *Fallback) { f.attempts = n }
}

func WithTimeout(d time.Duration) FallbackOption {
	return func(f *Fallback) { f.timeout = d }
}

func WithBackoff(d time.Duration) FallbackOption {
	return func(f *Fallback) { f.backoff = d }
}

func NewFallback(paid Provider, free Provider, opts ...FallbackOption) (*Fallback, error) {
	if free == nil {
		return nil, errors.New("a free answer generator is required")
	}
	f := &Fallback{
		paid:     paid,
		free:     free,
		attempts: config.GenerationAttempts,
		timeout:  config.ProviderTimeout,
		backoff:  config.GenerationRetryBackoff,
		logger:   logger_i.NewLogger("Answer Generator"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.attempts < 1 {
		f.attempts = 1
	}
	return f, nil
}

// Name is the provider that will be tried first.
func (f *Fallback) Name() string {
	if f.paid != nil {
		return f.paid.Name()
	}
	return f.free.Name()
}

func RestateQuestion(question string) string {
	return config.QuestionPrefix + strings.TrimSpace(question)
}

func (f *Fallback) Generate(ctx context.Context, question string, matches []string, history []commonModels.Turn) (Reply, error) {
	log := f.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	prompt := RestateQuestion(question)

	var notes []string
	if f.paid != nil {
		answer, err := f.call(ctx, f.paid, prompt, matches, history)
		if err == nil {
			return Reply{Text: answer, Provider: f.paid.Name()}, nil
		}
		kind := providerErrors.Classify(err)
		metrics.CaptureFallback("generation", string(kind))
		log.Warn("Paid generation failed, using free provider", "provider", f.paid.Name(), "kind", kind, "error", err)
		notes = append(notes, fmt.Sprintf("%s failed (%s), answered with %s instead", f.paid.Name(), kind, f.free.Name()))
	}

	var lastErr error
	attempt := 0
	for attempt < f.attempts {
		attempt++
		answer, err := f.call(ctx, f.free, prompt, matches, history)
		if err == nil {
			return Reply{Text: answer, Provider: f.free.Name(), Notes: notes}, nil
		}
		lastErr = err
		kind := providerErrors.Classify(err)
		log.Warn("Generation attempt failed", "provider", f.free.Name(), "attempt", attempt, "kind", kind, "error", err)

		if attempt == f.attempts || !providerErrors.Retryable(err) || ctx.Err() != nil {
			break
		}
		metrics.CaptureRetry(f.free.Name(), string(kind))
		if err := sleep(ctx, f.backoff*time.Duration(attempt)); err != nil {
			break
		}
	}

	genErr := &GenerationError{
		Provider: f.free.Name(),
		Attempts: attempt,
		Kind:     providerErrors.Classify(lastErr),
		Err:      lastErr,
	}
	log.Error("Generation failed", "provider", f.free.Name(), "attempts", attempt, "error", lastErr)
	return Reply{Notes: notes}, genErr
}

func (f *Fallback) call(ctx context.Context, p Provider, prompt string, matches []string, history []commonModels.Turn) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_"+p.Name(), time.Since(start)) }()

	answer, err := p.Generate(callCtx, prompt, matches, history)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", providerErrors.ErrEmptyOutput
	}
	return strings.TrimSpace(answer), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
