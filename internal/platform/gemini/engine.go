// Package gemini implements the generation.TextEngine interface using
// Google's Gemini API for transcript optimization, translation, and
// summarization.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/qwerprog/scribe-api/internal/config"
	"github.com/qwerprog/scribe-api/internal/generation"
)

// SummaryUnavailable is returned by Summarize when no engine is
// configured. It is a documented placeholder, not an error.
const SummaryUnavailable = "Summary unavailable: no language model configured."

// Engine talks to the Gemini API. When no API key is configured the
// engine is created in unavailable mode: optimization and translation
// pass text through unchanged and summarization returns a fixed
// placeholder.
type Engine struct {
	logger *slog.Logger
	config config.LLMConfig

	// client is nil when the engine is unavailable.
	client *genai.Client
	model  string
}

// NewEngine creates an Engine from the LLM configuration.
//
// A missing API key is not an error: the engine comes up unavailable and
// every call degrades to its documented pass-through behavior. Other
// configuration problems (empty model name, client construction failure)
// are errors.
func NewEngine(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Engine, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	engine := &Engine{
		logger: logger.With("component", "gemini_engine"),
		config: cfg,
		model:  cfg.ModelName,
	}

	if cfg.GeminiAPIKey == "" {
		engine.logger.Warn("gemini API key not configured, text generation disabled")
		return engine, nil
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	engine.client = client
	engine.logger.Info("gemini engine initialized", "model", cfg.ModelName)
	return engine, nil
}

// Available reports whether the engine can reach a language model.
func (e *Engine) Available() bool {
	return e.client != nil
}

// OptimizeTranscript cleans up a raw transcript. Best-effort: an
// unavailable engine or a failed call returns the input unchanged.
func (e *Engine) OptimizeTranscript(ctx context.Context, rawText string) (string, error) {
	if !e.Available() || strings.TrimSpace(rawText) == "" {
		return rawText, nil
	}

	prompt := fmt.Sprintf(`Please improve the readability of the following video transcript while preserving its meaning.

Requirements:
- Fix grammar and punctuation
- Merge fragmented sentences into coherent paragraphs
- Keep the original content complete; add no new information
- Use Markdown formatting
- Do not add headings or commentary

Transcript:
`+"```\n%s\n```", rawText)

	optimized, err := e.callWithRetry(ctx, prompt, 0.3, 4000)
	if err != nil {
		e.logger.Warn("transcript optimization failed, keeping raw transcript", "error", err)
		return rawText, nil
	}
	return normalizeParagraphs(optimized), nil
}

// Translate renders text into targetLanguage. Best-effort: an
// unavailable engine, equivalent languages, or a failed call all return
// the input unchanged.
func (e *Engine) Translate(ctx context.Context, text, targetLanguage, sourceLanguage string) (string, error) {
	if !e.Available() || strings.TrimSpace(text) == "" {
		return text, nil
	}
	if !generation.ShouldTranslate(sourceLanguage, targetLanguage) {
		return text, nil
	}

	sourceName := generation.LanguageName(sourceLanguage)
	targetName := generation.LanguageName(targetLanguage)
	e.logger.Info("translating text", "source", sourceName, "target", targetName)

	prompt := fmt.Sprintf(`You are a professional translator. Translate the following %s text into %s accurately and fluently.

Requirements:
- Strictly preserve the original formatting and paragraph structure, including Markdown markup
- Convey the original meaning in natural, idiomatic language
- Keep technical terms, personal names, and place names accurate
- Add no explanations, annotations, or original text
- Output only the translated %s text

Text to translate:
`+"```\n%s\n```", sourceName, targetName, targetName, text)

	translated, err := e.callWithRetry(ctx, prompt, 0.1, 4000)
	if err != nil {
		e.logger.Warn("translation failed, keeping untranslated text", "error", err)
		return text, nil
	}
	return normalizeParagraphs(translated), nil
}

// Summarize produces a summary of text in targetLanguage. Unlike the
// best-effort operations, a failed call is reported to the caller; an
// unavailable engine yields the documented placeholder.
func (e *Engine) Summarize(ctx context.Context, text, targetLanguage, title string) (string, error) {
	if !e.Available() {
		return SummaryUnavailable, nil
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no content to summarize", generation.ErrInvalidResponse)
	}

	languageName := generation.LanguageName(targetLanguage)
	e.logger.Info("generating summary", "title", title, "language", languageName)

	prompt := fmt.Sprintf(`Please write a detailed summary in %s of the following video content.

Video title: %s

Requirements:
- Use Markdown formatting
- Cover the main points and key information
- Structure the summary with headings and lists
- Aim for roughly 300-500 words
- Write entirely in %s

Content:
`+"```\n%s\n```", languageName, title, languageName, text)

	summary, err := e.callWithRetry(ctx, prompt, 0.3, 4000)
	if err != nil {
		return "", err
	}
	return normalizeParagraphs(summary), nil
}

// callWithRetry makes a Gemini generate-content call with exponential
// backoff and jitter. Transient errors are retried up to the configured
// maximum; permanent errors (blocked content, malformed response) return
// immediately.
func (e *Engine) callWithRetry(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error) {
	maxRetries := e.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := e.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		text, err := e.generate(ctx, prompt, temperature, maxTokens)
		if err == nil {
			return text, nil
		}
		lastErr = err

		// Permanent errors are not worth retrying.
		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return "", err
		}
		if attempt >= maxRetries {
			break
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		e.logger.Info("retrying gemini call",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
		generation.ErrTransientFailure, maxRetries, lastErr)
}

// generate performs one generate-content call and validates the response.
func (e *Engine) generate(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error) {
	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxTokens,
	})
	if err != nil {
		// API/network failures are assumed transient.
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response blocked", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}
	return text, nil
}

// normalizeParagraphs tidies model output: CRLF to LF, runs of blank
// lines collapsed to one, surrounding whitespace trimmed.
func normalizeParagraphs(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}
