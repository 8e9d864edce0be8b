package gemini

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerprog/scribe-api/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func unavailableEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background(), testLogger(), config.LLMConfig{
		GeminiAPIKey: "", // no key: engine must come up unavailable
		ModelName:    "gemini-2.0-flash",
	})
	require.NoError(t, err)
	require.False(t, engine.Available())
	return engine
}

func TestNewEngineWithoutKeyIsUnavailable(t *testing.T) {
	engine := unavailableEngine(t)
	assert.False(t, engine.Available())
}

func TestNewEngineNilLogger(t *testing.T) {
	_, err := NewEngine(context.Background(), nil, config.LLMConfig{})
	assert.Error(t, err)
}

func TestOptimizePassThroughWhenUnavailable(t *testing.T) {
	engine := unavailableEngine(t)

	raw := "so um today we're gonna talk about uh channels"
	got, err := engine.OptimizeTranscript(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestTranslatePassThroughWhenUnavailable(t *testing.T) {
	engine := unavailableEngine(t)

	text := "# Title\n\nSome content."
	got, err := engine.Translate(context.Background(), text, "zh", "en")
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestTranslatePassThroughForEquivalentLanguages(t *testing.T) {
	engine := unavailableEngine(t)

	text := "内容"
	got, err := engine.Translate(context.Background(), text, "zh", "zh-CN")
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestSummarizePlaceholderWhenUnavailable(t *testing.T) {
	engine := unavailableEngine(t)

	got, err := engine.Summarize(context.Background(), "some transcript", "en", "A talk")
	require.NoError(t, err)
	assert.Equal(t, SummaryUnavailable, got)
}

func TestNormalizeParagraphs(t *testing.T) {
	in := "line one\r\n\r\n\r\n\r\nline two\n\n\nline three\n\n"
	got := normalizeParagraphs(in)
	assert.Equal(t, "line one\n\nline two\n\nline three", got)
}
