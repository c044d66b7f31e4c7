package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wordSchema = &Schema{
	Name: "test-word",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"word", "level", "examples"},
		"properties": map[string]any{
			"word":  map[string]any{"type": "string", "minLength": 2},
			"level": map[string]any{"type": "string", "enum": []any{"A1", "A2"}},
			"examples": map[string]any{
				"type":     "array",
				"minItems": 2,
				"items":    map[string]any{"type": "string"},
			},
			"score": map[string]any{"type": "integer", "minimum": 1},
		},
	},
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func noSleep(r Provider, waits *[]time.Duration) {
	r.(*retrying).sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func TestValidate(t *testing.T) {
	ok := json.RawMessage(`{"word":"ige","level":"A1","examples":["a","b"]}`)
	require.NoError(t, Validate(wordSchema, ok))
	require.NoError(t, Validate(nil, json.RawMessage(`not json`)))

	for _, bad := range []string{`not json`, `{"word":"ige"}`, `{"word":"ige","level":"C2","examples":["a","b"]}`} {
		err := Validate(wordSchema, json.RawMessage(bad))
		var inv *InvalidResponseError
		assert.True(t, errors.As(err, &inv), bad)
	}
}

func TestExampleSatisfiesSchema(t *testing.T) {
	b, err := json.Marshal(Example(wordSchema.Definition))
	require.NoError(t, err)
	require.NoError(t, Validate(wordSchema, b))

	var got struct {
		Level    string   `json:"level"`
		Examples []string `json:"examples"`
		Score    int      `json:"score"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "A1", got.Level)
	assert.Len(t, got.Examples, 2)
	assert.Equal(t, 1, got.Score)
}

func TestRetryTransientThenSuccess(t *testing.T) {
	mock := NewMock(
		Canned{Err: &RateLimitError{RetryAfter: 3 * time.Second}},
		Canned{Err: &UnavailableError{}},
		Canned{Content: json.RawMessage(`{"word":"hit","level":"A1","examples":["x","y"]}`)},
	)
	r := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Second, MaxWait: 10 * time.Second, Multiplier: 2})
	var waits []time.Duration
	noSleep(r, &waits)

	resp, err := r.Generate(context.Background(), UserPrompt("", "hi", wordSchema, 100))
	require.NoError(t, err)
	assert.JSONEq(t, `{"word":"hit","level":"A1","examples":["x","y"]}`, string(resp.Content))
	require.Len(t, waits, 2)
	assert.Equal(t, 3*time.Second, waits[0], "rate limit honours RetryAfter")
	assert.InDelta(t, float64(2*time.Second), float64(waits[1]), float64(400*time.Millisecond), "second backoff with jitter")
}

func TestRetryInvalidResponseOnce(t *testing.T) {
	mock := NewMock(
		Canned{Content: json.RawMessage(`{}`)},
		Canned{Content: json.RawMessage(`{}`)},
		Canned{Content: json.RawMessage(`{"word":"hit","level":"A1","examples":["x","y"]}`)},
	)
	r := WithRetry(mock, RetryConfig{MaxAttempts: 5, InitialWait: time.Millisecond})
	var waits []time.Duration
	noSleep(r, &waits)

	_, err := r.Generate(context.Background(), UserPrompt("", "hi", wordSchema, 100))
	var inv *InvalidResponseError
	require.ErrorAs(t, err, &inv)
	assert.Len(t, mock.Calls(), 2)
}

func TestRetryStopsOnTruncationAndCancel(t *testing.T) {
	mock := NewMock(Canned{Err: &TruncatedError{}})
	r := WithRetry(mock, RetryConfig{MaxAttempts: 3})
	_, err := r.Generate(context.Background(), UserPrompt("", "hi", nil, 10))
	var trunc *TruncatedError
	require.ErrorAs(t, err, &trunc)
	assert.Len(t, mock.Calls(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock = NewMock(Canned{Err: &UnavailableError{}}, Canned{Err: &UnavailableError{}})
	r = WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour})
	_, err = r.Generate(ctx, UserPrompt("", "hi", nil, 10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, mock.Calls(), 1)
}

func TestMockFallback(t *testing.T) {
	m := &Mock{}
	_, err := m.Generate(context.Background(), UserPrompt("", "hi", wordSchema, 10))
	var unavail *UnavailableError
	require.ErrorAs(t, err, &unavail)

	m.Fallback = true
	resp, err := m.Generate(context.Background(), UserPrompt("", "hi", wordSchema, 10))
	require.NoError(t, err)
	require.NoError(t, Validate(wordSchema, resp.Content))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.Enabled())

	cfg.Provider = ProviderGemini
	assert.Error(t, cfg.Validate(), "hosted provider needs a key")
	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "llama"
	assert.Error(t, cfg.Validate())
}

func TestNewProvider(t *testing.T) {
	p, err := New(context.Background(), DefaultConfig(), discard())
	require.NoError(t, err)
	assert.Nil(t, p)

	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err = New(context.Background(), cfg, discard())
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}
