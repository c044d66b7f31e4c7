package llm

import (
	"context"
	"log/slog"
	"time"
)

type logged struct {
	inner  Provider
	logger *slog.Logger
}

// WithLogging logs every call with its purpose, latency and token usage.
func WithLogging(p Provider, logger *slog.Logger) Provider {
	return &logged{inner: p, logger: logger}
}

func (l *logged) ModelID() string { return l.inner.ModelID() }

func (l *logged) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	attrs := []any{
		slog.String("model", l.inner.ModelID()),
		slog.String("purpose", PurposeFrom(ctx)),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
	}
	if err != nil {
		l.logger.Warn("llm request failed", append(attrs, slog.String("error", err.Error()))...)
		return nil, err
	}
	l.logger.Info("llm request", append(attrs,
		slog.Int("input_tokens", resp.Usage.InputTokens),
		slog.Int("output_tokens", resp.Usage.OutputTokens),
	)...)
	return resp, nil
}
