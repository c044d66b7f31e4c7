package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Provider names.
const (
	ProviderDisabled  = "disabled"
	ProviderMock      = "mock"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// Config selects and configures the provider.
type Config struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

// DefaultConfig has the provider disabled.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderDisabled,
		Timeout:  30 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
	}
}

// Enabled reports whether a provider is configured.
func (c *Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderDisabled
}

// Validate checks the provider name and that hosted providers have a key.
func (c *Config) Validate() error {
	if c.Provider == "" {
		c.Provider = ProviderDisabled
	}
	hosted := c.Provider == ProviderAnthropic || c.Provider == ProviderOpenAI || c.Provider == ProviderGemini
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(ProviderDisabled, ProviderMock, ProviderAnthropic, ProviderOpenAI, ProviderGemini)),
		validation.Field(&c.APIKey, validation.When(hosted, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Retry),
	)
}

// Validate bounds the retry policy.
func (c RetryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxAttempts, validation.Min(0), validation.Max(10)),
		validation.Field(&c.Multiplier, validation.Min(0.0)),
	)
}

// New builds the configured provider wrapped with retries and logging. It
// returns nil when the provider is disabled.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "", ProviderDisabled:
		return nil, nil
	case ProviderMock:
		base = &Mock{Fallback: true}
	case ProviderAnthropic:
		base, err = NewAnthropic(cfg)
	case ProviderOpenAI:
		base, err = NewOpenAI(cfg)
	case ProviderGemini:
		base, err = NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(WithLogging(base, logger), cfg.Retry), nil
}
