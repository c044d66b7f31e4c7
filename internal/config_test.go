package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgconfig "github.com/starford/hunlearn/pkg/config"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Auth.JWTSecret = "0123456789abcdef0123"
	return cfg
}

func TestDefaultConfigNeedsSecret(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config without jwt secret should fail")
	}
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}
}

func TestAuthConfig_ShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("short secret should fail")
	}
}

func TestAuthConfig_RefreshShorterThanAccess(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.RefreshTTL = cfg.Auth.AccessTTL - time.Hour
	if err := cfg.Validate(); err == nil {
		t.Fatal("refresh ttl below access ttl should fail")
	}
}

func TestAuthConfig_BcryptCost(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.BcryptCost = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("bcrypt cost below minimum should fail")
	}
	cfg.Auth.BcryptCost = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero cost means library default: %v", err)
	}
}

func TestCORSConfig(t *testing.T) {
	cfg := validConfig()
	cfg.App.CORS.AllowedOrigins = []string{"*"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("wildcard origin: %v", err)
	}
	cfg.App.CORS.AllowedOrigins = []string{"not a url"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("malformed origin should fail")
	}
}

func TestTutorConfig_HostedNeedsKey(t *testing.T) {
	cfg := validConfig()
	cfg.Tutor.Provider = "anthropic"
	if err := cfg.Validate(); err == nil {
		t.Fatal("hosted provider without api key should fail")
	}
	cfg.Tutor.Provider = "mock"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("mock provider: %v", err)
	}
}

func TestFSRSConfig_Range(t *testing.T) {
	cfg := validConfig()
	cfg.FSRS.RequestRetention = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("retention above 0.99 should fail")
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("HUNLEARN_TEST_SECRET", "a-very-long-test-secret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: ${HUNLEARN_TEST_PORT:-9090}
auth:
  jwt_secret: ${HUNLEARN_TEST_SECRET}
  access_ttl: 1h
  refresh_ttl: 24h
content:
  dir: ./content
  watch: true
events:
  leaderboard_throttle: 2s
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.App.HTTP.Port)
	}
	if cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("log level = %s", cfg.App.LogLevel)
	}
	if cfg.Auth.AccessTTL != time.Hour || cfg.Auth.RefreshTTL != 24*time.Hour {
		t.Errorf("ttls = %s/%s", cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	}
	if cfg.Auth.Issuer != "hunlearn" {
		t.Errorf("issuer default lost: %q", cfg.Auth.Issuer)
	}
	if !cfg.Content.Watch || cfg.Content.Dir != "./content" {
		t.Errorf("content = %+v", cfg.Content)
	}
	if cfg.Events.LeaderboardThrottle != 2*time.Second {
		t.Errorf("throttle = %s", cfg.Events.LeaderboardThrottle)
	}
	if cfg.SQLite.Path != "./hunlearn.db" {
		t.Errorf("sqlite default lost: %q", cfg.SQLite.Path)
	}
}
