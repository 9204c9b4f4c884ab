package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		App:      AppConfig{Env: "local", Port: 3001},
		DB:       DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "careshare"},
		Outbound: OutboundConfig{RatePerSecond: 1, MaxConcurrent: 1},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.HasPrefix(err.Error(), "config errors:") {
		t.Fatalf("expected aggregated errors, got %q", err)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Behavior.AppointmentTransitions != TransitionsStrict {
		t.Fatalf("expected strict transitions by default, got %q", c.Behavior.AppointmentTransitions)
	}
}

func TestValidate_DatabaseURLReplacesParts(t *testing.T) {
	c := Config{
		App:      AppConfig{Env: "production", Port: 8080},
		DB:       DBConfig{URL: "postgres://u:p@db:5432/careshare?sslmode=require"},
		Outbound: OutboundConfig{RatePerSecond: 1, MaxConcurrent: 1},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.PostgresDSN() != c.DB.URL {
		t.Fatalf("expected DSN to be the URL")
	}
}

func TestValidate_AuthNeedsSecret(t *testing.T) {
	c := validConfig()
	c.Auth.Enabled = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when auth is enabled without a secret")
	}
}

func TestValidate_RejectsUnknownModes(t *testing.T) {
	c := validConfig()
	c.Behavior.AppointmentTransitions = "loose"
	c.Behavior.SkillMatcher = "fuzzy"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "APPOINTMENT_TRANSITIONS") || !strings.Contains(err.Error(), "SKILL_MATCHER") {
		t.Fatalf("expected both problems reported, got %q", err)
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("PORT", "4000")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/careshare")
	t.Setenv("XI_API_KEY", "key-1234")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("SKILL_MATCHER", "boundary")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 4000 {
		t.Fatalf("expected PORT fallback, got %d", c.App.Port)
	}
	if c.ElevenLabs.APIKey != "key-1234" {
		t.Fatalf("expected XI_API_KEY alias to be read")
	}
	if len(c.CORS.AllowedOrigins) != 2 || c.CORS.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", c.CORS.AllowedOrigins)
	}
	if c.Behavior.SkillMatcher != SkillMatcherBoundary {
		t.Fatalf("expected boundary matcher")
	}
	if c.Outbound.TestNumber != DefaultTestNumber {
		t.Fatalf("expected default test number")
	}
	if c.RedisEnabled() {
		t.Fatalf("redis should be disabled without REDIS_HOST")
	}
}

func TestLoad_ReportsParseErrors(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/careshare")
	t.Setenv("OUTBOUND_MAX_CONCURRENT", "many")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadAuth_NeedsOnlyTheSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("JWT_ISSUER", "careshare")
	a, err := LoadAuth()
	if err != nil {
		t.Fatalf("load auth: %v", err)
	}
	if a.JWTIssuer != "careshare" {
		t.Fatalf("unexpected issuer %q", a.JWTIssuer)
	}

	t.Setenv("JWT_SECRET", "")
	if _, err := LoadAuth(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}
