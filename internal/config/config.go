package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds all configuration required by the CareShare processes.
// Values come from the environment (a .env file is loaded into it by the
// process entrypoints). Business logic never reads os.Getenv directly.
type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	Auth       AuthConfig
	ElevenLabs ElevenLabsConfig
	Outbound   OutboundConfig
	CORS       CORSConfig
	Behavior   BehaviorConfig
	Telemetry  TelemetryConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	// URL takes precedence over the individual fields when set.
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts disable, require, verify-ca, verify-full.
	SSLMode string

	AutoMigrate bool
}

// RedisConfig is optional. An empty Host disables Redis-backed features.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	ZipCacheTTL time.Duration
}

type AuthConfig struct {
	Enabled        bool
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// ElevenLabsConfig may be partially empty; outbound calls report the missing
// keys per request instead of failing startup.
type ElevenLabsConfig struct {
	APIKey             string
	AgentID            string
	AgentPhoneNumberID string
	BaseURL            string
	WebhookSecret      string
	RequireSignature   bool
	RequestTimeout     time.Duration
}

type OutboundConfig struct {
	TestNumber    string
	RatePerSecond float64
	Burst         int
	MaxConcurrent int
	SlotTTL       time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type BehaviorConfig struct {
	// AppointmentTransitions is strict or permissive.
	AppointmentTransitions string
	// SkillMatcher is word or boundary.
	SkillMatcher       string
	DefaultPhoneRegion string
	AgentTimezone      string
	PromptsFile        string
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

const (
	DefaultPort           = 3001
	DefaultTestNumber     = "+15164770955"
	DefaultElevenLabsURL  = "https://api.elevenlabs.io"
	DefaultAgentTimezone  = "America/New_York"
	DefaultPhoneRegion    = "US"
	TransitionsStrict     = "strict"
	TransitionsPermissive = "permissive"
	SkillMatcherWord      = "word"
	SkillMatcherBoundary  = "boundary"
)

// DefaultCORSOrigins is used when CORS_ALLOWED_ORIGINS is unset.
var DefaultCORSOrigins = []string{
	"https://careshare-hackru-1.onrender.com",
	"http://localhost:5173",
	"http://localhost:3000",
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = envOr("APP_ENV", "local")
	c.App.Port, parseErrs = optInt(parseErrs, firstEnv("APP_PORT", "PORT"), DefaultPort)

	c.DB.URL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = optInt(parseErrs, "DB_PORT", 5432)
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.AutoMigrate, parseErrs = optBool(parseErrs, "AUTO_MIGRATE", false)

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = optInt(parseErrs, "REDIS_PORT", 6379)
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	c.Redis.DB, parseErrs = optInt(parseErrs, "REDIS_DB", 0)
	c.Redis.ZipCacheTTL, parseErrs = optDuration(parseErrs, "ZIP_CACHE_TTL", 24*time.Hour)

	c.Auth, parseErrs = readAuth(parseErrs)

	// The voice platform documents the key as XI-API-KEY; accept all spellings.
	c.ElevenLabs.APIKey = strings.TrimSpace(os.Getenv(firstEnv("ELEVENLABS_API_KEY", "XI_API_KEY", "XI-API-KEY")))
	c.ElevenLabs.AgentID = strings.TrimSpace(os.Getenv("ELEVENLABS_AGENT_ID"))
	c.ElevenLabs.AgentPhoneNumberID = strings.TrimSpace(os.Getenv("AGENT_PHONE_NUMBER_ID"))
	c.ElevenLabs.BaseURL = envOr("ELEVENLABS_BASE_URL", DefaultElevenLabsURL)
	c.ElevenLabs.WebhookSecret = os.Getenv("ELEVENLABS_WEBHOOK_SECRET")
	c.ElevenLabs.RequireSignature, parseErrs = optBool(parseErrs, "ELEVENLABS_REQUIRE_SIGNATURE", false)
	c.ElevenLabs.RequestTimeout, parseErrs = optDuration(parseErrs, "ELEVENLABS_TIMEOUT", 20*time.Second)

	c.Outbound.TestNumber = envOr("OUTBOUND_TEST_NUMBER", DefaultTestNumber)
	c.Outbound.RatePerSecond, parseErrs = optFloat(parseErrs, "OUTBOUND_RATE_PER_SEC", 2)
	c.Outbound.Burst, parseErrs = optInt(parseErrs, "OUTBOUND_BURST", 4)
	c.Outbound.MaxConcurrent, parseErrs = optInt(parseErrs, "OUTBOUND_MAX_CONCURRENT", 3)
	c.Outbound.SlotTTL, parseErrs = optDuration(parseErrs, "OUTBOUND_SLOT_TTL", 10*time.Minute)

	c.CORS.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = append([]string(nil), DefaultCORSOrigins...)
	}

	c.Behavior.AppointmentTransitions = envOr("APPOINTMENT_TRANSITIONS", TransitionsStrict)
	c.Behavior.SkillMatcher = envOr("SKILL_MATCHER", SkillMatcherWord)
	c.Behavior.DefaultPhoneRegion = envOr("DEFAULT_PHONE_REGION", DefaultPhoneRegion)
	c.Behavior.AgentTimezone = envOr("AGENT_TIMEZONE", DefaultAgentTimezone)
	c.Behavior.PromptsFile = strings.TrimSpace(os.Getenv("PROMPTS_FILE"))

	c.Telemetry.OTLPEndpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	c.Telemetry.ServiceName = envOr("OTEL_SERVICE_NAME", "careshare-api")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadAuth reads only the token settings. Commands that sign tokens use it
// without needing a database configuration.
func LoadAuth() (AuthConfig, error) {
	a, errs := readAuth(nil)
	if a.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if err := joinErrors(errs); err != nil {
		return AuthConfig{}, err
	}
	return a, nil
}

func readAuth(errs []error) (AuthConfig, []error) {
	var a AuthConfig
	a.Enabled, errs = optBool(errs, "AUTH_ENABLED", false)
	a.JWTSecret = os.Getenv("JWT_SECRET")
	a.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	a.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	a.AccessTokenTTL, errs = optDuration(errs, "JWT_ACCESS_TTL", 0)
	return a, errs
}

// Validate checks the configuration and fills defaults that depend on other
// fields. It needs a pointer receiver because it writes those defaults back.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if !validPort(c.App.Port) {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.URL != "" {
		if u, err := url.Parse(c.DB.URL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errs = append(errs, errors.New("DATABASE_URL must be a postgres:// URL"))
		}
	} else {
		if c.DB.Host == "" {
			errs = append(errs, errors.New("DATABASE_URL or DB_HOST is required"))
		}
		if !validPort(c.DB.Port) {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	if c.Redis.Host != "" && !validPort(c.Redis.Port) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_ENABLED is true"))
		}
		if c.IsProduction() && c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 30 * 24 * time.Hour
	}

	if c.Outbound.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("OUTBOUND_MAX_CONCURRENT must be > 0, got %d", c.Outbound.MaxConcurrent))
	}
	if c.Outbound.RatePerSecond <= 0 {
		errs = append(errs, fmt.Errorf("OUTBOUND_RATE_PER_SEC must be > 0, got %v", c.Outbound.RatePerSecond))
	}
	if c.Outbound.Burst <= 0 {
		c.Outbound.Burst = 1
	}
	if c.Outbound.SlotTTL <= 0 {
		c.Outbound.SlotTTL = 10 * time.Minute
	}
	if c.ElevenLabs.BaseURL == "" {
		c.ElevenLabs.BaseURL = DefaultElevenLabsURL
	}
	if c.ElevenLabs.RequestTimeout <= 0 {
		c.ElevenLabs.RequestTimeout = 20 * time.Second
	}
	if c.ElevenLabs.RequireSignature && c.ElevenLabs.WebhookSecret == "" {
		errs = append(errs, errors.New("ELEVENLABS_WEBHOOK_SECRET is required when ELEVENLABS_REQUIRE_SIGNATURE is true"))
	}

	switch c.Behavior.AppointmentTransitions {
	case "":
		c.Behavior.AppointmentTransitions = TransitionsStrict
	case TransitionsStrict, TransitionsPermissive:
	default:
		errs = append(errs, fmt.Errorf("APPOINTMENT_TRANSITIONS must be strict or permissive, got %q", c.Behavior.AppointmentTransitions))
	}
	switch c.Behavior.SkillMatcher {
	case "":
		c.Behavior.SkillMatcher = SkillMatcherWord
	case SkillMatcherWord, SkillMatcherBoundary:
	default:
		errs = append(errs, fmt.Errorf("SKILL_MATCHER must be word or boundary, got %q", c.Behavior.SkillMatcher))
	}
	if c.Behavior.DefaultPhoneRegion == "" {
		c.Behavior.DefaultPhoneRegion = DefaultPhoneRegion
	}
	if c.Behavior.AgentTimezone == "" {
		c.Behavior.AgentTimezone = DefaultAgentTimezone
	}
	if _, err := time.LoadLocation(c.Behavior.AgentTimezone); err != nil {
		errs = append(errs, fmt.Errorf("AGENT_TIMEZONE is not a known zone: %q", c.Behavior.AgentTimezone))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Contains secrets; never log it.
	if c.DB.URL != "" {
		return c.DB.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// firstEnv returns the first key with a non-empty value, or the first key.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if strings.TrimSpace(os.Getenv(k)) != "" {
			return k
		}
	}
	return keys[0]
}

func optInt(errs []error, key string, def int) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func optFloat(errs []error, key string, def float64) (float64, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s must be a number, got %q", key, v))
	}
	return f, errs
}

func optBool(errs []error, key string, def bool) (bool, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
	}
	return b, errs
}

func optDuration(errs []error, key string, def time.Duration) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s must be a duration, got %q", key, v))
	}
	return d, errs
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validPort(p int) bool { return p > 0 && p <= 65535 }

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
