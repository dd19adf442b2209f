// Package config loads server settings: built-in defaults, then an optional
// JSON or YAML file, then environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr    string   `json:"http_addr" yaml:"http_addr"`
	LogMode     string   `json:"log_mode" yaml:"log_mode"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`

	DatabaseURL    string   `json:"DATABASE_URL" yaml:"database_url"`
	DBMaxOpenConns int      `json:"db_max_open_conns" yaml:"db_max_open_conns"`
	DBMaxIdleConns int      `json:"db_max_idle_conns" yaml:"db_max_idle_conns"`
	DBConnLifetime Duration `json:"db_conn_lifetime" yaml:"db_conn_lifetime"`
	MigrateOnStart bool     `json:"migrate_on_start" yaml:"migrate_on_start"`

	JWTSecret  string   `json:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL   Duration `json:"token_ttl" yaml:"token_ttl"`
	OTPTTL     Duration `json:"otp_ttl" yaml:"otp_ttl"`
	BcryptCost int      `json:"bcrypt_cost" yaml:"bcrypt_cost"`

	MailProvider    string `json:"mail_provider" yaml:"mail_provider"`
	MailFromEmail   string `json:"mail_from_email" yaml:"mail_from_email"`
	MailFromName    string `json:"mail_from_name" yaml:"mail_from_name"`
	SendGridAPIKey  string `json:"sendgrid_api_key" yaml:"sendgrid_api_key"`
	SendGridBaseURL string `json:"sendgrid_base_url" yaml:"sendgrid_base_url"`

	RedisAddr       string   `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword   string   `json:"redis_password" yaml:"redis_password"`
	RateLimit       int      `json:"rate_limit" yaml:"rate_limit"`
	RateLimitWindow Duration `json:"rate_limit_window" yaml:"rate_limit_window"`

	PantryProvider string `json:"pantry_provider" yaml:"pantry_provider"`
	GeminiAPIKey   string `json:"gemini_api_key" yaml:"gemini_api_key"`
	GeminiModel    string `json:"gemini_model" yaml:"gemini_model"`
	LocalLLMURL    string `json:"local_llm_url" yaml:"local_llm_url"`
	LocalLLMModel  string `json:"local_llm_model" yaml:"local_llm_model"`
}

// Duration accepts "10m"-style strings in config files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// LoadDefaults populates development defaults. The empty JWT secret must be
// overridden before the server will start.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":4000"
	c.LogMode = "dev"
	c.CORSOrigins = []string{"http://localhost:8081"}
	c.DBMaxOpenConns = 10
	c.DBMaxIdleConns = 5
	c.DBConnLifetime = Duration{30 * time.Minute}
	c.MigrateOnStart = true
	c.TokenTTL = Duration{7 * 24 * time.Hour}
	c.OTPTTL = Duration{10 * time.Minute}
	c.BcryptCost = 10
	c.MailProvider = "log"
	c.MailFromName = "CookMate"
	c.RateLimit = 10
	c.RateLimitWindow = Duration{time.Minute}
	c.GeminiModel = "gemini-1.5-flash"
	c.LocalLLMURL = "http://localhost:1234/v1/chat/completions"
	c.LocalLLMModel = "gemma-3-12b-it:2"
}

// Load reads the config like Read and validates it for the API server.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read applies defaults, then the file at path (if non-empty and present),
// then environment overrides. The result is not validated; tools that need
// only part of the config check those fields themselves.
func Read(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = i
			}
		}
	}
	dur := func(name string, dst *Duration) {
		if v, ok := lookup(name); ok {
			if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
				dst.Duration = d
			}
		}
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		c.HTTPAddr = ":" + strings.TrimPrefix(strings.TrimSpace(v), ":")
	}
	str("LOG_MODE", &c.LogMode)
	if v, ok := lookup("CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.CORSOrigins = splitList(v)
	}
	str("DATABASE_URL", &c.DatabaseURL)
	num("DB_MAX_OPEN_CONNS", &c.DBMaxOpenConns)
	num("DB_MAX_IDLE_CONNS", &c.DBMaxIdleConns)
	str("JWT_SECRET", &c.JWTSecret)
	dur("JWT_EXPIRES_IN", &c.TokenTTL)
	dur("OTP_TTL", &c.OTPTTL)
	str("MAIL_PROVIDER", &c.MailProvider)
	str("MAIL_FROM_EMAIL", &c.MailFromEmail)
	str("MAIL_FROM_NAME", &c.MailFromName)
	str("SENDGRID_API_KEY", &c.SendGridAPIKey)
	str("SENDGRID_BASE_URL", &c.SendGridBaseURL)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	num("RATE_LIMIT", &c.RateLimit)
	dur("RATE_LIMIT_WINDOW", &c.RateLimitWindow)
	str("PANTRY_PROVIDER", &c.PantryProvider)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("GEMINI_MODEL", &c.GeminiModel)
	str("LOCAL_LLM_URL", &c.LocalLLMURL)
	str("LOCAL_LLM_MODEL", &c.LocalLLMModel)
	if v, ok := lookup("MIGRATE_ON_START"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.MigrateOnStart = b
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenTTL.Duration <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.OTPTTL.Duration <= 0 {
		errs = append(errs, errors.New("otp ttl must be positive"))
	}
	switch strings.ToLower(c.PantryProvider) {
	case "", "gemini", "local":
	default:
		errs = append(errs, fmt.Errorf("unknown pantry provider %q", c.PantryProvider))
	}
	if strings.EqualFold(c.PantryProvider, "gemini") && strings.TrimSpace(c.GeminiAPIKey) == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini pantry provider"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
