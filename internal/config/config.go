package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported completion providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config is the process configuration, resolved once at startup
type Config struct {
	Env                string        `mapstructure:"env"`
	Port               string        `mapstructure:"port"`
	LLMProvider        string        `mapstructure:"llm_provider"`
	OpenAIAPIKey       string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL      string        `mapstructure:"openai_base_url"`
	OpenAIModel        string        `mapstructure:"openai_model"`
	OpenAIMaxRetries   int           `mapstructure:"openai_max_retries"`
	GeminiAPIKey       string        `mapstructure:"gemini_api_key"`
	GeminiModel        string        `mapstructure:"gemini_model"`
	GeminiBaseURL      string        `mapstructure:"gemini_base_url"`
	AttemptTimeout     time.Duration `mapstructure:"attempt_timeout"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	DailyQuota         int64         `mapstructure:"daily_quota"`
	MaxPromptRunes     int           `mapstructure:"max_prompt_runes"`
	AllowedOrigins     string        `mapstructure:"allowed_origins"`
	CloudRunURL        string        `mapstructure:"cloud_run_url"`
	TrustedProxies     string        `mapstructure:"trusted_proxies"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		Env:                "development",
		Port:               "8080",
		LLMProvider:        ProviderOpenAI,
		OpenAIModel:        "gpt-4o-mini",
		OpenAIMaxRetries:   2,
		GeminiModel:        "gemini-2.5-flash",
		AttemptTimeout:     30 * time.Second,
		RetryDelay:         0,
		RateLimitPerMinute: 10,
		DailyQuota:         0,
		MaxPromptRunes:     1000,
	}
}

// Load reads defaults, an optional config file, and environment variables into a Config.
// Environment variables use the upper-cased key, e.g. OPENAI_API_KEY.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	defaults := DefaultConfig()
	v.SetDefault("env", defaults.Env)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("llm_provider", defaults.LLMProvider)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_model", defaults.OpenAIModel)
	v.SetDefault("openai_max_retries", defaults.OpenAIMaxRetries)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", defaults.GeminiModel)
	v.SetDefault("gemini_base_url", "")
	v.SetDefault("attempt_timeout", defaults.AttemptTimeout)
	v.SetDefault("retry_delay", defaults.RetryDelay)
	v.SetDefault("rate_limit_per_minute", defaults.RateLimitPerMinute)
	v.SetDefault("daily_quota", defaults.DailyQuota)
	v.SetDefault("max_prompt_runes", defaults.MaxPromptRunes)
	v.SetDefault("allowed_origins", "")
	v.SetDefault("cloud_run_url", "")
	v.SetDefault("trusted_proxies", "")

	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast when the selected provider has no credential
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is not set")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is not set")
		}
	default:
		return fmt.Errorf("unknown llm_provider %q (want %q or %q)", c.LLMProvider, ProviderOpenAI, ProviderGemini)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate_limit_per_minute must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.MaxPromptRunes <= 0 {
		return fmt.Errorf("max_prompt_runes must be positive, got %d", c.MaxPromptRunes)
	}
	return nil
}

// IsProduction reports whether the service runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Origins returns the CORS allow-list
func (c *Config) Origins() []string {
	origins := []string{}
	if !c.IsProduction() {
		origins = append(origins, "http://localhost:5173")
	}
	if c.CloudRunURL != "" {
		origins = append(origins, c.CloudRunURL)
	}
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// TrustedProxyList returns the proxies whose X-Forwarded-For is believed.
// Nil means the direct peer address identifies the caller.
func (c *Config) TrustedProxyList() []string {
	var proxies []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}
