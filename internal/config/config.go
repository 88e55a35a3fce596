package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
// Values are read by viper from a config file or environment variables.
type Config struct {
	ListenAddr string `mapstructure:"LISTEN_ADDR"`
	DBPath     string `mapstructure:"DB_PATH"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// APIKeys maps bearer tokens to user ids. The real deployment sits
	// behind an identity provider; this is the static stand-in.
	APIKeys map[string]string `mapstructure:"API_KEYS"`

	// LLM (OpenAI-compatible chat endpoint, e.g. OpenRouter)
	LLMBaseURL string `mapstructure:"LLM_BASE_URL"`
	LLMAPIKey  string `mapstructure:"LLM_API_KEY"`
	LLMModel   string `mapstructure:"LLM_MODEL"`

	// Embeddings
	EmbeddingProvider string `mapstructure:"EMBEDDING_PROVIDER"`
	EmbeddingBaseURL  string `mapstructure:"EMBEDDING_BASE_URL"`
	EmbeddingAPIKey   string `mapstructure:"EMBEDDING_API_KEY"`
	EmbeddingModel    string `mapstructure:"EMBEDDING_MODEL"`
	OllamaHost        string `mapstructure:"OLLAMA_HOST"`

	ScrapeTimeout time.Duration `mapstructure:"SCRAPE_TIMEOUT"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

// Load reads configuration from a config file or environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvPrefix("MARKHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine when env vars carry the settings.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "./markhive.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LLMBaseURL == "" {
		c.LLMBaseURL = "https://openrouter.ai/api/v1"
	}
	if c.LLMModel == "" {
		c.LLMModel = "openai/gpt-4o-mini"
	}
	if c.EmbeddingProvider == "" {
		c.EmbeddingProvider = "local"
	}
	if c.OllamaHost == "" {
		c.OllamaHost = "http://localhost:11434"
	}
	if c.ScrapeTimeout <= 0 {
		c.ScrapeTimeout = 10 * time.Second
	}
}

func (c *Config) validate() error {
	if len(c.APIKeys) == 0 {
		return fmt.Errorf("API_KEYS is not set: at least one token must map to a user id")
	}
	if c.EmbeddingProvider == "openai" && c.EmbeddingAPIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY is required for the openai embedding provider")
	}
	return nil
}
