package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	LLMBaseURL     string  `env:"LLM_BASE_URL" envDefault:"https://bedrock-runtime.us-east-1.amazonaws.com"`
	LLMAPIKey      string  `env:"LLM_API_KEY,required"`
	LLMModel       string  `env:"LLM_MODEL" envDefault:"anthropic.claude-v2"`
	LLMTemperature float64 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	LLMMaxTokens   int     `env:"LLM_MAX_TOKENS" envDefault:"4096"`
	LLMTopP        float64 `env:"LLM_TOP_P" envDefault:"0.95"`

	MaxMessageLength int `env:"MAX_MESSAGE_LENGTH" envDefault:"4000"`

	UploadDir     string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`

	SearchBaseURL      string `env:"SEARCH_BASE_URL" envDefault:"https://api.duckduckgo.com"`
	SearchMaxResults   int    `env:"SEARCH_MAX_RESULTS" envDefault:"5"`
	SearchCacheMinutes int    `env:"SEARCH_CACHE_MINUTES" envDefault:"60"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
