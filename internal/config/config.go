package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL          string `yaml:"ttl"`
		DefaultLimit int    `yaml:"default_limit"`
	} `yaml:"questions"`
	Auth struct {
		Secret   string `yaml:"secret"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`
	RateLimit struct {
		Requests int    `yaml:"requests"`
		Window   string `yaml:"window"`
	} `yaml:"rate_limit"`
	Engine struct {
		BackendURL    string `yaml:"backend_url"`
		Category      string `yaml:"category"`
		QuestionTime  string `yaml:"question_time"`
		SubmitTimeout string `yaml:"submit_timeout"`
		Token         string `yaml:"token"`
	} `yaml:"engine"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Load reads YAML config from path and applies QUIZ_* environment overrides.
// A missing file yields the defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("QUIZ_SERVER_PORT", &cfg.Server.Port)
	str("QUIZ_SERVER_MODE", &cfg.Server.Mode)
	str("QUIZ_REDIS_ADDR", &cfg.Redis.Addr)
	str("QUIZ_REDIS_PASSWORD", &cfg.Redis.Password)
	num("QUIZ_REDIS_DB", &cfg.Redis.DB)
	str("QUIZ_POSTGRES_URL", &cfg.Postgres.URL)
	str("QUIZ_QUESTIONS_TTL", &cfg.Questions.TTL)
	num("QUIZ_QUESTIONS_DEFAULT_LIMIT", &cfg.Questions.DefaultLimit)
	str("QUIZ_AUTH_SECRET", &cfg.Auth.Secret)
	str("QUIZ_AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)
	num("QUIZ_RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests)
	str("QUIZ_RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)
	str("QUIZ_ENGINE_BACKEND_URL", &cfg.Engine.BackendURL)
	str("QUIZ_ENGINE_CATEGORY", &cfg.Engine.Category)
	str("QUIZ_ENGINE_QUESTION_TIME", &cfg.Engine.QuestionTime)
	str("QUIZ_ENGINE_SUBMIT_TIMEOUT", &cfg.Engine.SubmitTimeout)
	str("QUIZ_ENGINE_TOKEN", &cfg.Engine.Token)
	str("QUIZ_LOG_LEVEL", &cfg.Log.Level)
	str("QUIZ_LOG_FILE", &cfg.Log.File)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
