package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the ReplySim server and CLI.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	LLM        LLMConfig
	Simulation SimulationConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	RateLimitPerMin int
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

type RedisConfig struct {
	URL string
}

// LLMConfig selects the providers used for reply generation and judging.
// The judge falls back to the generator's provider when unset.
type LLMConfig struct {
	GeneratorProvider string
	JudgeProvider     string
	InferenceTimeout  time.Duration
	OpenAI            OpenAIConfig
	Ollama            OpenAIConfig
	VLLM              OpenAIConfig
	Anthropic         AnthropicConfig
	Gemini            GeminiConfig
}

// OpenAIConfig also serves Ollama and vLLM, which expose OpenAI-compatible endpoints.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type SimulationConfig struct {
	MaxEmails      int
	MaxConcurrency int
	BatchTimeout   time.Duration
	ScenariosFile  string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var validProviders = map[string]bool{
	"openai":    true,
	"vllm":      true,
	"ollama":    true,
	"anthropic": true,
	"gemini":    true,
	"mock":      true,
}

// Load reads configuration from environment variables for the API server.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	return load(true)
}

// LoadCLI is Load without the Redis requirement.
func LoadCLI() (*Config, error) {
	return load(false)
}

func load(requireRedis bool) (*Config, error) {
	generator := os.Getenv("GENERATOR_PROVIDER")
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("REPLYSIM_PORT", 8080),
			Env:             envString("REPLYSIM_ENV", "development"),
			RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 10),
		},
		Database: DatabaseConfig{
			Driver:          envString("DATABASE_DRIVER", DriverPostgres),
			URL:             os.Getenv("DATABASE_URL"),
			SQLitePath:      envString("SQLITE_PATH", "replysim.db"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnectTimeout:  envDuration("DATABASE_CONNECT_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		LLM: LLMConfig{
			GeneratorProvider: generator,
			JudgeProvider:     envString("JUDGE_PROVIDER", generator),
			InferenceTimeout:  envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   envString("OPENAI_MODEL", "gpt-4.1-mini"),
			},
			Ollama: OpenAIConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: OpenAIConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000/v1"),
				Model:   envString("VLLM_MODEL", ""),
			},
			Anthropic: AnthropicConfig{
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				BaseURL: envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				Model:   envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
			Gemini: GeminiConfig{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  envString("GEMINI_MODEL", "gemini-2.0-flash"),
			},
		},
		Simulation: SimulationConfig{
			MaxEmails:      envInt("SIM_MAX_EMAILS", 100),
			MaxConcurrency: envInt("SIM_MAX_CONCURRENCY", 20),
			BatchTimeout:   envDuration("SIM_BATCH_TIMEOUT", 0),
			ScenariosFile:  os.Getenv("SIM_SCENARIOS_FILE"),
		},
	}

	if err := cfg.validate(requireRedis); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate(requireRedis bool) error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER is postgres")
		}
		if !strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") {
			return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://, got %q", c.Database.URL)
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DATABASE_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be one of postgres, sqlite; got %q", c.Database.Driver)
	}

	if requireRedis && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.LLM.GeneratorProvider == "" {
		return fmt.Errorf("GENERATOR_PROVIDER is required")
	}
	for _, p := range []struct{ env, name string }{
		{"GENERATOR_PROVIDER", c.LLM.GeneratorProvider},
		{"JUDGE_PROVIDER", c.LLM.JudgeProvider},
	} {
		if !validProviders[p.name] {
			return fmt.Errorf("%s must be one of openai, vllm, ollama, anthropic, gemini, mock; got %q", p.env, p.name)
		}
		if err := c.LLM.requireCredentials(p.name); err != nil {
			return err
		}
	}

	if c.Simulation.MaxEmails <= 0 {
		return fmt.Errorf("SIM_MAX_EMAILS must be positive, got %d", c.Simulation.MaxEmails)
	}
	if c.Simulation.MaxConcurrency <= 0 {
		return fmt.Errorf("SIM_MAX_CONCURRENCY must be positive, got %d", c.Simulation.MaxConcurrency)
	}

	return nil
}

func (l LLMConfig) requireCredentials(provider string) error {
	switch provider {
	case "openai":
		if l.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when openai is a configured provider")
		}
	case "anthropic":
		if l.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when anthropic is a configured provider")
		}
	case "gemini":
		if l.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when gemini is a configured provider")
		}
	case "vllm":
		if l.VLLM.Model == "" {
			return fmt.Errorf("VLLM_MODEL is required when vllm is a configured provider")
		}
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
