// Package config loads mcqgen settings from flags, MCQGEN_* environment
// variables, an optional YAML file and built-in defaults, in that order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abhisek/mcqgen/internal/llm"
	"github.com/abhisek/mcqgen/internal/quiz"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MCQGEN"

// Config is the resolved application configuration.
type Config struct {
	LLM  llm.Config
	Quiz QuizConfig
	Log  LogConfig

	// DB is the SQLite database path. Empty means the default location.
	DB string

	// File is the config file that was read, if any.
	File string
}

// QuizConfig tunes the generation request.
type QuizConfig struct {
	MaxTokens   int
	Temperature float64
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level  string
	Format string
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"provider":  "provider",
	"model":     "model",
	"timeout":   "timeout",
	"db":        "db",
	"log.level": "log-level",
}

// providerEnv lists the well-known variables consulted after the
// MCQGEN_ ones.
var providerEnv = map[string][]string{
	"gemini.api_key":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai.api_key":     {"OPENAI_API_KEY"},
	"openrouter.api_key": {"OPENROUTER_API_KEY"},
	"anthropic.api_key":  {"ANTHROPIC_API_KEY"},
}

// DefaultPath returns $XDG_CONFIG_HOME/mcqgen/config.yaml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mcqgen", "config.yaml"), nil
}

// Load resolves the configuration. path names an explicit config file
// that must exist; when empty the default path is read if present.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range providerEnv {
		envs := append([]string{envName(key)}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := readFile(v, path); err != nil {
		return Config{}, err
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	cfg := Config{
		LLM: llmConfig(v),
		Quiz: QuizConfig{
			MaxTokens:   v.GetInt("quiz.max_tokens"),
			Temperature: v.GetFloat64("quiz.temperature"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		DB:   v.GetString("db"),
		File: v.ConfigFileUsed(),
	}

	if cfg.Quiz.MaxTokens < 1 {
		return Config{}, fmt.Errorf("quiz.max_tokens must be positive, got %d", cfg.Quiz.MaxTokens)
	}
	if cfg.LLM.Retry.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("retry.max_attempts must be at least 1, got %d", cfg.LLM.Retry.MaxAttempts)
	}
	return cfg, nil
}

// QuizGeneratorConfig returns the pipeline config with the default
// validator chain.
func (c Config) QuizGeneratorConfig() quiz.Config {
	qc := quiz.DefaultConfig()
	qc.MaxTokens = c.Quiz.MaxTokens
	qc.Temperature = c.Quiz.Temperature
	return qc
}

func setDefaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()
	quizDefaults := quiz.DefaultConfig()

	v.SetDefault("gemini.model", llmDefaults.Gemini.Model)
	v.SetDefault("openai.model", llmDefaults.OpenAI.Model)
	v.SetDefault("openrouter.model", llmDefaults.OpenRouter.Model)
	v.SetDefault("anthropic.model", llmDefaults.Anthropic.Model)
	v.SetDefault("ollama.model", llmDefaults.Ollama.Model)
	v.SetDefault("ollama.server_url", llmDefaults.Ollama.ServerURL)

	v.SetDefault("timeout", llmDefaults.Timeout)
	v.SetDefault("retry.max_attempts", llmDefaults.Retry.MaxAttempts)
	v.SetDefault("retry.initial_wait", llmDefaults.Retry.InitialWait)
	v.SetDefault("retry.max_wait", llmDefaults.Retry.MaxWait)
	v.SetDefault("retry.multiplier", llmDefaults.Retry.Multiplier)
	v.SetDefault("retry.jitter", llmDefaults.Retry.Jitter)

	v.SetDefault("quiz.max_tokens", quizDefaults.MaxTokens)
	v.SetDefault("quiz.temperature", quizDefaults.Temperature)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
}

func readFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil
		}
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = p
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}

// llmConfig assembles the provider settings. With no provider chosen
// anywhere, the first provider with a well-known API key wins.
func llmConfig(v *viper.Viper) llm.Config {
	cfg := llm.DefaultConfig()

	cfg.Gemini = llm.GeminiConfig{
		APIKey:  v.GetString("gemini.api_key"),
		Model:   v.GetString("gemini.model"),
		BaseURL: v.GetString("gemini.base_url"),
	}
	cfg.OpenAI = llm.OpenAIConfig{
		APIKey:  v.GetString("openai.api_key"),
		Model:   v.GetString("openai.model"),
		BaseURL: v.GetString("openai.base_url"),
	}
	cfg.OpenRouter = llm.OpenRouterConfig{
		APIKey:  v.GetString("openrouter.api_key"),
		Model:   v.GetString("openrouter.model"),
		BaseURL: v.GetString("openrouter.base_url"),
	}
	cfg.Anthropic = llm.AnthropicConfig{
		APIKey: v.GetString("anthropic.api_key"),
		Model:  v.GetString("anthropic.model"),
	}
	cfg.Ollama = llm.OllamaConfig{
		ServerURL: v.GetString("ollama.server_url"),
		Model:     v.GetString("ollama.model"),
	}
	cfg.Retry = llm.RetryConfig{
		MaxAttempts: v.GetInt("retry.max_attempts"),
		InitialWait: v.GetDuration("retry.initial_wait"),
		MaxWait:     v.GetDuration("retry.max_wait"),
		Multiplier:  v.GetFloat64("retry.multiplier"),
		Jitter:      v.GetFloat64("retry.jitter"),
	}
	cfg.Timeout = v.GetDuration("timeout")

	cfg.Provider = strings.ToLower(v.GetString("provider"))
	if cfg.Provider == "" {
		cfg.Provider = discoverProvider(cfg)
	}

	if model := v.GetString("model"); model != "" {
		setModel(&cfg, model)
	}
	return cfg
}

// discoverProvider follows llm.DiscoverConfig's priority, but also sees
// keys supplied through MCQGEN_* variables or the config file.
func discoverProvider(cfg llm.Config) string {
	switch {
	case cfg.Gemini.APIKey != "":
		return "gemini"
	case cfg.OpenAI.APIKey != "":
		return "openai"
	case cfg.Anthropic.APIKey != "":
		return "anthropic"
	case cfg.OpenRouter.APIKey != "":
		return "openrouter"
	}
	if discovered, ok := llm.DiscoverConfig(); ok {
		return discovered.Provider
	}
	return llm.DefaultConfig().Provider
}

func setModel(cfg *llm.Config, model string) {
	switch cfg.Provider {
	case "gemini":
		cfg.Gemini.Model = model
	case "openai":
		cfg.OpenAI.Model = model
	case "openrouter":
		cfg.OpenRouter.Model = model
	case "anthropic":
		cfg.Anthropic.Model = model
	case "ollama":
		cfg.Ollama.Model = model
	}
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
