package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Primary backend (Google Gemini)
	GeminiAPIKey   string `mapstructure:"gemini_api_key" yaml:"gemini_api_key"`
	GeminiModel    string `mapstructure:"gemini_model" yaml:"gemini_model"`
	GeminiEndpoint string `mapstructure:"gemini_endpoint" yaml:"gemini_endpoint"`

	// Secondary backend (Hugging Face Inference)
	HFAPIToken string `mapstructure:"hf_api_token" yaml:"hf_api_token"`
	HFModel    string `mapstructure:"hf_model" yaml:"hf_model"`
	HFEndpoint string `mapstructure:"hf_endpoint" yaml:"hf_endpoint"`

	PrimaryProvider   string `mapstructure:"primary_provider" yaml:"primary_provider"`
	SecondaryProvider string `mapstructure:"secondary_provider" yaml:"secondary_provider"`

	// Alternative runtimes selectable as primary or secondary
	OpenRouterAPIKey string `mapstructure:"openrouter_api_key" yaml:"openrouter_api_key"`
	OpenRouterModel  string `mapstructure:"openrouter_model" yaml:"openrouter_model"`
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaModel      string `mapstructure:"ollama_model" yaml:"ollama_model"`

	HTTPTimeoutSec  int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	MaxTokens       int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	DefaultDataset  string `mapstructure:"default_dataset" yaml:"default_dataset"`
	ClusterK        int    `mapstructure:"cluster_k" yaml:"cluster_k"`
	DefaultLanguage string `mapstructure:"default_language" yaml:"default_language"`
	ServerAddr      string `mapstructure:"server_addr" yaml:"server_addr"`
}

// Keys lists the settable configuration keys.
var Keys = []string{
	"gemini_api_key", "gemini_model", "gemini_endpoint",
	"hf_api_token", "hf_model", "hf_endpoint",
	"primary_provider", "secondary_provider",
	"openrouter_api_key", "openrouter_model", "ollama_host", "ollama_model",
	"http_timeout_sec", "max_tokens", "default_dataset", "cluster_k", "default_language", "server_addr",
}

// legacyEnv maps the environment variable names used by earlier deployments
// to config keys. They apply when the ASKCSV_ variable is unset.
var legacyEnv = map[string]string{
	"gemini_api_key":     "GOOGLE_API_KEY",
	"hf_api_token":       "HF_API_TOKEN",
	"openrouter_api_key": "OPENROUTER_API_KEY",
}

// ConfigDir returns ~/.askcsv.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".askcsv"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.askcsv/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded first without overriding variables already set.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("ASKCSV")
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, "ASKCSV_"+strings.ToUpper(key), env)
	}

	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("gemini_endpoint", "")
	v.SetDefault("hf_model", "mistralai/Mistral-7B-Instruct-v0.2")
	v.SetDefault("hf_endpoint", "")
	v.SetDefault("primary_provider", "gemini")
	v.SetDefault("secondary_provider", "huggingface")
	v.SetDefault("openrouter_model", "google/gemini-2.5-flash")
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_model", "llama3:latest")
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("max_tokens", 0)
	v.SetDefault("default_dataset", filepath.Join("data", "creditcard.csv"))
	v.SetDefault("cluster_k", 3)
	v.SetDefault("default_language", "pt")
	v.SetDefault("server_addr", ":8080")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns a key by name, parsing integers where the field needs one.
func (c *Global) Set(key, value string) error {
	known := false
	for _, k := range Keys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown config key %q", key)
	}
	// decode through mapstructure so "60" lands in an int field
	cur := map[string]any{}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, &cur); err != nil {
		return err
	}
	cur[key] = value
	v := viper.New()
	for k, val := range cur {
		v.Set(k, val)
	}
	var out Global
	if err := v.Unmarshal(&out); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	*c = out
	return nil
}

// MissingCredentials names the environment variables a backend provider
// needs but does not have. Provider names are matched case-insensitively.
func (c *Global) MissingCredentials(provider string) []string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return []string{"GOOGLE_API_KEY"}
		}
	case "huggingface":
		if c.HFAPIToken == "" {
			return []string{"HF_API_TOKEN"}
		}
	case "openrouter":
		if c.OpenRouterAPIKey == "" {
			return []string{"OPENROUTER_API_KEY"}
		}
	}
	return nil
}

// ErrMissingCredentials is wrapped by CheckCredentials.
var ErrMissingCredentials = errors.New("missing credentials")

// CheckCredentials fails when either configured backend lacks its key, so
// no question is accepted before the user fixes the environment.
func (c *Global) CheckCredentials() error {
	var missing []string
	for _, p := range []string{c.PrimaryProvider, c.SecondaryProvider} {
		missing = append(missing, c.MissingCredentials(p)...)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, " and "))
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Global) Redacted() Global {
	out := *c
	for _, s := range []*string{&out.GeminiAPIKey, &out.HFAPIToken, &out.OpenRouterAPIKey} {
		if *s != "" {
			*s = "****"
		}
	}
	return out
}
