package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/carscout/internal/utils"
)

// Providers accepted by the provider key.
var Providers = []string{"openai", "openrouter", "anthropic", "ollama"}

// EnvPrefix namespaces environment overrides (CARSCOUT_MODEL, ...).
const EnvPrefix = "CARSCOUT"

// Global configuration structure.
type Global struct {
	// Completion runtime
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`

	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	OllamaHost     string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Reference data
	ListingsPath string `mapstructure:"listings_path" yaml:"listings_path"`
	RatingsPath  string `mapstructure:"ratings_path" yaml:"ratings_path"`
	IDsPath      string `mapstructure:"ids_path" yaml:"ids_path"`

	// Dashboard
	ListenAddr        string `mapstructure:"listen_addr" yaml:"listen_addr"`
	DetailsRatePerMin int    `mapstructure:"details_rate_per_min" yaml:"details_rate_per_min"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Credential returns api_key, falling back to the env variable of the
// current provider. The fallback is looked up on every call so a provider
// override never reuses another provider's secret.
func (c *Global) Credential() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return ProviderKeyFromEnv(c.Provider)
}

// Keys lists every recognised config key, in display order.
var Keys = []string{
	"api_key", "provider", "model", "base_url", "temperature", "max_tokens",
	"http_timeout_sec", "ollama_host",
	"listings_path", "ratings_path", "ids_path",
	"listen_addr", "details_rate_per_min",
	"log_level", "log_format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "gpt-3.5-turbo")
	v.SetDefault("base_url", "")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 300)
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("listings_path", "propositions.csv")
	v.SetDefault("ratings_path", "rating.csv")
	v.SetDefault("ids_path", "ID.csv")
	v.SetDefault("listen_addr", ":8501")
	v.SetDefault("details_rate_per_min", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// DefaultPath is ~/.carscout/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".carscout", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.carscout/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// The file may hold an API key.
	if err := utils.SafeWriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, env, config file, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// A local .env only fills variables that are not already set.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if !validTemperature(c.Temperature) {
		return nil, fmt.Errorf("invalid temperature %g: must be above 0 and at most 2", c.Temperature)
	}
	return &c, nil
}

// Providers treat a zero temperature as unset, so it is rejected rather
// than silently replaced by the default.
func validTemperature(f float64) bool { return f > 0 && f <= 2 }

// ProviderKeyFromEnv returns the provider's conventional credential variable.
func ProviderKeyFromEnv(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openrouter":
		if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
			return k
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}

// Get returns a key's value for display, masking secrets.
func (c *Global) Get(key string) (string, bool) {
	switch key {
	case "api_key":
		return MaskKey(c.Credential()), true
	case "provider":
		return c.Provider, true
	case "model":
		return c.Model, true
	case "base_url":
		return c.BaseURL, true
	case "temperature":
		return fmt.Sprintf("%g", c.Temperature), true
	case "max_tokens":
		return fmt.Sprint(c.MaxTokens), true
	case "http_timeout_sec":
		return fmt.Sprint(c.HTTPTimeoutSec), true
	case "ollama_host":
		return c.OllamaHost, true
	case "listings_path":
		return c.ListingsPath, true
	case "ratings_path":
		return c.RatingsPath, true
	case "ids_path":
		return c.IDsPath, true
	case "listen_addr":
		return c.ListenAddr, true
	case "details_rate_per_min":
		return fmt.Sprint(c.DetailsRatePerMin), true
	case "log_level":
		return c.LogLevel, true
	case "log_format":
		return c.LogFormat, true
	}
	return "", false
}

// MaskKey keeps the last four characters of a secret.
func MaskKey(k string) string {
	if k == "" {
		return "(not set)"
	}
	if len(k) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(k)-4) + k[len(k)-4:]
}

// Set assigns a key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	setInt := func(dst *int) error {
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int for %s: %q", key, val)
		}
		*dst = i
		return nil
	}
	switch key {
	case "api_key":
		c.APIKey = val
	case "provider":
		p := strings.ToLower(strings.TrimSpace(val))
		if !slices.Contains(Providers, p) {
			return fmt.Errorf("invalid provider: %s (use one of %s)", val, strings.Join(Providers, ", "))
		}
		c.Provider = p
	case "model":
		c.Model = val
	case "base_url":
		c.BaseURL = val
	case "temperature":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || !validTemperature(f) {
			return fmt.Errorf("invalid temperature %q: must be above 0 and at most 2", val)
		}
		c.Temperature = f
	case "max_tokens":
		return setInt(&c.MaxTokens)
	case "http_timeout_sec":
		return setInt(&c.HTTPTimeoutSec)
	case "ollama_host":
		c.OllamaHost = val
	case "listings_path":
		c.ListingsPath = val
	case "ratings_path":
		c.RatingsPath = val
	case "ids_path":
		c.IDsPath = val
	case "listen_addr":
		c.ListenAddr = val
	case "details_rate_per_min":
		// 0 turns the throttle off.
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid non-negative int for %s: %q", key, val)
		}
		c.DetailsRatePerMin = i
	case "log_level":
		c.LogLevel = val
	case "log_format":
		if val != "json" && val != "console" {
			return fmt.Errorf("invalid log_format: %s (use json or console)", val)
		}
		c.LogFormat = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
