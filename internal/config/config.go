package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr    = ":3001"
	DefaultModel         = "CLAUDE_SONET_3_7_v1"
	DefaultScope         = "data:read data:write"
	DefaultTimeout       = 60 * time.Second
	DefaultMaxConcurrent = 4
	DefaultRetryMax      = 2
	DefaultProvider      = "platform"
)

// LLM holds analysis-backend settings.
type LLM struct {
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	AuthURL      string `mapstructure:"auth_url"`
	ServiceURL   string `mapstructure:"service_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Scope        string `mapstructure:"scope"`
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
}

// Config holds runtime configuration values.
type Config struct {
	ListenAddr    string
	GatewayURL    string
	GitHubToken   string
	Timeout       time.Duration
	MaxConcurrent int
	RetryMax      int
	Verbose       bool
	LLM           LLM
}

type rawConfig struct {
	ListenAddr    string `mapstructure:"listen_addr"`
	GatewayURL    string `mapstructure:"gateway_url"`
	GitHubToken   string `mapstructure:"github_token"`
	Timeout       string `mapstructure:"timeout"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	RetryMax      int    `mapstructure:"retry_max"`
	Verbose       bool   `mapstructure:"verbose"`
	LLM           LLM    `mapstructure:"llm"`
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REPOLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("gateway_url", "")
	v.SetDefault("github_token", "")
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("max_concurrent", DefaultMaxConcurrent)
	v.SetDefault("retry_max", DefaultRetryMax)
	v.SetDefault("verbose", false)
	v.SetDefault("llm.provider", DefaultProvider)
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.auth_url", "")
	v.SetDefault("llm.service_url", "")
	v.SetDefault("llm.client_id", "")
	v.SetDefault("llm.client_secret", "")
	v.SetDefault("llm.scope", DefaultScope)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")

	if cmd != nil {
		_ = v.BindPFlag("listen_addr", cmd.Flags().Lookup("listen"))
		_ = v.BindPFlag("gateway_url", cmd.Flags().Lookup("gateway-url"))
		_ = v.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
		_ = v.BindPFlag("max_concurrent", cmd.Flags().Lookup("max-concurrent"))
		_ = v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
		_ = v.BindPFlag("llm.provider", cmd.Flags().Lookup("llm-provider"))
		_ = v.BindPFlag("llm.model", cmd.Flags().Lookup("model"))
	}

	// Conventional bare env names take effect when the prefixed ones are unset.
	if token := os.Getenv("GITHUB_TOKEN"); token != "" && os.Getenv("REPOLENS_GITHUB_TOKEN") == "" {
		v.Set("github_token", token)
	}
	if id := os.Getenv("PLATFORM_CLIENT_ID"); id != "" && os.Getenv("REPOLENS_LLM_CLIENT_ID") == "" {
		v.Set("llm.client_id", id)
	}
	if secret := os.Getenv("PLATFORM_CLIENT_SECRET"); secret != "" && os.Getenv("REPOLENS_LLM_CLIENT_SECRET") == "" {
		v.Set("llm.client_secret", secret)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && os.Getenv("REPOLENS_LLM_API_KEY") == "" {
		v.Set("llm.api_key", key)
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", Result: &raw})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	timeout := DefaultTimeout
	if raw.Timeout != "" {
		parsed, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		timeout = parsed
	}

	cfg := Config{
		ListenAddr:    raw.ListenAddr,
		GatewayURL:    raw.GatewayURL,
		GitHubToken:   raw.GitHubToken,
		Timeout:       timeout,
		MaxConcurrent: raw.MaxConcurrent,
		RetryMax:      raw.RetryMax,
		Verbose:       raw.Verbose,
		LLM:           raw.LLM,
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = DefaultRetryMax
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = DefaultProvider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel
	}
	if cfg.LLM.Scope == "" {
		cfg.LLM.Scope = DefaultScope
	}

	return cfg, nil
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "repolens")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}
