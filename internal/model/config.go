package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LLMConfig holds settings for the chat-completion backend.
type LLMConfig struct {
	// Client selects the transport adapter: "openai" (client library) or
	// "legacy" (plain HTTP against the chat completions endpoint).
	Client string `mapstructure:"client" yaml:"client"`

	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// APIKey is normally empty in the file; the key comes from the
	// OPENAI_API_KEY environment variable or the system keyring.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`

	// TimeoutSec bounds a single completion request. Zero leaves the
	// transport default in place.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// ForceMock disables live calls even when a key is available.
	ForceMock bool `mapstructure:"force_mock" yaml:"force_mock"`
}

// IMAPConfig holds read-only ingest settings.
type IMAPConfig struct {
	Server   string `mapstructure:"server" yaml:"server"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	Limit    int    `mapstructure:"limit" yaml:"limit"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`

	// PollIntervalSec enables background ingest in the terminal UI when
	// greater than zero.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	DefaultTone string `mapstructure:"default_tone" yaml:"default_tone"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	IMAP     IMAPConfig     `mapstructure:"imap" yaml:"imap"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

const (
	imapLimitMin = 1
	imapLimitMax = 500
)

// ConfigDir returns ~/.config/emailagent, or the working directory when
// the home directory cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "emailagent")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/emailagent/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// setDefaults registers a default for every key so that missing keys
// resolve to sensible values and env overrides can bind to them.
func setDefaults(v *viper.Viper) {
	dir := ConfigDir()

	v.SetDefault("llm.client", "openai")
	v.SetDefault("llm.model", "gpt-4")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout_sec", 0)
	v.SetDefault("llm.force_mock", false)

	v.SetDefault("imap.server", "imap.gmail.com")
	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.mailbox", "INBOX")
	v.SetDefault("imap.limit", 50)
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.poll_interval_sec", 0)

	v.SetDefault("database.path", filepath.Join(dir, "email_agent.db"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "emailagent.log"))

	v.SetDefault("display.default_tone", DefaultTone)
}

// bindEnv wires environment variables into v. Every key can be overridden
// with an EMAILAGENT_ prefixed variable (EMAILAGENT_LLM_MODEL, ...); the
// conventional OPENAI_* and IMAP_* names are honoured as well.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("emailagent")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := map[string][]string{
		"llm.api_key":   {"EMAILAGENT_LLM_API_KEY", "OPENAI_API_KEY"},
		"llm.model":     {"EMAILAGENT_LLM_MODEL", "OPENAI_MODEL"},
		"llm.base_url":  {"EMAILAGENT_LLM_BASE_URL", "OPENAI_BASE_URL"},
		"imap.server":   {"EMAILAGENT_IMAP_SERVER", "IMAP_SERVER"},
		"imap.username": {"EMAILAGENT_IMAP_USERNAME", "IMAP_USERNAME"},
		"imap.password": {"EMAILAGENT_IMAP_PASSWORD", "IMAP_PASSWORD"},
		"imap.mailbox":  {"EMAILAGENT_IMAP_MAILBOX", "IMAP_MAILBOX"},
		"imap.limit":    {"EMAILAGENT_IMAP_LIMIT", "IMAP_LIMIT"},
	}
	for key, names := range aliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}
	return nil
}

// NewViper returns a viper instance with defaults and env bindings applied,
// reading the YAML file at path when it exists.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}
	return v, nil
}

// readConfigFile loads path into v; a missing file is not an error.
func readConfigFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return nil
}

// LoadFileConfig reads only the YAML file at path over the defaults.
// Environment variables and command-line flags are not consulted, so the
// result is what the file itself says.
func LoadFileConfig(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}
	return ConfigFromViper(v)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file yields the defaults, still subject to env overrides.
func LoadConfig(path string) (*AppConfig, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return ConfigFromViper(v)
}

// ConfigFromViper decodes and sanitizes the configuration held by v.
func ConfigFromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.LLM.Client = strings.ToLower(strings.TrimSpace(cfg.LLM.Client))
	if cfg.LLM.Client != "legacy" {
		cfg.LLM.Client = "openai"
	}

	// Out-of-range limits fall back to the default rather than failing.
	if cfg.IMAP.Limit < imapLimitMin || cfg.IMAP.Limit > imapLimitMax {
		cfg.IMAP.Limit = 50
	}
	if cfg.Display.DefaultTone == "" {
		cfg.Display.DefaultTone = DefaultTone
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. Secrets are never written.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	llm := cfg.LLM
	llm.APIKey = ""
	imap := cfg.IMAP
	imap.Password = ""

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("llm", llm)
	v.Set("imap", imap)
	v.Set("database", cfg.Database)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// SaveIMAPConfig writes the connection settings of imap into the file at
// path and leaves every other key as the file had it. Overrides that came
// from the environment or flags for this run are not persisted, and
// neither is the password.
func SaveIMAPConfig(path string, imap IMAPConfig) error {
	cfg, err := LoadFileConfig(path)
	if err != nil {
		return err
	}

	cfg.IMAP.Server = imap.Server
	cfg.IMAP.Port = imap.Port
	cfg.IMAP.Username = imap.Username
	cfg.IMAP.Mailbox = imap.Mailbox
	cfg.IMAP.Limit = imap.Limit
	cfg.IMAP.TLS = imap.TLS

	return SaveConfig(path, cfg)
}
