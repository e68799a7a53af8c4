package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent storysprout configuration stored as
// config.toml in the .storysprout/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	AI      AIConfig      `toml:"ai"`
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Events  EventsConfig  `toml:"events"`
	Client  ClientConfig  `toml:"client"`
}

// AIConfig selects the active LLM backend and configures each one.
type AIConfig struct {
	Provider  string        `toml:"provider,omitempty"`
	Anthropic BackendConfig `toml:"anthropic,omitempty"`
	OpenAI    BackendConfig `toml:"openai,omitempty"`
	Gemini    BackendConfig `toml:"gemini,omitempty"`
	Ollama    BackendConfig `toml:"ollama,omitempty"`
}

// BackendConfig holds the settings of one LLM backend.
type BackendConfig struct {
	APIKey    string `toml:"api_key,omitempty"`
	BaseURL   string `toml:"base_url,omitempty"`
	Model     string `toml:"model,omitempty"`
	MaxTokens int    `toml:"max_tokens,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig selects where stories are persisted.
type StorageConfig struct {
	// Driver is one of "inmemory", "sqlite" or "postgres".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig holds persisted-beat event publishing settings.
type EventsConfig struct {
	Enabled bool `toml:"enabled,omitempty"`

	// Brokers is a comma separated list of Kafka broker addresses.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// API server (e.g. storysprout read). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"ai.provider": {
		get: func(c *Config) string { return c.AI.Provider },
		set: func(c *Config, v string) error { c.AI.Provider = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error { c.Storage.Driver = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
}

// backendSections lists the [ai.*] sections in display order.
var backendSections = []struct {
	name   string
	config func(c *Config) *BackendConfig
}{
	{"anthropic", func(c *Config) *BackendConfig { return &c.AI.Anthropic }},
	{"openai", func(c *Config) *BackendConfig { return &c.AI.OpenAI }},
	{"gemini", func(c *Config) *BackendConfig { return &c.AI.Gemini }},
	{"ollama", func(c *Config) *BackendConfig { return &c.AI.Ollama }},
}

func init() {
	for _, section := range backendSections {
		registerBackendKeys(section.name, section.config)
	}
}

// registerBackendKeys adds the ai.<name>.* keys for one backend.
func registerBackendKeys(name string, backend func(c *Config) *BackendConfig) {
	prefix := "ai." + name + "."

	configKeys[prefix+"api_key"] = configKeyInfo{
		get: func(c *Config) string { return backend(c).APIKey },
		set: func(c *Config, v string) error { backend(c).APIKey = v; return nil },
	}
	configKeys[prefix+"base_url"] = configKeyInfo{
		get: func(c *Config) string { return backend(c).BaseURL },
		set: func(c *Config, v string) error { backend(c).BaseURL = v; return nil },
	}
	configKeys[prefix+"model"] = configKeyInfo{
		get: func(c *Config) string { return backend(c).Model },
		set: func(c *Config, v string) error { backend(c).Model = v; return nil },
	}
	configKeys[prefix+"max_tokens"] = configKeyInfo{
		get: func(c *Config) string {
			if backend(c).MaxTokens == 0 {
				return ""
			}
			return strconv.Itoa(backend(c).MaxTokens)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for %smax_tokens: %q", prefix, v)
			}
			backend(c).MaxTokens = n
			return nil
		},
	}
}
