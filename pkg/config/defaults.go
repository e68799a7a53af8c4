package config

import (
	"github.com/papercomputeco/storysprout/pkg/eventstream/kafka"
	"github.com/papercomputeco/storysprout/pkg/llm/provider"
)

const (
	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"
	defaultStorageDriver   = StorageSQLite
	defaultBrokers         = "localhost:9092"
)

// Storage driver names.
const (
	StorageInMemory = "inmemory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		AI: AIConfig{
			Provider: provider.Default,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Events: EventsConfig{
			Enabled: false,
			Brokers: defaultBrokers,
			Topic:   kafka.DefaultTopic,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
	}
}
