// Package servecmder provides the serve command that runs the StorySprout
// API server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/storysprout/api"
	"github.com/papercomputeco/storysprout/engine"
	"github.com/papercomputeco/storysprout/engine/worker"
	"github.com/papercomputeco/storysprout/pkg/config"
	"github.com/papercomputeco/storysprout/pkg/dotdir"
	"github.com/papercomputeco/storysprout/pkg/eventstream"
	"github.com/papercomputeco/storysprout/pkg/eventstream/kafka"
	"github.com/papercomputeco/storysprout/pkg/eventstream/nop"
	"github.com/papercomputeco/storysprout/pkg/llm/provider"
	"github.com/papercomputeco/storysprout/pkg/logger"
	"github.com/papercomputeco/storysprout/pkg/storage"
	"github.com/papercomputeco/storysprout/pkg/storage/inmemory"
	"github.com/papercomputeco/storysprout/pkg/storage/postgres"
	"github.com/papercomputeco/storysprout/pkg/storage/sqlite"
)

type ServeCommander struct {
	configDir string
	debug     bool

	// Flag targets. Resolved values are read back through viper.
	listen        string
	providerName  string
	storageDriver string
	sqlitePath    string
	postgresDSN   string
	events        bool
	brokers       string
	topic         string

	cfg    *config.Config
	logger *zap.Logger
}

const serveLongDesc string = `Run the StorySprout API server.

The server exposes the story catalog, story records and the streaming
POST /api/story-beat endpoint. Flags override environment variables,
which override config.toml values.

Examples:
  storysprout serve
  storysprout serve --provider openai --storage postgres --postgres-dsn postgres://localhost/stories
  storysprout serve --events --brokers kafka-1:9092,kafka-2:9092`

const serveShortDesc string = "Run the StorySprout API server"

var serveFlags = []string{
	config.FlagListen,
	config.FlagProvider,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagEvents,
	config.FlagBrokers,
	config.FlagTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)

			cmder.cfg, err = config.FromViper(v)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.providerName)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddBoolFlag(cmd, config.Flags, config.FlagEvents, &cmder.events)
	config.AddStringFlag(cmd, config.Flags, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagTopic, &cmder.topic)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	driver, err := c.newStorageDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event pool: %w", err)
	}
	defer pool.Close()

	registry := provider.NewRegistry(c.cfg.Providers())
	c.logger.Info("using LLM backend", zap.String("provider", registry.Name()))

	orchestrator := engine.New(engine.Config{
		Client: registry.Active(),
		Store:  driver,
		Pool:   pool,
		Logger: c.logger,
	})

	server := api.NewServer(api.Config{ListenAddr: c.cfg.API.Listen}, driver, orchestrator, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *ServeCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
	switch c.cfg.Storage.Driver {
	case config.StorageInMemory:
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case config.StoragePostgres:
		if c.cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires storage.postgres_dsn")
		}
		driver, err := postgres.NewDriver(ctx, c.cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		return driver, nil

	case config.StorageSQLite:
		path := c.cfg.Storage.SQLitePath
		if path == "" {
			var err error
			path, err = dotdir.NewManager().DatabasePath(c.configDir)
			if err != nil {
				return nil, err
			}
		}
		driver, err := sqlite.NewSQLiteDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", path))
		return driver, nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %q (available: %s, %s, %s)",
			c.cfg.Storage.Driver, config.StorageInMemory, config.StorageSQLite, config.StoragePostgres)
	}
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	if !c.cfg.Events.Enabled {
		return nop.NewPublisher(), nil
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: c.cfg.Events.BrokerList(),
		Topic:   c.cfg.Events.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	c.logger.Info("publishing beat events to kafka",
		zap.Strings("brokers", c.cfg.Events.BrokerList()),
		zap.String("topic", publisher.Topic()),
	)
	return publisher, nil
}
