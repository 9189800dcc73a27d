// Package session provides Azure Cosmos DB client management and container configuration
package session

import (
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/pay-theory/cosmorm/pkg/core"
)

// clientFactory is a variable to allow swapping client construction in tests
var clientFactory = newClient

// Config holds the configuration for a Cosmos DB session
type Config struct {
	ClientOptions    *azcosmos.ClientOptions `yaml:"-"`
	Endpoint         string                  `yaml:"endpoint"`
	Key              string                  `yaml:"key"`
	ConnectionString string                  `yaml:"connection_string"`
	Database         string                  `yaml:"database"`
	Container        string                  `yaml:"container"`
	PreferredRegions []string                `yaml:"preferred_regions"`
	MaxRetries       int                     `yaml:"max_retries"`
	RequestTimeout   time.Duration           `yaml:"request_timeout"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:     3,
		RequestTimeout: 10 * time.Second,
	}
}

// Validate checks that the configuration can produce a container client
func (c *Config) Validate() error {
	if c.ConnectionString == "" && (c.Endpoint == "" || c.Key == "") {
		return fmt.Errorf("either connectionString or endpoint and key are required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.Container == "" {
		return fmt.Errorf("container is required")
	}
	return nil
}

// Session manages the Cosmos DB client for one container
type Session struct {
	config    *Config
	client    *azcosmos.Client
	container *Container
}

// NewSession creates a new session with the given configuration
func NewSession(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	client, err := clientFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cosmos DB client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("failed to create Cosmos DB client")
	}

	containerClient, err := client.NewContainer(cfg.Database, cfg.Container)
	if err != nil {
		return nil, fmt.Errorf("failed to open container %s/%s: %w", cfg.Database, cfg.Container, err)
	}

	return &Session{
		config:    cfg,
		client:    client,
		container: NewContainer(containerClient),
	}, nil
}

// Client returns the Cosmos DB client
func (s *Session) Client() (*azcosmos.Client, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if s.client == nil {
		return nil, fmt.Errorf("Cosmos DB client is nil")
	}
	return s.client, nil
}

// Container returns the configured container as a core.Container
func (s *Session) Container() core.Container {
	return s.container
}

// Config returns the session configuration
func (s *Session) Config() *Config {
	return s.config
}

func newClient(cfg *Config) (*azcosmos.Client, error) {
	opts := clientOptions(cfg)

	if cfg.ConnectionString != "" {
		return azcosmos.NewClientFromConnectionString(cfg.ConnectionString, opts)
	}

	cred, err := azcosmos.NewKeyCredential(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid account key: %w", err)
	}
	return azcosmos.NewClientWithKey(cfg.Endpoint, cred, opts)
}

func clientOptions(cfg *Config) *azcosmos.ClientOptions {
	opts := &azcosmos.ClientOptions{}
	if cfg.ClientOptions != nil {
		copied := *cfg.ClientOptions
		opts = &copied
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	opts.Retry.MaxRetries = int32(maxRetries)
	if cfg.RequestTimeout > 0 {
		opts.Retry.TryTimeout = cfg.RequestTimeout
	}
	if len(cfg.PreferredRegions) > 0 {
		opts.PreferredRegions = cfg.PreferredRegions
	}

	return opts
}
