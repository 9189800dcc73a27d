package session

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings
const (
	EnvEndpoint         = "COSMOS_ENDPOINT"
	EnvKey              = "COSMOS_KEY"
	EnvConnectionString = "COSMOS_CONNECTION_STRING"
	EnvDatabase         = "COSMOS_DATABASE"
	EnvContainer        = "COSMOS_CONTAINER"
	EnvPreferredRegions = "COSMOS_PREFERRED_REGIONS"
	EnvMaxRetries       = "COSMOS_MAX_RETRIES"
	EnvRequestTimeout   = "COSMOS_REQUEST_TIMEOUT"
)

// LoadConfig reads a YAML config file on top of DefaultConfig and then
// applies environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvEndpoint:         &cfg.Endpoint,
		EnvKey:              &cfg.Key,
		EnvConnectionString: &cfg.ConnectionString,
		EnvDatabase:         &cfg.Database,
		EnvContainer:        &cfg.Container,
	}
	for name, target := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*target = v
		}
	}

	if v, ok := lookup(EnvPreferredRegions); ok && v != "" {
		regions := strings.Split(v, ",")
		cfg.PreferredRegions = cfg.PreferredRegions[:0]
		for _, r := range regions {
			if r = strings.TrimSpace(r); r != "" {
				cfg.PreferredRegions = append(cfg.PreferredRegions, r)
			}
		}
	}

	if v, ok := lookup(EnvMaxRetries); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxRetries, err)
		}
		cfg.MaxRetries = n
	}

	if v, ok := lookup(EnvRequestTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}

	return nil
}
