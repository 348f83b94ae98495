package common

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultRPCAddr        = "localhost:24335"
	DefaultConnectTimeout = 10 * time.Second
	DefaultTimeout        = 30 * time.Second
	DefaultStore          = "bolt"
)

type Config struct {
	DataDir string `yaml:"-"`

	// client side
	Endpoint       string        `yaml:"endpoint"` // 'http://localhost:24335/rpc'
	ConnectTimeout time.Duration `yaml:"connect-timeout"`
	Timeout        time.Duration `yaml:"timeout"`

	// rpcd
	RPCAddr   string  `yaml:"rpc-addr"`
	Store     string  `yaml:"store"` // 'bolt' or 'badger'
	RateLimit float64 `yaml:"rate-limit"`
	RateBurst int     `yaml:"rate-burst"`
}

func (c *Config) SetDefaults() {
	if c.RPCAddr == "" {
		c.RPCAddr = DefaultRPCAddr
	}
	if c.Endpoint == "" {
		c.Endpoint = "http://" + c.RPCAddr + "/rpc"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Store == "" {
		c.Store = DefaultStore
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}
}

// ReadConfig loads <datadir>/config.yaml into c and applies defaults. A missing
// file is created empty so the user has somewhere to start editing.
func (config *Config) ReadConfig() error {
	configFile := filepath.Join(config.DataDir, "config.yaml")
	configData, err := os.ReadFile(configFile)
	if err != nil {
		log.Info().Err(err).Str("path", configFile).
			Msg("error reading config file, will attempt to create it")
		if err := os.MkdirAll(config.DataDir, 0755); err == nil {
			os.WriteFile(configFile, []byte(""), 0644)
		}
		configData = nil
	}

	if err := yaml.Unmarshal(configData, config); err != nil {
		return fmt.Errorf("invalid config file %s: %w", configFile, err)
	}
	config.SetDefaults()
	return nil
}

func (c *Config) IssuerConfig() IssuerConfig {
	return IssuerConfig{
		ConnectTimeout: c.ConnectTimeout,
		Timeout:        c.Timeout,
	}
}

// Validate reports settings that SetDefaults cannot repair.
func (c *Config) Validate() error {
	switch c.Store {
	case "bolt", "badger":
	default:
		return fmt.Errorf("unknown store %q, expected 'bolt' or 'badger'", c.Store)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate-limit must not be negative, got %v", c.RateLimit)
	}
	return nil
}
