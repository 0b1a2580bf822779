package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"position-manager/pkg/chain"
	"position-manager/pkg/types"
)

// Config holds the application configuration
type Config struct {
	RPCURL              string
	ChainID             int64
	PrivateKey          string
	GasLimit            uint64
	GasPrice            int64
	RPCRateLimit        float64
	ConfirmationTimeout time.Duration
	PollInterval        time.Duration
	ApproveMax          bool

	LogLevel    string
	Theme       string
	Locale      string
	HistoryFile string
	VaultsFile  string
	MetricsAddr string

	JWTToken string
	BaseURL  string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".position-manager")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("rpc_url", "https://bsc-dataseed.bnbchain.org")
	viper.SetDefault("chain_id", 56)
	viper.SetDefault("rpc_rate_limit", 10)
	viper.SetDefault("confirmation_timeout", "0s")
	viper.SetDefault("poll_interval", "2s")
	viper.SetDefault("approve_max", false)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("theme", "dark")
	viper.SetDefault("locale", "en-US")
	viper.SetDefault("oneclick_base_url", "https://1click.chaindefuser.com")

	// Read from environment variables
	viper.SetEnvPrefix("POSITION_MANAGER")
	viper.AutomaticEnv()

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		RPCURL:              viper.GetString("rpc_url"),
		ChainID:             viper.GetInt64("chain_id"),
		PrivateKey:          viper.GetString("private_key"),
		GasLimit:            viper.GetUint64("gas_limit"),
		GasPrice:            viper.GetInt64("gas_price"),
		RPCRateLimit:        viper.GetFloat64("rpc_rate_limit"),
		ConfirmationTimeout: viper.GetDuration("confirmation_timeout"),
		PollInterval:        viper.GetDuration("poll_interval"),
		ApproveMax:          viper.GetBool("approve_max"),
		LogLevel:            viper.GetString("log_level"),
		Theme:               viper.GetString("theme"),
		Locale:              viper.GetString("locale"),
		HistoryFile:         viper.GetString("history_file"),
		VaultsFile:          viper.GetString("vaults_file"),
		MetricsAddr:         viper.GetString("metrics_addr"),
		JWTToken:            viper.GetString("oneclick_jwt_token"),
		BaseURL:             viper.GetString("oneclick_base_url"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Validate checks values that would only fail later at runtime
func (c *Config) Validate() error {
	if c.ChainID <= 0 {
		return fmt.Errorf("chain_id must be positive, got %d", c.ChainID)
	}
	if c.RPCRateLimit < 0 {
		return fmt.Errorf("rpc_rate_limit must not be negative")
	}
	if c.ConfirmationTimeout < 0 {
		return fmt.Errorf("confirmation_timeout must not be negative")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}

// RequireSigner checks that transactions can be signed and sent
func (c *Config) RequireSigner() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC URL not found. Please set POSITION_MANAGER_RPC_URL environment variable or add rpc_url to .position-manager.yaml")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private key not found. Please set POSITION_MANAGER_PRIVATE_KEY environment variable or add private_key to .position-manager.yaml")
	}
	return nil
}

// ChainParams converts the transaction settings for the chain client
func (c *Config) ChainParams() chain.Params {
	params := chain.Params{
		ChainID:             c.ChainID,
		RateLimit:           rateLimit(c.RPCRateLimit),
		PollInterval:        c.PollInterval,
		ConfirmationTimeout: c.ConfirmationTimeout,
	}
	if c.GasLimit > 0 {
		gasLimit := c.GasLimit
		params.GasLimit = &gasLimit
	}
	if c.GasPrice > 0 {
		gasPrice := c.GasPrice
		params.GasPrice = &gasPrice
	}
	return params
}

// Display returns the presentation settings
func (c *Config) Display() types.Display {
	return types.Display{Theme: c.Theme, Locale: c.Locale}
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
