package config

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/onflow/rollup-node/da"
	"github.com/onflow/rollup-node/engine/execution/runner"
	"github.com/onflow/rollup-node/module/events"
)

// Config is the configuration of a rollup node.
type Config struct {
	// DataDir holds the ledger and the finalized state databases.
	DataDir  string `validate:"required" mapstructure:"datadir"`
	LogLevel string `validate:"oneof=debug info warn error" mapstructure:"loglevel"`

	FinalityMode string `validate:"oneof=da depth both" mapstructure:"finality-mode"`
	// FinalityDepth is the number of blocks on top of a height before it is final, in the depth and both modes.
	FinalityDepth uint64 `mapstructure:"finality-depth"`
	// MaxReorgDepth bounds the common ancestor search of a fork, 0 disables the bound.
	MaxReorgDepth uint64 `mapstructure:"max-reorg-depth"`
	StopAtHeight  uint64 `mapstructure:"stop-at-height"`

	RetryAttempts  uint64        `validate:"gte=1" mapstructure:"da-retry-attempts"`
	RetryBaseDelay time.Duration `validate:"gt=0" mapstructure:"da-retry-base-delay"`
	RetryMaxDelay  time.Duration `validate:"gtefield=RetryBaseDelay" mapstructure:"da-retry-max-delay"`

	NotificationBuffer int  `validate:"gt=0" mapstructure:"notification-buffer"`
	FinalizedCacheSize uint `validate:"gt=0" mapstructure:"finalized-cache-size"`

	// GenesisParams are hex encoded and passed to the state transition at genesis.
	GenesisParams string `validate:"omitempty,hexadecimal" mapstructure:"genesis-params"`
	// MetricsPort serves prometheus metrics, 0 disables the server.
	MetricsPort uint `validate:"lte=65535" mapstructure:"metrics-port"`

	// LocalDABlobFile seeds the in-process DA layer with one blob per line.
	LocalDABlobFile      string `mapstructure:"local-da-blob-file"`
	LocalDAFinalityDepth uint64 `mapstructure:"local-da-finality-depth"`
}

// DefaultConfig returns the configuration used when no flag, environment
// variable or config file overrides a value.
func DefaultConfig() *Config {
	return &Config{
		DataDir:              "/data/rollup",
		LogLevel:             "info",
		FinalityMode:         string(runner.FinalityDepth),
		FinalityDepth:        4,
		MaxReorgDepth:        runner.DefaultMaxReorgDepth,
		RetryAttempts:        da.DefaultRetryAttempts,
		RetryBaseDelay:       100 * time.Millisecond,
		RetryMaxDelay:        5 * time.Second,
		NotificationBuffer:   events.DefaultBufferSize,
		FinalizedCacheSize:   1000,
		MetricsPort:          8080,
		LocalDAFinalityDepth: 4,
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.GenesisParams)%2 != 0 {
		return fmt.Errorf("invalid config: genesis params must be an even number of hex characters")
	}
	return nil
}

// GenesisParamsBytes decodes the genesis parameters.
func (c *Config) GenesisParamsBytes() ([]byte, error) {
	params, err := hex.DecodeString(c.GenesisParams)
	if err != nil {
		return nil, fmt.Errorf("could not decode genesis params: %w", err)
	}
	return params, nil
}

// RunnerConfig returns the Runner part of the configuration.
func (c *Config) RunnerConfig() runner.Config {
	return runner.Config{
		FinalityMode:  runner.FinalityMode(c.FinalityMode),
		FinalityDepth: c.FinalityDepth,
		MaxReorgDepth: c.MaxReorgDepth,
		StopAtHeight:  c.StopAtHeight,
	}
}

// RetryConfig returns the DA retry part of the configuration.
func (c *Config) RetryConfig() da.RetryConfig {
	return da.RetryConfig{
		Attempts:  c.RetryAttempts,
		BaseDelay: c.RetryBaseDelay,
		MaxDelay:  c.RetryMaxDelay,
	}
}

// LedgerDir is the directory of the ledger database.
func (c *Config) LedgerDir() string {
	return filepath.Join(c.DataDir, "ledger")
}

// StatesDir is the directory of the finalized state database.
func (c *Config) StatesDir() string {
	return filepath.Join(c.DataDir, "states")
}
