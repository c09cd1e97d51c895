package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// All constant strings are used for CLI flag names and corresponding keys for config values.
	dataDir  = "datadir"
	logLevel = "loglevel"
	// finality and reorgs
	finalityMode  = "finality-mode"
	finalityDepth = "finality-depth"
	maxReorgDepth = "max-reorg-depth"
	stopAtHeight  = "stop-at-height"
	// DA fetch retries
	retryAttempts  = "da-retry-attempts"
	retryBaseDelay = "da-retry-base-delay"
	retryMaxDelay  = "da-retry-max-delay"
	// storage and notifications
	notificationBuffer = "notification-buffer"
	finalizedCacheSize = "finalized-cache-size"
	genesisParams      = "genesis-params"
	metricsPort        = "metrics-port"
	// in-process DA layer
	localDABlobFile      = "local-da-blob-file"
	localDAFinalityDepth = "local-da-finality-depth"

	// EnvPrefix is prepended to environment variables overriding flags, e.g. ROLLUP_FINALITY_DEPTH.
	EnvPrefix = "ROLLUP"
)

func AllFlagNames() []string {
	return []string{
		dataDir, logLevel, finalityMode, finalityDepth, maxReorgDepth, stopAtHeight,
		retryAttempts, retryBaseDelay, retryMaxDelay, notificationBuffer, finalizedCacheSize,
		genesisParams, metricsPort, localDABlobFile, localDAFinalityDepth,
	}
}

// InitializeFlags initializes all CLI flags of the rollup node on the provided pflag set.
// The values of config are used as defaults.
func InitializeFlags(flags *pflag.FlagSet, config *Config) {
	flags.String(dataDir, config.DataDir, "directory of the ledger and finalized state databases")
	flags.String(logLevel, config.LogLevel, "level for logging output")

	flags.String(finalityMode, config.FinalityMode, "how heights become final: da, depth or both")
	flags.Uint64(finalityDepth, config.FinalityDepth, "number of blocks on top of a height before it is final, 0 commits every block immediately")
	flags.Uint64(maxReorgDepth, config.MaxReorgDepth, "maximum number of heights a DA reorg may replace, 0 disables the bound")
	flags.Uint64(stopAtHeight, config.StopAtHeight, "stop processing once the canonical tip reaches this height, 0 disables")

	flags.Uint64(retryAttempts, config.RetryAttempts, "number of attempts to fetch a block that is not available yet")
	flags.Duration(retryBaseDelay, config.RetryBaseDelay, "delay before the first retry of a DA fetch, doubled on every retry")
	flags.Duration(retryMaxDelay, config.RetryMaxDelay, "maximum delay between two DA fetch retries")

	flags.Int(notificationBuffer, config.NotificationBuffer, "number of unread commit notifications kept per subscriber")
	flags.Uint(finalizedCacheSize, config.FinalizedCacheSize, "number of finalized state roots cached in memory")
	flags.String(genesisParams, config.GenesisParams, "hex encoded genesis parameters of the state transition")
	flags.Uint(metricsPort, config.MetricsPort, "port of the prometheus metrics server, 0 disables it")

	flags.String(localDABlobFile, config.LocalDABlobFile, "file with one hex encoded blob per line for the in-process DA layer")
	flags.Uint64(localDAFinalityDepth, config.LocalDAFinalityDepth, "finality depth reported by the in-process DA layer")
}

// Load reads the configuration from the flags, from ROLLUP_ prefixed
// environment variables and from the optional YAML config file, in that order
// of precedence, and validates it.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	err := v.BindPFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("could not bind flags: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		err = v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", configFile, err)
		}
	}

	config := &Config{}
	err = v.Unmarshal(config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}
	return config, nil
}
