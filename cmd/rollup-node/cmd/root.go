package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/onflow/rollup-node/config"
)

var flagConfigFile string

var rootCmd = &cobra.Command{
	Use:   "rollup-node",
	Short: "Run a rollup full node on top of a DA layer",
	RunE:  runE,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config-file", "",
		"optional YAML file with config values, overridden by flags and ROLLUP_ environment variables")
	config.InitializeFlags(rootCmd.Flags(), config.DefaultConfig())

	rootCmd.AddCommand(readLedgerCmd)
	rootCmd.AddCommand(rollbackCmd)
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}

func runE(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags(), flagConfigFile)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := newNode(ctx, log, cfg)
	if err != nil {
		log.Error().Err(err).Msg("could not start node")
		return err
	}

	err = n.run(ctx)
	closeErr := n.close()
	if closeErr != nil {
		log.Error().Err(closeErr).Msg("could not close node cleanly")
	}

	if errors.Is(err, context.Canceled) {
		log.Info().Msg("node stopped")
		return closeErr
	}
	if err != nil {
		log.Error().Err(err).Msg("node failed")
		return err
	}
	return closeErr
}
