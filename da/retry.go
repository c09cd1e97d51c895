package da

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/onflow/rollup-node/model/rollup"
)

// DefaultRetryAttempts is the number of fetch attempts for a pending block.
const DefaultRetryAttempts = 5

// RetryMetrics tracks fetch retries of a RetryingService.
type RetryMetrics interface {
	DAFetchRetried(height uint64)
}

// RetryConfig bounds the retry loop of a RetryingService.
type RetryConfig struct {
	Attempts  uint64        // total number of fetch attempts, at least 1
	BaseDelay time.Duration // delay before the first retry, doubled on each retry
	MaxDelay  time.Duration // cap of a single delay
}

// RetryingService wraps a Service and retries BlockAt with exponential backoff
// while the block is pending. Other errors are returned immediately.
type RetryingService struct {
	Service
	log     zerolog.Logger
	cfg     RetryConfig
	metrics RetryMetrics
}

var _ Service = (*RetryingService)(nil)

func NewRetryingService(log zerolog.Logger, service Service, cfg RetryConfig, metrics RetryMetrics) (*RetryingService, error) {
	if cfg.Attempts == 0 {
		return nil, fmt.Errorf("at least one fetch attempt is required")
	}
	if cfg.BaseDelay <= 0 {
		return nil, fmt.Errorf("base delay must be positive, got %v", cfg.BaseDelay)
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		return nil, fmt.Errorf("max delay %v is below base delay %v", cfg.MaxDelay, cfg.BaseDelay)
	}

	return &RetryingService{
		Service: service,
		log:     log.With().Str("component", "da_retry").Logger(),
		cfg:     cfg,
		metrics: metrics,
	}, nil
}

// BlockAt fetches the block at the given height, retrying while it is pending.
// Expected errors during normal operations:
//   - ErrNoBlockAvailable if the block stayed pending for every attempt
func (s *RetryingService) BlockAt(ctx context.Context, height uint64) (*rollup.Block, error) {
	backoff := retry.NewExponential(s.cfg.BaseDelay)
	backoff = retry.WithCappedDuration(s.cfg.MaxDelay, backoff)
	backoff = retry.WithMaxRetries(s.cfg.Attempts-1, backoff)

	var block *rollup.Block
	attempt := uint64(0)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.DAFetchRetried(height)
		}

		var err error
		block, err = s.Service.BlockAt(ctx, height)
		if errors.Is(err, ErrBlockPending) {
			s.log.Debug().
				Uint64("height", height).
				Uint64("attempt", attempt).
				Msg("block not available yet, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, ErrBlockPending) {
		return nil, fmt.Errorf("block at height %d pending after %d attempts: %w", height, attempt, ErrNoBlockAvailable)
	}
	if err != nil {
		return nil, fmt.Errorf("could not fetch block at height %d: %w", height, err)
	}
	return block, nil
}
