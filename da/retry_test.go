package da_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/onflow/rollup-node/da"
	"github.com/onflow/rollup-node/da/mock"
	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/utils/unittest"
)

type retryCounter struct {
	retries []uint64
}

func (c *retryCounter) DAFetchRetried(height uint64) {
	c.retries = append(c.retries, height)
}

func fastRetries(attempts uint64) da.RetryConfig {
	return da.RetryConfig{
		Attempts:  attempts,
		BaseDelay: time.Millisecond,
		MaxDelay:  2 * time.Millisecond,
	}
}

func TestRetryingService_ReturnsAvailableBlock(t *testing.T) {
	service := mock.NewService(t)
	block := unittest.BlockFixture(1, rollup.ZeroID)
	service.On("BlockAt", testifymock.Anything, uint64(1)).Return(block, nil).Once()

	counter := &retryCounter{}
	retrying, err := da.NewRetryingService(unittest.Logger(), service, fastRetries(3), counter)
	require.NoError(t, err)

	fetched, err := retrying.BlockAt(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, block, fetched)
	assert.Empty(t, counter.retries)
}

func TestRetryingService_RetriesPending(t *testing.T) {
	service := mock.NewService(t)
	block := unittest.BlockFixture(7, rollup.ZeroID)
	service.On("BlockAt", testifymock.Anything, uint64(7)).Return(nil, da.ErrBlockPending).Twice()
	service.On("BlockAt", testifymock.Anything, uint64(7)).Return(block, nil).Once()

	counter := &retryCounter{}
	retrying, err := da.NewRetryingService(unittest.Logger(), service, fastRetries(3), counter)
	require.NoError(t, err)

	fetched, err := retrying.BlockAt(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, block, fetched)
	assert.Equal(t, []uint64{7, 7}, counter.retries)
}

func TestRetryingService_Exhausted(t *testing.T) {
	service := mock.NewService(t)
	service.On("BlockAt", testifymock.Anything, uint64(2)).
		Return(nil, fmt.Errorf("not there: %w", da.ErrBlockPending)).
		Times(3)

	retrying, err := da.NewRetryingService(unittest.Logger(), service, fastRetries(3), &retryCounter{})
	require.NoError(t, err)

	_, err = retrying.BlockAt(context.Background(), 2)
	require.ErrorIs(t, err, da.ErrNoBlockAvailable)
}

func TestRetryingService_OtherErrorsAreNotRetried(t *testing.T) {
	service := mock.NewService(t)
	failure := errors.New("connection refused")
	service.On("BlockAt", testifymock.Anything, uint64(2)).Return(nil, failure).Once()

	retrying, err := da.NewRetryingService(unittest.Logger(), service, fastRetries(3), &retryCounter{})
	require.NoError(t, err)

	_, err = retrying.BlockAt(context.Background(), 2)
	require.ErrorIs(t, err, failure)
	assert.NotErrorIs(t, err, da.ErrNoBlockAvailable)
}

func TestRetryingService_Cancelled(t *testing.T) {
	service := mock.NewService(t)
	service.On("BlockAt", testifymock.Anything, uint64(2)).Return(nil, da.ErrBlockPending).Maybe()

	cfg := da.RetryConfig{Attempts: 100, BaseDelay: time.Second, MaxDelay: time.Second}
	retrying, err := da.NewRetryingService(unittest.Logger(), service, cfg, &retryCounter{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	unittest.RequireReturnsBefore(t, func() {
		_, err = retrying.BlockAt(ctx, 2)
	}, time.Second, "cancelled fetch did not return")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryingService_DelegatesFinality(t *testing.T) {
	service := mock.NewService(t)
	service.On("LastFinalizedHeight", testifymock.Anything).Return(uint64(12), nil).Once()

	retrying, err := da.NewRetryingService(unittest.Logger(), service, fastRetries(1), &retryCounter{})
	require.NoError(t, err)

	height, err := retrying.LastFinalizedHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12), height)
}

func TestNewRetryingService_InvalidConfig(t *testing.T) {
	service := mock.NewService(t)

	for name, cfg := range map[string]da.RetryConfig{
		"no attempts":    {Attempts: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		"no base delay":  {Attempts: 1, BaseDelay: 0, MaxDelay: time.Millisecond},
		"max below base": {Attempts: 1, BaseDelay: time.Second, MaxDelay: time.Millisecond},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := da.NewRetryingService(unittest.Logger(), service, cfg, &retryCounter{})
			require.Error(t, err)
		})
	}
}
