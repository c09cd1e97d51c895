package irrecoverable_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/rollup-node/module/irrecoverable"
)

var sentinel = errors.New("sentinel")

func TestException(t *testing.T) {
	err := irrecoverable.NewExceptionf("could not decode head slot: %w", sentinel)
	assert.True(t, irrecoverable.IsException(err))
	assert.True(t, irrecoverable.IsException(fmt.Errorf("wrapped: %w", err)))
	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, irrecoverable.IsException(sentinel))
}

func TestThrowDeliversFirstError(t *testing.T) {
	ctx, errChan := irrecoverable.WithSignaler(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx.Throw(sentinel)
	}()

	select {
	case err := <-errChan:
		require.ErrorIs(t, err, sentinel)
	case <-time.After(time.Second):
		t.Fatal("error was not delivered")
	}
	<-done
}

func TestWaitError(t *testing.T) {
	done := make(chan struct{})
	close(done)
	errChan := make(chan error)
	assert.NoError(t, irrecoverable.WaitError(errChan, done))
}
