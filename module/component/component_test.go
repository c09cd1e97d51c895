package component_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/rollup-node/module/component"
	"github.com/onflow/rollup-node/module/irrecoverable"
	"github.com/onflow/rollup-node/utils/unittest"
)

func waitingWorker(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()
	<-ctx.Done()
}

func TestComponentManager_ReadyAndDone(t *testing.T) {
	cm := component.NewComponentManagerBuilder().
		AddWorker(waitingWorker).
		AddWorker(waitingWorker).
		Build()

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	cm.Start(ctx)

	unittest.RequireCloseBefore(t, cm.Ready(), time.Second, "manager did not become ready")
	select {
	case <-cm.Done():
		t.Fatal("manager done before cancellation")
	default:
	}

	cancel()
	unittest.RequireCloseBefore(t, cm.ShutdownSignal(), time.Second, "shutdown not signalled")
	unittest.RequireCloseBefore(t, cm.Done(), time.Second, "manager did not shut down")
}

func TestComponentManager_DoneWhenWorkersReturn(t *testing.T) {
	cm := component.NewComponentManagerBuilder().
		AddWorker(func(_ irrecoverable.SignalerContext, ready component.ReadyFunc) {
			ready()
		}).
		Build()

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	defer cancel()
	cm.Start(ctx)

	unittest.RequireCloseBefore(t, cm.Done(), time.Second, "manager did not finish")
}

func TestComponentManager_ThrownErrorStopsAllWorkers(t *testing.T) {
	expected := errors.New("fatal")
	cm := component.NewComponentManagerBuilder().
		AddWorker(waitingWorker).
		AddWorker(func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
			ready()
			ctx.Throw(expected)
		}).
		Build()

	ctx, errChan := irrecoverable.WithSignaler(context.Background())
	cm.Start(ctx)

	unittest.RequireCloseBefore(t, cm.Done(), time.Second, "manager did not shut down after error")
	err := irrecoverable.WaitError(errChan, cm.Done())
	assert.ErrorIs(t, err, expected)
}

func TestComponentManager_StartTwicePanics(t *testing.T) {
	cm := component.NewComponentManagerBuilder().AddWorker(waitingWorker).Build()

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	defer cancel()
	cm.Start(ctx)

	require.PanicsWithValue(t, component.ErrMultipleStartup, func() {
		cm.Start(ctx)
	})
}
