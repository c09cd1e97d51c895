package component

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"

	"github.com/onflow/rollup-node/module/irrecoverable"
)

// ErrMultipleStartup is returned when Start is called on a component that was already started.
var ErrMultipleStartup = errors.New("component may only be started once")

// Component is started once and exposes channels closed when it is ready and
// when it has shut down. Once started, Done must close eventually, after a
// graceful shutdown or an irrecoverable error.
type Component interface {
	// Start launches the component. Shutdown is signalled by cancelling ctx,
	// irrecoverable errors are thrown through it.
	Start(ctx irrecoverable.SignalerContext)
	Ready() <-chan struct{}
	Done() <-chan struct{}
}

// ReadyFunc is called by a worker once it is ready.
type ReadyFunc func()

// ComponentWorker is a routine of a component. It must call ready once it is
// ready and return when ctx is cancelled.
type ComponentWorker func(ctx irrecoverable.SignalerContext, ready ReadyFunc)

// ComponentManagerBuilder collects the workers of a ComponentManager.
type ComponentManagerBuilder interface {
	AddWorker(ComponentWorker) ComponentManagerBuilder
	Build() *ComponentManager
}

type componentManagerBuilder struct {
	workers []ComponentWorker
}

func NewComponentManagerBuilder() ComponentManagerBuilder {
	return &componentManagerBuilder{}
}

// AddWorker adds a worker run in parallel with the others once the manager is started.
// Not concurrency safe.
func (b *componentManagerBuilder) AddWorker(worker ComponentWorker) ComponentManagerBuilder {
	b.workers = append(b.workers, worker)
	return b
}

func (b *componentManagerBuilder) Build() *ComponentManager {
	return &ComponentManager{
		started:        atomic.NewBool(false),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
		workersDone:    make(chan struct{}),
		shutdownSignal: make(chan struct{}),
		workers:        b.workers,
	}
}

var _ Component = (*ComponentManager)(nil)

// ComponentManager runs the workers of a component. Ready closes when every
// worker called its ReadyFunc, Done closes after every worker returned.
// An error thrown by a worker cancels all workers and is thrown to the
// context passed to Start.
type ComponentManager struct {
	started        *atomic.Bool
	ready          chan struct{}
	done           chan struct{}
	workersDone    chan struct{}
	shutdownSignal chan struct{}

	workers []ComponentWorker
}

// Start launches the workers. It panics when called more than once.
func (c *ComponentManager) Start(parent irrecoverable.SignalerContext) {
	if !c.started.CompareAndSwap(false, true) {
		panic(ErrMultipleStartup)
	}

	ctx, cancel := context.WithCancel(parent)
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)

	go func() {
		<-ctx.Done()
		close(c.shutdownSignal)
	}()

	go func() {
		// done closes after the error reached the parent
		defer func() {
			<-c.workersDone
			close(c.done)
		}()

		err := irrecoverable.WaitError(errChan, c.workersDone)
		if err != nil {
			cancel()
			parent.Throw(err)
		}
	}()

	var workersReady sync.WaitGroup
	var workersDone sync.WaitGroup
	workersReady.Add(len(c.workers))
	workersDone.Add(len(c.workers))

	for _, worker := range c.workers {
		worker := worker
		go func() {
			defer workersDone.Done()
			var once sync.Once
			worker(signalerCtx, func() {
				once.Do(workersReady.Done)
			})
		}()
	}

	go func() {
		workersReady.Wait()
		close(c.ready)
	}()
	go func() {
		workersDone.Wait()
		close(c.workersDone)
	}()
}

// Ready is closed once every worker is ready. It never closes if a worker
// returns without calling its ReadyFunc.
func (c *ComponentManager) Ready() <-chan struct{} {
	return c.ready
}

// Done is closed once every worker returned.
func (c *ComponentManager) Done() <-chan struct{} {
	return c.done
}

// ShutdownSignal is closed when shutdown started, by cancellation or by a thrown error.
func (c *ComponentManager) ShutdownSignal() <-chan struct{} {
	return c.shutdownSignal
}
