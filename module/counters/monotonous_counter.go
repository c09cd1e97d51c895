package counters

import (
	"go.uber.org/atomic"
)

// StrictMonotonousCounter is a helper struct which implements a strict monotonous counter.
// StrictMonotonousCounter is implemented using atomic operations and doesn't allow to set
// a value which is lower or equal to the already stored one. The counter is implemented
// solely with non-blocking atomic operations for concurrency safety.
type StrictMonotonousCounter struct {
	atomicCounter *atomic.Uint64
}

// NewMonotonousCounter creates a new counter with the given initial value.
func NewMonotonousCounter(initialValue uint64) StrictMonotonousCounter {
	return StrictMonotonousCounter{
		atomicCounter: atomic.NewUint64(initialValue),
	}
}

// Set updates value of counter if and only if it's strictly larger than the current value.
// Returns true if the update was successful or false if the stored value is larger or equal.
func (c *StrictMonotonousCounter) Set(newValue uint64) bool {
	for {
		oldValue := c.Value()
		if newValue <= oldValue {
			return false
		}
		if c.atomicCounter.CompareAndSwap(oldValue, newValue) {
			return true
		}
	}
}

// Value returns the value which is stored in the atomic variable.
func (c *StrictMonotonousCounter) Value() uint64 {
	return c.atomicCounter.Load()
}
