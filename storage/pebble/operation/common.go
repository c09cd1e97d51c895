package operation

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/vmihailenco/msgpack"

	"github.com/onflow/rollup-node/module/irrecoverable"
	"github.com/onflow/rollup-node/storage"
)

// Functors returned by this package are applied either to the database itself
// or to a batch, pebble.DB and *pebble.Batch implement both interfaces.

// upsert writes the msgpack encoding of val under key. An existing value is overwritten.
func upsert(key []byte, val interface{}) func(pebble.Writer) error {
	return func(w pebble.Writer) error {
		encoded, err := msgpack.Marshal(val)
		if err != nil {
			return irrecoverable.NewExceptionf("could not encode value under key %x: %w", key, err)
		}
		if err := w.Set(key, encoded, nil); err != nil {
			return irrecoverable.NewExceptionf("could not write key %x: %w", key, err)
		}
		return nil
	}
}

// retrieve decodes the value under key into dst, which must be a pointer.
// Expected errors during normal operations:
//   - storage.ErrNotFound if the key is not present
func retrieve(key []byte, dst interface{}) func(pebble.Reader) error {
	return func(r pebble.Reader) error {
		encoded, closer, err := r.Get(key)
		if errors.Is(err, pebble.ErrNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return irrecoverable.NewExceptionf("could not read key %x: %w", key, err)
		}
		// encoded is only valid until closer is closed
		defer closer.Close()

		if err := msgpack.Unmarshal(encoded, dst); err != nil {
			return irrecoverable.NewExceptionf("could not decode value under key %x: %w", key, err)
		}
		return nil
	}
}

// remove deletes key. Deleting a missing key is a no-op.
func remove(key []byte) func(pebble.Writer) error {
	return func(w pebble.Writer) error {
		if err := w.Delete(key, nil); err != nil {
			return irrecoverable.NewExceptionf("could not delete key %x: %w", key, err)
		}
		return nil
	}
}
