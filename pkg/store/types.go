// Package store provides persistent key-value storage for kindle-lock.
//
// The Store interface is the single persistence substrate for the rest of
// the application: credential material, daily accounting state, and cached
// book metadata all live behind it. The default implementation is backed by
// BoltDB; an in-memory implementation is provided for tests.
//
// Example usage:
//
//	st, err := store.NewBolt(store.Config{
//	    DBPath: "~/.config/kindle-lock/kindle-lock.db",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	if err := st.Set("progress/daily", data); err != nil {
//	    log.Fatal(err)
//	}
package store

import "time"

// Store provides atomic key-value persistence.
//
// All operations are safe for concurrent use. Set and Delete are atomic:
// a concurrent Get sees either the previous or the new value, never a
// partial write.
type Store interface {
	// Get retrieves the value stored under key.
	//
	// Returns:
	//   - Value bytes if present
	//   - ErrKeyNotFound if no value exists for key
	//   - Error for storage failures
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any existing value.
	Set(key string, value []byte) error

	// Delete removes the value stored under key.
	// Deleting a missing key is not an error.
	Delete(key string) error

	// Update applies fn to the current value of key and stores the result
	// in a single atomic read-modify-write. fn receives nil if the key is
	// absent. If fn returns a nil value, the key is deleted.
	//
	// No other writer can interleave between the read and the write.
	Update(key string, fn func(current []byte) ([]byte, error)) error

	// Close releases the underlying storage.
	Close() error
}

// Config contains store configuration.
type Config struct {
	// DBPath is the BoltDB file path. A leading ~ is expanded to the
	// user's home directory.
	DBPath string

	// Timeout is the file-lock acquisition timeout (default: 1 second).
	Timeout time.Duration
}
