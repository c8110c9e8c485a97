// Package kvstore provides the transactional key/value storage that backs
// ledger, relation and bank state. Every Update runs as one atomic unit: if
// the callback returns an error, none of its writes become visible.
package kvstore

// Tx is a view of the store inside a View or Update callback.
//
// Values returned by Get and passed to Scan callbacks are copies and stay
// valid after the transaction ends. Scan callbacks must not write through
// the same Tx; collect keys first and write after Scan returns.
type Tx interface {
	// Get returns the value stored under key in bucket, or nil if absent.
	Get(bucket string, key []byte) []byte

	// Put stores value under key in bucket, creating the bucket if needed.
	Put(bucket string, key, value []byte) error

	// Delete removes key from bucket. Missing keys are not an error.
	Delete(bucket string, key []byte) error

	// Scan calls fn for every key in bucket starting with prefix, in
	// ascending key order. Returning an error from fn stops the scan.
	Scan(bucket string, prefix []byte, fn func(key, value []byte) error) error
}

// Store is a bucketed key/value store with serialized read-write transactions.
type Store interface {
	// View runs fn in a read-only transaction.
	View(fn func(Tx) error) error

	// Update runs fn in a read-write transaction and commits only if fn
	// returns nil.
	Update(fn func(Tx) error) error

	// Close releases the store.
	Close() error
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
