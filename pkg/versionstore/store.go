// Package versionstore is the capability a worker consumes to persist and
// retrieve secondary version records, keyed by (tree-id, tx-id, command-id).
// Grounded on BTreeVI.cpp's insertVersion/retrieveVersion callback pattern:
// the caller reserves exactly the bytes it needs and fills them in place via
// a callback, avoiding an intermediate allocation for the encoded record.
package versionstore

// Key identifies a version record: the tree it belongs to, the writer's
// transaction id, and that writer's command id within the transaction.
type Key struct {
	TreeID    uint32
	TxID      uint64
	CommandID uint32
}

// Store is implemented by mem_store (tests) and badger_store (production).
type Store interface {
	// Reserve allocates size bytes for the version under key and calls fill
	// to populate them, then commits the record. fill must write exactly
	// size bytes.
	Reserve(key Key, size int, fill func(buf []byte)) error

	// Retrieve looks up the version under key and, if present, calls read
	// with its bytes. Returns whether a record was found.
	Retrieve(key Key, read func(buf []byte) error) (bool, error)

	// Remove deletes the version under key. Removing an absent key is not
	// an error.
	Remove(key Key) error

	// Close releases any resources held by the store.
	Close() error
}
