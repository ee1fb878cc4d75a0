// Package kvstore defines the byte-addressable key-value store contract
// the trie is built on top of (see spec component C3). The trie never
// talks to a concrete storage engine directly; it only ever sees a Store.
package kvstore

import "errors"

// ErrInvalidOp is returned by Batch when it is given a put whose value
// is empty; an empty value is indistinguishable from absence, so a put
// must never be used to represent "no value" — callers should emit a
// Del instead.
var ErrInvalidOp = errors.New("kvstore: put op with empty value")

// OpKind distinguishes the two operations a Batch can carry.
type OpKind uint8

const (
	// OpPut stores value under key. A put with an empty value is invalid
	// (see trie.ErrInvalidBatchOp) — callers that want to remove a key
	// must use OpDel.
	OpPut OpKind = iota
	// OpDel removes key, a no-op if it is already absent.
	OpDel
)

// Op is a single mutation queued into a Batch.
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte
}

// Store is the byte-addressable key-value store the trie persists nodes
// to. Implementations must be safe for concurrent Get calls; the trie
// itself serializes concurrent mutations (see trie's concurrency gate),
// so Put/Delete/Batch never race each other from the trie's side, but a
// Store shared with other callers must still guard its own state.
type Store interface {
	// Get returns the value stored under key, or (nil, nil) if the key
	// is absent. Any other failure must be returned as a non-nil error.
	Get(key []byte) ([]byte, error)

	// Put stores value under key.
	Put(key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// Batch applies ops atomically: either every op lands, or (on
	// error) none of them are observable by a subsequent Get.
	Batch(ops []Op) error

	// Copy returns a handle to the same logical data set. Whether the
	// copy is a live alias or a point-in-time snapshot is up to the
	// implementation — the trie does not distinguish between the two,
	// per spec §4.3.
	Copy() Store
}
