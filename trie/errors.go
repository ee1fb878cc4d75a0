package trie

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidRoot is returned when a raw root byte slice does not have
// the configured hash length. Config.Root/WithRoot/VerifyProof all take
// a fixed-width common.Hash and so can never carry a malformed root;
// this is reached via RootFromBytes, the read-side companion to
// Config.PersistRoot's raw on-disk root encoding.
var ErrInvalidRoot = errors.New("trie: invalid root length")

// ErrReservedKey is returned when a caller attempts to Put or Delete the
// reserved root-persistence key (see Config.PersistRoot).
var ErrReservedKey = errors.New("trie: key is reserved for the persisted root")

// ErrInvalidBatchOp is returned when a commit's batch contains a put
// with an empty value. It is the trie-level translation of
// kvstore.ErrInvalidOp, produced at the store boundary in commit so
// callers only ever deal with trie-scoped errors.
var ErrInvalidBatchOp = errors.New("trie: invalid batch op")

// ErrInvalidProof is returned by VerifyProof/VerifyRangeProof when the
// supplied proof does not authenticate the claim under the given root.
var ErrInvalidProof = errors.New("trie: invalid proof")

// errStackUnderflow signals an internal invariant breach during
// mutation — a programming error, never a user error. Callers never
// see it as a normal error value; it is only ever passed to panic.
var errStackUnderflow = errors.New("trie: stack underflow")

// MissingNodeError is returned when an expected trie node is absent
// from the backing store. It is dropped only by a Walker constructed
// with swallowMissing, and returned everywhere else
// (in particular, proof verification always treats it as ErrInvalidProof).
type MissingNodeError struct {
	NodeHash common.Hash // hash of the missing node
	Path     []byte      // nibble path at which it was expected
	Err      error       // underlying store error, if any
}

func (e *MissingNodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("trie: missing node %x at path %x: %v", e.NodeHash, e.Path, e.Err)
	}
	return fmt.Sprintf("trie: missing node %x at path %x", e.NodeHash, e.Path)
}

func (e *MissingNodeError) Unwrap() error { return e.Err }

// IsMissingNodeError reports whether err is (or wraps) a MissingNodeError.
func IsMissingNodeError(err error) bool {
	var m *MissingNodeError
	return errors.As(err, &m)
}
