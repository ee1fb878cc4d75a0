package trie

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// HashFn is a keyed byte-string hash function, the collaborator named
// in spec §1. The default is Keccak-256; tests swap in cheaper hashes.
type HashFn func([]byte) common.Hash

// keccak256 adapts crypto.Keccak256Hash (go-ethereum's crypto package)
// to HashFn.
func keccak256(data []byte) common.Hash {
	return crypto.Keccak256Hash(data)
}

// hashLen is the output size of the configured hash function. The spec
// fixes it at 32 bytes (Keccak-256); a HashFn producing a different
// width is not supported, matching every hash used across the pack.
const hashLen = common.HashLength

// rootDBKey is the reserved store key under which the current root is
// persisted when Config.PersistRoot is enabled. Callers must never Put
// or Delete it directly (see ErrReservedKey).
var rootDBKey = []byte("mpt-trie:root")

// RootFromBytes parses a root hash read back from rootDBKey (or any
// other raw source) into a common.Hash, validating its length. This is
// the read-side companion to WithPersistRoot: the only point where a
// root enters the system as an unconstrained []byte instead of an
// already fixed-width common.Hash.
func RootFromBytes(b []byte) (common.Hash, error) {
	if len(b) != hashLen {
		return common.Hash{}, ErrInvalidRoot
	}
	return common.BytesToHash(b), nil
}

// Config collects the construction-time options from spec §6.
type Config struct {
	// Root is the initial root hash. The zero value means "use
	// EmptyRoot" (an empty trie).
	Root common.Hash

	// HashFn is the hash function new nodes are content-addressed
	// under. Defaults to Keccak-256.
	HashFn HashFn

	// HashKeys enables "secure trie" mode: every external key is
	// replaced by HashFn(key) before routing.
	HashKeys bool

	// DeleteOnWrite causes orphaned node bodies to be deleted from the
	// store during the commit that supersedes them.
	DeleteOnWrite bool

	// PersistRoot causes the current root to also be written under the
	// reserved key rootDBKey after every mutation.
	PersistRoot bool
}

// Option mutates a Config; New applies them in order over the defaults.
type Option func(*Config)

// WithRoot sets the initial root hash.
func WithRoot(root common.Hash) Option {
	return func(c *Config) { c.Root = root }
}

// WithHashFn overrides the default Keccak-256 hash function.
func WithHashFn(fn HashFn) Option {
	return func(c *Config) { c.HashFn = fn }
}

// WithHashKeys turns on secure-trie (hashed-keys) mode.
func WithHashKeys() Option {
	return func(c *Config) { c.HashKeys = true }
}

// WithDeleteOnWrite turns on orphan deletion during commit.
func WithDeleteOnWrite() Option {
	return func(c *Config) { c.DeleteOnWrite = true }
}

// WithPersistRoot turns on root persistence under the reserved key.
func WithPersistRoot() Option {
	return func(c *Config) { c.PersistRoot = true }
}

func defaultConfig() Config {
	return Config{HashFn: keccak256}
}
