package trie

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/merklepatricia/mpt-trie/kvstore"
)

// newProofStore seeds a fresh in-memory store with proof's entries,
// each keyed under its own hash, the standard construction for
// replaying a Merkle proof as an ephemeral trie (spec §4.6).
func newProofStore(proof [][]byte, hashFn HashFn) kvstore.Store {
	store := kvstore.NewMemory()
	for _, entry := range proof {
		h := hashFn(entry)
		store.Put(h.Bytes(), entry)
	}
	return store
}

// CreateProof returns the ordered (root-first) serialized node bodies
// along the path to key, sufficient for a verifier holding only the
// root hash to authenticate key's value or its absence (spec §4.6).
func (t *Trie) CreateProof(key []byte) ([][]byte, error) {
	_, stack, err := t.FindPath(key)
	if err != nil {
		return nil, err
	}
	proof := make([][]byte, len(stack))
	for i, n := range stack {
		proof[i] = serialize(n)
	}
	return proof, nil
}

// VerifyProof checks that proof authenticates key's value under
// rootHash: it rebuilds an ephemeral trie over a fresh in-memory store
// seeded only with proof's entries, then performs a Get. A node the
// walk needs but that proof didn't include surfaces as ErrInvalidProof
// rather than MissingNodeError, since from the verifier's perspective
// an incomplete proof and a dishonest one are indistinguishable.
func VerifyProof(rootHash common.Hash, key []byte, proof [][]byte, opts ...Option) ([]byte, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	store := newProofStore(proof, cfg.HashFn)
	tr, err := New(store, WithRoot(rootHash), WithHashFn(cfg.HashFn), withHashKeysIf(cfg.HashKeys))
	if err != nil {
		if IsMissingNodeError(err) {
			return nil, ErrInvalidProof
		}
		return nil, err
	}
	val, err := tr.Get(key)
	if err != nil {
		if IsMissingNodeError(err) {
			return nil, ErrInvalidProof
		}
		return nil, err
	}
	return val, nil
}

func withHashKeysIf(on bool) Option {
	return func(c *Config) {
		if on {
			c.HashKeys = true
		}
	}
}
