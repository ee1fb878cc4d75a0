package trie

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"

	"github.com/merklepatricia/mpt-trie/kvstore"
)

// VerifyRangeProof checks that the ascending run (keys[i], values[i])
// is exactly the trie's content over [firstKey, lastKey] under
// rootHash, per spec §4.6:
//
//   - keys must be strictly ascending; len(keys) must equal len(values).
//   - With no proof, the range is assumed to cover the entire trie: a
//     fresh trie is built from keys/values alone and its hash compared
//     directly against rootHash.
//   - With a proof, an ephemeral trie is seeded from the proof's node
//     bodies, keys/values are replayed into it, and the resulting hash
//     must match rootHash. The proof must also authenticate the edges
//     of the range: no key may exist in [firstKey, keys[0]) or in
//     (keys[len(keys)-1], lastKey].
//
// An empty keys list with a nil proof is the Open Question resolved in
// DESIGN.md: it is only valid when rootHash already equals EmptyRoot,
// i.e. the trie is asserted empty, which the direct-hash-comparison
// branch below checks for free.
func VerifyRangeProof(rootHash common.Hash, firstKey, lastKey []byte, keys, values [][]byte, proof [][]byte, opts ...Option) error {
	if len(keys) != len(values) {
		return ErrInvalidProof
	}
	for i := 1; i < len(keys); i++ {
		if bytes.Compare(keys[i-1], keys[i]) >= 0 {
			return ErrInvalidProof
		}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(proof) == 0 {
		return verifyFullRange(rootHash, keys, values, cfg)
	}
	return verifyPartialRange(rootHash, firstKey, lastKey, keys, values, proof, cfg)
}

func verifyFullRange(rootHash common.Hash, keys, values [][]byte, cfg Config) error {
	store := kvstore.NewMemory()
	tr, err := New(store, WithHashFn(cfg.HashFn), withHashKeysIf(cfg.HashKeys))
	if err != nil {
		return err
	}
	for i := range keys {
		if err := tr.Put(keys[i], values[i]); err != nil {
			return err
		}
	}
	if tr.Hash() != rootHash {
		return ErrInvalidProof
	}
	return nil
}

func verifyPartialRange(rootHash common.Hash, firstKey, lastKey []byte, keys, values [][]byte, proof [][]byte, cfg Config) error {
	store := newProofStore(proof, cfg.HashFn)
	tr, err := New(store, WithRoot(rootHash), WithHashFn(cfg.HashFn), withHashKeysIf(cfg.HashKeys))
	if err != nil {
		if IsMissingNodeError(err) {
			return ErrInvalidProof
		}
		return err
	}
	for i := range keys {
		if err := tr.Put(keys[i], values[i]); err != nil {
			if IsMissingNodeError(err) {
				return ErrInvalidProof
			}
			return err
		}
	}
	if tr.Hash() != rootHash {
		return ErrInvalidProof
	}

	if len(keys) == 0 {
		// Nothing to bracket: the proof alone must already authenticate
		// rootHash, which the comparison above just confirmed.
		return nil
	}
	if firstKey != nil {
		// [firstKey, keys[0]): lower bound inclusive, upper bound exclusive.
		if err := checkRangeEmpty(tr, firstKey, keys[0], false, false); err != nil {
			return err
		}
	}
	if lastKey != nil {
		// (keys[-1], lastKey]: lower bound exclusive, upper bound inclusive.
		if err := checkRangeEmpty(tr, keys[len(keys)-1], lastKey, true, true); err != nil {
			return err
		}
	}
	return nil
}

// checkRangeEmpty confirms no key exists strictly between lo and hi
// (inclusive/exclusive per skipLo/hiInclusive), using only the
// proof-backed partial trie. A MissingNodeError while walking means the
// proof didn't cover enough of the tree to prove the gap, which is
// itself grounds to reject the proof.
func checkRangeEmpty(tr *Trie, lo, hi []byte, skipLo, hiInclusive bool) error {
	it := NewIteratorFrom(tr, lo)
	for it.Next() {
		if skipLo && bytes.Equal(it.Key(), lo) {
			continue
		}
		cmp := bytes.Compare(it.Key(), hi)
		if cmp < 0 || (hiInclusive && cmp == 0) {
			return ErrInvalidProof
		}
		break
	}
	if it.Err() != nil {
		if IsMissingNodeError(it.Err()) {
			return ErrInvalidProof
		}
		return it.Err()
	}
	return nil
}
