package trie

import "github.com/ethereum/go-ethereum/common"

// Reachable returns the hash of every node currently reachable from the
// root, built on top of the C4 walk controller (walker.go). Pair it
// with a store that can enumerate its own keys to find true orphans:
// node bodies the store still holds that no longer appear in this list
// and so can never be reached from the current root again.
func (t *Trie) Reachable() ([]common.Hash, error) {
	var hashes []common.Hash
	w := NewWalker(t, false)
	err := w.Walk(func(ref NodeRef, n Node, keySoFar Nibbles, ctl Ctl) error {
		if hr, ok := ref.(HashRef); ok {
			hashes = append(hashes, common.Hash(hr))
		}
		ctl.AllChildren(n, keySoFar)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hashes, nil
}
