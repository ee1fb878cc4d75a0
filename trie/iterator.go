package trie

import "bytes"

// Iterator enumerates a trie's (key, value) pairs in ascending key
// order via a depth-first, nibble-ascending walk (spec component C7).
// It is lazy — each Next call resolves only the nodes needed to produce
// the next pair — and not restartable: create a new Iterator to walk
// again.
type Iterator struct {
	t     *Trie
	stack []iterFrame
	from  Nibbles
	key   []byte
	value []byte
	err   error
	done  bool
}

type iterFrame struct {
	node Node
	path Nibbles
	// idx is only meaningful for *BranchNode: -1 means "this branch's
	// own value has not been emitted yet", 0..15 is the next child to
	// try, 16 means exhausted.
	idx int
}

// NewIterator returns an Iterator over every entry in t.
func NewIterator(t *Trie) *Iterator {
	return newIteratorFrom(t, nil)
}

// NewIteratorFrom returns an Iterator over every entry in t whose key is
// >= startKey. When t.config.HashKeys is set, the comparison happens in
// routing-key (hashed) space, not in the caller's original key space.
func NewIteratorFrom(t *Trie, startKey []byte) *Iterator {
	return newIteratorFrom(t, t.routingKey(startKey))
}

func newIteratorFrom(t *Trie, from Nibbles) *Iterator {
	it := &Iterator{t: t, from: from}
	if t.root != nil {
		n, err := t.resolve(t.root, nil)
		if err != nil {
			it.err = err
			it.done = true
			return it
		}
		it.stack = append(it.stack, iterFrame{node: n, path: nil, idx: -1})
	}
	return it
}

// Next advances the iterator and reports whether a pair is available.
func (it *Iterator) Next() bool {
	if it.err != nil || it.done {
		return false
	}
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		switch n := top.node.(type) {
		case *LeafNode:
			it.stack = it.stack[:len(it.stack)-1]
			full := concatNibbles(top.path, n.Key...)
			if it.skip(full) {
				continue
			}
			it.key, it.value = nibblesToBytes(full), n.Value
			return true

		case *ExtensionNode:
			it.stack = it.stack[:len(it.stack)-1]
			child, err := it.t.resolve(n.Child, nil)
			if err != nil {
				it.err = err
				return false
			}
			it.stack = append(it.stack, iterFrame{node: child, path: concatNibbles(top.path, n.Key...), idx: -1})

		case *BranchNode:
			if top.idx == -1 {
				top.idx = 0
				if n.Value != nil && !it.skip(top.path) {
					it.key, it.value = nibblesToBytes(top.path), n.Value
					return true
				}
			}
			descended := false
			for top.idx < 16 {
				i := top.idx
				top.idx++
				child := n.Children[i]
				if child == nil {
					continue
				}
				childNode, err := it.t.resolve(child, nil)
				if err != nil {
					it.err = err
					return false
				}
				it.stack = append(it.stack, iterFrame{node: childNode, path: concatNibbles(top.path, byte(i)), idx: -1})
				descended = true
				break
			}
			if !descended {
				it.stack = it.stack[:len(it.stack)-1]
			}

		default:
			it.stack = it.stack[:len(it.stack)-1]
		}
	}
	it.done = true
	return false
}

// skip reports whether full lies strictly before it.from and should be
// skipped (used for the NewIteratorFrom lower bound).
func (it *Iterator) skip(full Nibbles) bool {
	return it.from != nil && compareNibbles(full, it.from) < 0
}

// Key returns the current pair's full key.
func (it *Iterator) Key() []byte { return it.key }

// Value returns the current pair's value.
func (it *Iterator) Value() []byte { return it.value }

// Err returns the first error encountered, typically a MissingNodeError
// when a node needed to continue the walk is absent from the store.
func (it *Iterator) Err() error { return it.err }

// compareNibbles lexicographically orders two nibble sequences, a
// shorter sequence sorting before a longer one that extends it.
func compareNibbles(a, b Nibbles) int {
	return bytes.Compare([]byte(a), []byte(b))
}
