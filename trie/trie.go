// Package trie implements the Modified Merkle-Patricia Trie: a
// persistent, cryptographically authenticated key-value map whose root
// is the content hash of its entire structure. See SPEC_FULL.md for the
// full component breakdown (C1-C7) this package is organized around.
package trie

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/semaphore"

	"github.com/merklepatricia/mpt-trie/kvstore"
)

// EmptyRoot is the root hash of a trie with no entries: the hash of the
// RLP encoding of the empty byte string.
var EmptyRoot = keccak256(emptyRLPString)

var emptyRLPString = []byte{0x80}

// Trie is the engine described by spec component C5: it owns the
// current root, routes operations through the nibble alphabet (C1),
// resolves nodes through the store (C3/C4), and re-hashes and persists
// the affected path on every mutation (C2/C5).
//
// A Trie is safe for concurrent use: reads never block, and mutations
// are serialized through a single-permit semaphore
// (golang.org/x/sync/semaphore) rather than a sync.Mutex: "only one
// writer at a time, reads pass through".
type Trie struct {
	root    NodeRef
	store   kvstore.Store
	config  Config
	orphans []common.Hash
	gate    *semaphore.Weighted
}

// New opens a trie over store. With no options the trie starts empty;
// WithRoot resumes an existing trie whose nodes already live in store.
func New(store kvstore.Store, opts ...Option) (*Trie, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	t := &Trie{store: store, config: cfg, gate: semaphore.NewWeighted(1)}
	if cfg.Root != (common.Hash{}) && cfg.Root != EmptyRoot {
		if _, err := t.resolveHash(HashRef(cfg.Root), nil); err != nil {
			return nil, err
		}
		t.root = HashRef(cfg.Root)
	}
	log.Debug("trie opened", "root", t.Hash(), "hashKeys", cfg.HashKeys, "persistRoot", cfg.PersistRoot)
	return t, nil
}

// Hash returns the current root hash without touching the store.
func (t *Trie) Hash() common.Hash {
	return t.currentHash(t.root)
}

// Copy returns a trie with its own root and write gate whose backing
// store is obtained via Store.Copy, per spec §4.3. Whether the two tries
// share node data depends on that store: kvstore.Memory snapshots, so
// a copy over it evolves independently.
func (t *Trie) Copy() *Trie {
	return &Trie{
		root:   t.root,
		store:  t.store.Copy(),
		config: t.config,
		gate:   semaphore.NewWeighted(1),
	}
}

// Get looks up key and returns its value, or (nil, nil) if absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.get(t.root, t.routingKey(key))
}

// Put inserts or overwrites key with value. A put of an empty value is
// equivalent to deleting key (spec §4.5).
func (t *Trie) Put(key, value []byte) error {
	if len(value) == 0 {
		return t.Del(key)
	}
	if t.config.PersistRoot && bytes.Equal(key, rootDBKey) {
		return ErrReservedKey
	}
	if err := t.acquire(); err != nil {
		return err
	}
	defer t.release()

	k := t.routingKey(key)
	v := common.CopyBytes(value)
	_, newRoot, err := t.insert(t.root, k, v)
	if err != nil {
		return err
	}
	t.root = newRoot
	return t.commit()
}

// Del removes key. Deleting an absent key is a no-op.
func (t *Trie) Del(key []byte) error {
	if t.config.PersistRoot && bytes.Equal(key, rootDBKey) {
		return ErrReservedKey
	}
	if err := t.acquire(); err != nil {
		return err
	}
	defer t.release()

	k := t.routingKey(key)
	dirty, newRoot, err := t.delete(t.root, k)
	if err != nil || !dirty {
		return err
	}
	t.root = newRoot
	return t.commit()
}

func (t *Trie) acquire() error {
	return t.gate.Acquire(context.Background(), 1)
}

func (t *Trie) release() {
	t.gate.Release(1)
}

// routingKey converts an external key into the nibble path it is routed
// by: the key's own bytes, or HashFn(key)'s bytes under secure-trie mode.
func (t *Trie) routingKey(key []byte) Nibbles {
	if t.config.HashKeys {
		h := t.config.HashFn(key)
		return bytesToNibbles(h.Bytes())
	}
	return bytesToNibbles(key)
}

// resolve dereferences ref into its Node, loading from the store when
// ref is a HashRef.
func (t *Trie) resolve(ref NodeRef, path Nibbles) (Node, error) {
	switch r := ref.(type) {
	case nil:
		return nil, nil
	case InlineRef:
		return r.Node, nil
	case HashRef:
		return t.resolveHash(r, path)
	default:
		return nil, fmt.Errorf("trie: resolve: unknown ref type %T", ref)
	}
}

func (t *Trie) resolveHash(r HashRef, path Nibbles) (Node, error) {
	hash := common.Hash(r)
	blob, err := t.store.Get(hash.Bytes())
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, &MissingNodeError{NodeHash: hash, Path: append([]byte(nil), path...)}
	}
	n, err := decodeNode(blob)
	if err != nil {
		return nil, fmt.Errorf("trie: decode node at %x: %w", hash, err)
	}
	markClean(n, hash)
	return n, nil
}

// currentHash returns the hash ref addresses, without requiring ref to
// actually be a HashRef (it may legitimately be an embedded Inline node
// that was never separately stored).
func (t *Trie) currentHash(ref NodeRef) common.Hash {
	switch r := ref.(type) {
	case nil:
		return EmptyRoot
	case HashRef:
		return common.Hash(r)
	case InlineRef:
		return t.config.HashFn(serialize(r.Node))
	default:
		panic(fmt.Sprintf("trie: currentHash: unknown ref type %T", ref))
	}
}

// orphan records ref's hash for deletion once the commit that
// supersedes it lands, when DeleteOnWrite is enabled.
func (t *Trie) orphan(ref NodeRef) {
	if !t.config.DeleteOnWrite {
		return
	}
	if hr, ok := ref.(HashRef); ok {
		t.orphans = append(t.orphans, common.Hash(hr))
	}
}

// commit re-hashes the path affected by the last mutation, writes the
// resulting node bodies (and any orphan deletions / persisted root) to
// the store in a single batch, and advances t.root.
func (t *Trie) commit() error {
	h := newHasher(t.config.HashFn)
	newRoot, err := h.hash(t.root, true)
	if err != nil {
		t.orphans = nil
		return err
	}

	ops := h.ops
	for _, orphanHash := range t.orphans {
		ops = append(ops, kvstore.Op{Kind: kvstore.OpDel, Key: orphanHash.Bytes()})
	}
	if t.config.PersistRoot {
		rootHash := t.currentHash(newRoot)
		ops = append(ops, kvstore.Op{Kind: kvstore.OpPut, Key: rootDBKey, Value: rootHash.Bytes()})
	}
	if len(ops) > 0 {
		if err := t.store.Batch(ops); err != nil {
			t.orphans = nil
			if errors.Is(err, kvstore.ErrInvalidOp) {
				return ErrInvalidBatchOp
			}
			return err
		}
	}
	t.root = newRoot
	t.orphans = nil
	return nil
}

// get walks ref looking for key, returning its value or (nil, nil).
func (t *Trie) get(ref NodeRef, key Nibbles) ([]byte, error) {
	if ref == nil {
		return nil, nil
	}
	n, err := t.resolve(ref, nil)
	if err != nil {
		return nil, err
	}
	switch n := n.(type) {
	case *LeafNode:
		if bytes.Equal([]byte(n.Key), []byte(key)) {
			return n.Value, nil
		}
		return nil, nil
	case *ExtensionNode:
		if len(key) < len(n.Key) || !bytes.Equal([]byte(n.Key), []byte(key[:len(n.Key)])) {
			return nil, nil
		}
		return t.get(n.Child, key[len(n.Key):])
	case *BranchNode:
		if len(key) == 0 {
			return n.Value, nil
		}
		return t.get(n.Children[key[0]], key[1:])
	default:
		panic(fmt.Sprintf("trie: get: unknown node type %T", n))
	}
}

// insert is the C5 put algorithm (spec §4.5): it returns whether the
// subtree changed, and if so, the NodeRef the caller should store in
// its place.
func (t *Trie) insert(ref NodeRef, key Nibbles, value []byte) (bool, NodeRef, error) {
	if ref == nil {
		return true, InlineRef{Node: &LeafNode{Key: append(Nibbles(nil), key...), Value: value, flags: dirtyFlag()}}, nil
	}
	n, err := t.resolve(ref, nil)
	if err != nil {
		return false, ref, err
	}
	switch n := n.(type) {
	case *LeafNode:
		if bytes.Equal([]byte(n.Key), []byte(key)) {
			if bytes.Equal(n.Value, value) {
				return false, ref, nil
			}
			t.orphan(ref)
			return true, InlineRef{Node: &LeafNode{Key: n.Key, Value: value, flags: dirtyFlag()}}, nil
		}
		m := commonPrefixLen(n.Key, key)
		branch := &BranchNode{flags: dirtyFlag()}
		if rem := n.Key[m:]; len(rem) == 0 {
			branch.Value = n.Value
		} else {
			branch.Children[rem[0]] = InlineRef{Node: &LeafNode{Key: append(Nibbles(nil), rem[1:]...), Value: n.Value, flags: dirtyFlag()}}
		}
		if rem := key[m:]; len(rem) == 0 {
			branch.Value = value
		} else {
			branch.Children[rem[0]] = InlineRef{Node: &LeafNode{Key: append(Nibbles(nil), rem[1:]...), Value: value, flags: dirtyFlag()}}
		}
		t.orphan(ref)
		return true, wrapExtension(key[:m], InlineRef{Node: branch}), nil

	case *ExtensionNode:
		m := commonPrefixLen(n.Key, key)
		if m == len(n.Key) {
			dirty, newChild, err := t.insert(n.Child, key[m:], value)
			if err != nil || !dirty {
				return false, ref, err
			}
			t.orphan(ref)
			return true, InlineRef{Node: &ExtensionNode{Key: n.Key, Child: newChild, flags: dirtyFlag()}}, nil
		}
		branch := &BranchNode{flags: dirtyFlag()}
		existingRem := n.Key[m:]
		if tail := existingRem[1:]; len(tail) == 0 {
			branch.Children[existingRem[0]] = n.Child
		} else {
			branch.Children[existingRem[0]] = InlineRef{Node: &ExtensionNode{Key: append(Nibbles(nil), tail...), Child: n.Child, flags: dirtyFlag()}}
		}
		if rem := key[m:]; len(rem) == 0 {
			branch.Value = value
		} else {
			branch.Children[rem[0]] = InlineRef{Node: &LeafNode{Key: append(Nibbles(nil), rem[1:]...), Value: value, flags: dirtyFlag()}}
		}
		t.orphan(ref)
		return true, wrapExtension(key[:m], InlineRef{Node: branch}), nil

	case *BranchNode:
		if len(key) == 0 {
			if bytes.Equal(n.Value, value) {
				return false, ref, nil
			}
			nb := n.copy()
			nb.Value = value
			nb.flags = dirtyFlag()
			t.orphan(ref)
			return true, InlineRef{Node: nb}, nil
		}
		dirty, newChild, err := t.insert(n.Children[key[0]], key[1:], value)
		if err != nil || !dirty {
			return false, ref, err
		}
		nb := n.copy()
		nb.Children[key[0]] = newChild
		nb.flags = dirtyFlag()
		t.orphan(ref)
		return true, InlineRef{Node: nb}, nil

	default:
		return false, ref, fmt.Errorf("trie: insert: unknown node type %T", n)
	}
}

// wrapExtension wraps child in an ExtensionNode over prefix, unless
// prefix is empty, in which case child is returned unwrapped.
func wrapExtension(prefix Nibbles, child NodeRef) NodeRef {
	if len(prefix) == 0 {
		return child
	}
	return InlineRef{Node: &ExtensionNode{Key: append(Nibbles(nil), prefix...), Child: child, flags: dirtyFlag()}}
}

// delete is the C5 del algorithm (spec §4.5): it reports whether
// anything changed, and the collapsed/merged replacement ref.
func (t *Trie) delete(ref NodeRef, key Nibbles) (bool, NodeRef, error) {
	if ref == nil {
		return false, ref, nil
	}
	n, err := t.resolve(ref, nil)
	if err != nil {
		return false, ref, err
	}
	switch n := n.(type) {
	case *LeafNode:
		if !bytes.Equal([]byte(n.Key), []byte(key)) {
			return false, ref, nil
		}
		t.orphan(ref)
		return true, nil, nil

	case *ExtensionNode:
		m := commonPrefixLen(n.Key, key)
		if m < len(n.Key) {
			return false, ref, nil
		}
		dirty, newChild, err := t.delete(n.Child, key[m:])
		if err != nil || !dirty {
			return false, ref, err
		}
		t.orphan(ref)
		if newChild == nil {
			return true, nil, nil
		}
		childNode, err := t.resolve(newChild, nil)
		if err != nil {
			return false, ref, err
		}
		switch c := childNode.(type) {
		case *LeafNode:
			return true, InlineRef{Node: &LeafNode{Key: concatNibbles(n.Key, c.Key...), Value: c.Value, flags: dirtyFlag()}}, nil
		case *ExtensionNode:
			return true, InlineRef{Node: &ExtensionNode{Key: concatNibbles(n.Key, c.Key...), Child: c.Child, flags: dirtyFlag()}}, nil
		default:
			return true, InlineRef{Node: &ExtensionNode{Key: n.Key, Child: newChild, flags: dirtyFlag()}}, nil
		}

	case *BranchNode:
		if len(key) == 0 {
			if n.Value == nil {
				return false, ref, nil
			}
			nb := n.copy()
			nb.Value = nil
			nb.flags = dirtyFlag()
			t.orphan(ref)
			newRef, err := t.collapseBranch(nb)
			return true, newRef, err
		}
		dirty, newChild, err := t.delete(n.Children[key[0]], key[1:])
		if err != nil || !dirty {
			return false, ref, err
		}
		nb := n.copy()
		nb.Children[key[0]] = newChild
		nb.flags = dirtyFlag()
		t.orphan(ref)
		newRef, err := t.collapseBranch(nb)
		return true, newRef, err

	default:
		return false, ref, fmt.Errorf("trie: delete: unknown node type %T", n)
	}
}

// collapseBranch enforces invariant 5 (a Branch always has at least two
// occupied slots, counting Value as one): once nb drops to a single
// remaining entry it is replaced by a Leaf or Extension, merging the
// branch's one-nibble pivot into whatever is left.
func (t *Trie) collapseBranch(nb *BranchNode) (NodeRef, error) {
	occupied := nb.NodeCount()
	if nb.Value != nil {
		occupied++
	}
	if occupied >= 2 {
		return InlineRef{Node: nb}, nil
	}
	if occupied == 0 {
		panic(errStackUnderflow)
	}
	if nb.Value != nil {
		return InlineRef{Node: &LeafNode{Key: Nibbles{}, Value: nb.Value, flags: dirtyFlag()}}, nil
	}
	idx := -1
	for i, c := range nb.Children {
		if c != nil {
			idx = i
			break
		}
	}
	child, err := t.resolve(nb.Children[idx], nil)
	if err != nil {
		return nil, err
	}
	pivot := Nibbles{byte(idx)}
	switch c := child.(type) {
	case *LeafNode:
		t.orphan(nb.Children[idx])
		return InlineRef{Node: &LeafNode{Key: concatNibbles(pivot, c.Key...), Value: c.Value, flags: dirtyFlag()}}, nil
	case *ExtensionNode:
		t.orphan(nb.Children[idx])
		return InlineRef{Node: &ExtensionNode{Key: concatNibbles(pivot, c.Key...), Child: c.Child, flags: dirtyFlag()}}, nil
	default:
		return InlineRef{Node: &ExtensionNode{Key: pivot, Child: nb.Children[idx], flags: dirtyFlag()}}, nil
	}
}

// FindPath walks from the root toward key, returning the stack of
// nodes visited (root first) and the terminal node where key ends: a
// Leaf whose key matches, or the Branch reached once key's nibbles are
// used up (whose Value is nil when key itself is absent). It returns a
// nil terminal when the path diverges. It is the shared primitive behind proof
// creation (C6) — the stack it returns is exactly the set of node
// bodies a point proof must include.
func (t *Trie) FindPath(key []byte) (terminal Node, stack []Node, err error) {
	k := t.routingKey(key)
	ref := t.root
	for {
		if ref == nil {
			return nil, stack, nil
		}
		n, rerr := t.resolve(ref, nil)
		if rerr != nil {
			return nil, stack, rerr
		}
		switch node := n.(type) {
		case *LeafNode:
			stack = append(stack, node)
			if bytes.Equal([]byte(node.Key), []byte(k)) {
				return node, stack, nil
			}
			return nil, stack, nil
		case *ExtensionNode:
			stack = append(stack, node)
			if len(k) < len(node.Key) || !bytes.Equal([]byte(node.Key), []byte(k[:len(node.Key)])) {
				return nil, stack, nil
			}
			k = k[len(node.Key):]
			ref = node.Child
		case *BranchNode:
			stack = append(stack, node)
			if len(k) == 0 {
				return node, stack, nil
			}
			next := node.Children[k[0]]
			if next == nil {
				return nil, stack, nil
			}
			ref = next
			k = k[1:]
		default:
			return nil, stack, fmt.Errorf("trie: FindPath: unknown node type %T", node)
		}
	}
}
