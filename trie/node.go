package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Node is the tagged union from spec §3: every trie node is exactly one
// of LeafNode, ExtensionNode or BranchNode. Deliberately a closed set of
// concrete types rather than a class hierarchy — see spec §9's design
// note on sum types catching structural-invariant bugs at compile time.
type Node interface {
	// cache returns the node's memoized hash and whether it is dirty
	// (changed since it was last hashed/stored). A zero hash means the
	// node has never been hashed.
	cache() (common.Hash, bool)
	fstring(indent string) string
}

// nodeFlag carries caching metadata alongside a node, set by the hasher
// once a node's hash has been computed.
type nodeFlag struct {
	hash  common.Hash
	dirty bool
}

// LeafNode terminates a path. Key is the nibble path-suffix from this
// node's position to the logical key; Value is the stored value.
type LeafNode struct {
	Key   Nibbles
	Value []byte
	flags nodeFlag
}

// ExtensionNode compresses a shared path. Key is nonempty; Child is the
// node entered after consuming Key.
type ExtensionNode struct {
	Key   Nibbles
	Child NodeRef
	flags nodeFlag
}

// BranchNode is the 16-way radix fan-out. Value is non-nil only when
// the logical key ends exactly at this node.
type BranchNode struct {
	Children [16]NodeRef
	Value    []byte
	flags    nodeFlag
}

func (n *LeafNode) cache() (common.Hash, bool)      { return n.flags.hash, n.flags.dirty }
func (n *ExtensionNode) cache() (common.Hash, bool) { return n.flags.hash, n.flags.dirty }
func (n *BranchNode) cache() (common.Hash, bool)    { return n.flags.hash, n.flags.dirty }

func (n *LeafNode) copy() *LeafNode           { c := *n; return &c }
func (n *ExtensionNode) copy() *ExtensionNode { c := *n; return &c }
func (n *BranchNode) copy() *BranchNode       { c := *n; return &c }

// NodeCount reports how many of a branch's 16 children are non-empty.
func (n *BranchNode) NodeCount() int {
	count := 0
	for _, c := range n.Children {
		if c != nil {
			count++
		}
	}
	return count
}

// NodeRef is either a Hash (the child's body lives in the store under
// that hash) or an Inline (the child's serialization was shorter than
// hashLen and is embedded directly). Deliberately two variants instead
// of one type with a runtime "is raw" flag — see spec §9.
type NodeRef interface {
	isNodeRef()
}

// HashRef is a NodeRef pointing at a node stored under its hash.
type HashRef common.Hash

func (HashRef) isNodeRef() {}

// InlineRef is a NodeRef embedding the child node's RLP form directly
// because it serialized shorter than hashLen.
type InlineRef struct{ Node Node }

func (InlineRef) isNodeRef() {}

// refOf builds the NodeRef a freshly hashed child should be referenced
// by: Inline if it was too small to be stored, Hash otherwise.
func refOf(n Node, hash common.Hash, stored bool) NodeRef {
	if !stored {
		return InlineRef{Node: n}
	}
	return HashRef(hash)
}

// markClean stamps n's cache with hash and clears its dirty bit. Used
// both when a node is freshly hashed and when one is decoded straight
// from the store (already clean by construction). The hasher does not
// read these flags: a commit skips re-hashing only subtrees referenced
// by a HashRef.
func markClean(n Node, hash common.Hash) {
	switch n := n.(type) {
	case *LeafNode:
		n.flags = nodeFlag{hash: hash, dirty: false}
	case *ExtensionNode:
		n.flags = nodeFlag{hash: hash, dirty: false}
	case *BranchNode:
		n.flags = nodeFlag{hash: hash, dirty: false}
	default:
		panic(fmt.Sprintf("trie: markClean: unknown node type %T", n))
	}
}

// dirtyFlag returns the flags for a freshly constructed, never-hashed
// node.
func dirtyFlag() nodeFlag { return nodeFlag{dirty: true} }

// Pretty-printing, mirroring the teacher's fstring debugging helpers.

func (n *LeafNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %x} ", []byte(n.Key), n.Value)
}

func (n *ExtensionNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", []byte(n.Key), refString(n.Child, ind+"  "))
}

func (n *BranchNode) fstring(ind string) string {
	resp := fmt.Sprintf("[\n%s  ", ind)
	for i, c := range n.Children {
		if c == nil {
			resp += fmt.Sprintf("%x: <nil> ", i)
		} else {
			resp += fmt.Sprintf("%x: %v", i, refString(c, ind+"  "))
		}
	}
	return resp + fmt.Sprintf("\n%s] (value=%x)", ind, n.Value)
}

func refString(ref NodeRef, ind string) string {
	switch r := ref.(type) {
	case HashRef:
		return fmt.Sprintf("<%x>", common.Hash(r))
	case InlineRef:
		return r.Node.fstring(ind)
	default:
		return "<nil>"
	}
}

// isRawRef reports true iff the RLP item at the head of buf is a list
// (an inline node) rather than a byte string (a hash), per spec §4.2's
// is_raw_ref.
func isRawRef(buf []byte) (bool, error) {
	kind, _, _, err := rlp.Split(buf)
	if err != nil {
		return false, err
	}
	return kind == rlp.List, nil
}
