package trie

import "github.com/merklepatricia/mpt-trie/kvstore"

// hasher performs the bottom-up hash/store pass from spec §4.5's commit
// step ("save_stack"): recursively hash each child, decide per spec §3
// whether a node is stored under its hash or embedded inline, and
// collect the resulting store writes. Grounded on the teacher's
// trie_committer.go, generalized from the teacher's shortNode/fullNode
// pair onto the three-type node model in node.go.
type hasher struct {
	hashFn HashFn
	ops    []kvstore.Op
}

func newHasher(hashFn HashFn) *hasher {
	return &hasher{hashFn: hashFn}
}

// hash returns the NodeRef a parent should use to point at ref, after
// hashing and (if large enough) storing every node reachable from it.
// force bypasses the inline-if-small rule and always stores the node
// under its hash — used for the trie's root, which must always be
// addressable by hash regardless of its serialized size.
func (h *hasher) hash(ref NodeRef, force bool) (NodeRef, error) {
	if ref == nil {
		return nil, nil
	}
	switch r := ref.(type) {
	case HashRef:
		// Already hashed and stored by an earlier commit; nothing below
		// it changed, so there is nothing left to do.
		return r, nil
	case InlineRef:
		collapsed, err := h.hashChildren(r.Node)
		if err != nil {
			return nil, err
		}
		return h.store(collapsed, force)
	default:
		panic(errStackUnderflow)
	}
}

// hashChildren returns a copy of n with every child ref replaced by its
// hashed form. Leaves have no children and are returned as-is.
func (h *hasher) hashChildren(n Node) (Node, error) {
	switch n := n.(type) {
	case *LeafNode:
		return n, nil
	case *ExtensionNode:
		childRef, err := h.hash(n.Child, false)
		if err != nil {
			return nil, err
		}
		nn := n.copy()
		nn.Child = childRef
		return nn, nil
	case *BranchNode:
		nn := n.copy()
		for i, c := range n.Children {
			if c == nil {
				continue
			}
			newRef, err := h.hash(c, false)
			if err != nil {
				return nil, err
			}
			nn.Children[i] = newRef
		}
		return nn, nil
	default:
		panic(errStackUnderflow)
	}
}

// store serializes n and either embeds it (InlineRef) or hashes and
// queues it for persistence (HashRef), per the node-size rule in spec
// §3: a node whose RLP form is shorter than hashLen is embedded in its
// parent rather than stored under its own key.
func (h *hasher) store(n Node, force bool) (NodeRef, error) {
	enc := serialize(n)
	if len(enc) < hashLen && !force {
		return InlineRef{Node: n}, nil
	}
	hash := h.hashFn(enc)
	markClean(n, hash)
	h.ops = append(h.ops, kvstore.Op{Kind: kvstore.OpPut, Key: hash.Bytes(), Value: enc})
	return HashRef(hash), nil
}
