package trie

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// serialize returns the canonical byte serialization of n (spec §3):
//
//	Leaf      -> [HP(key, true), value]
//	Extension -> [HP(key, false), childRef]
//	Branch    -> [child0, ..., child15, value-or-empty]
//
// childRef is the child's hash as a byte string if its own
// serialization is >= hashLen, else its raw RLP form spliced in place —
// exactly the Inline/Hash NodeRef split from node.go.
func serialize(n Node) []byte {
	switch n := n.(type) {
	case *LeafNode:
		enc, err := rlp.EncodeToBytes([]interface{}{hpEncode(n.Key, true), n.Value})
		if err != nil {
			panic(fmt.Sprintf("trie: encode leaf: %v", err))
		}
		return enc
	case *ExtensionNode:
		enc, err := rlp.EncodeToBytes([]interface{}{hpEncode(n.Key, false), refToRLP(n.Child)})
		if err != nil {
			panic(fmt.Sprintf("trie: encode extension: %v", err))
		}
		return enc
	case *BranchNode:
		items := make([]interface{}, 17)
		for i, c := range n.Children {
			items[i] = refToRLP(c)
		}
		if n.Value != nil {
			items[16] = n.Value
		} else {
			items[16] = []byte{}
		}
		enc, err := rlp.EncodeToBytes(items)
		if err != nil {
			panic(fmt.Sprintf("trie: encode branch: %v", err))
		}
		return enc
	default:
		panic(fmt.Sprintf("trie: serialize: unknown node type %T", n))
	}
}

// refToRLP renders a NodeRef as the RLP item the codec puts in its
// parent's item list.
func refToRLP(ref NodeRef) interface{} {
	switch r := ref.(type) {
	case nil:
		return []byte{}
	case HashRef:
		h := common.Hash(r)
		return h.Bytes()
	case InlineRef:
		return rlp.RawValue(serialize(r.Node))
	default:
		panic(fmt.Sprintf("trie: refToRLP: unknown ref type %T", ref))
	}
}

// decodeNode parses the canonical RLP encoding of a single node body.
func decodeNode(buf []byte) (Node, error) {
	if len(buf) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	elems, _, err := rlp.SplitList(buf)
	if err != nil {
		return nil, fmt.Errorf("trie: decode: %w", err)
	}
	count, _ := rlp.CountValues(elems)
	switch count {
	case 2:
		return decodeShort(elems)
	case 17:
		return decodeBranch(elems)
	default:
		return nil, fmt.Errorf("trie: decode: invalid number of list elements: %d", count)
	}
}

// mustDecodeNode panics on a malformed node body — used where the
// caller already trusts the bytes (freshly serialized by this package).
func mustDecodeNode(buf []byte) Node {
	n, err := decodeNode(buf)
	if err != nil {
		panic(fmt.Sprintf("trie: invalid node encoding: %v", err))
	}
	return n
}

func decodeShort(elems []byte) (Node, error) {
	kbuf, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, err
	}
	key, term := hpDecode(kbuf)
	if term {
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, fmt.Errorf("trie: invalid leaf value: %w", err)
		}
		return &LeafNode{Key: key, Value: common.CopyBytes(val)}, nil
	}
	ref, _, err := decodeRef(rest)
	if err != nil {
		return nil, fmt.Errorf("trie: invalid extension child: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("trie: extension node with empty key")
	}
	return &ExtensionNode{Key: key, Child: ref}, nil
}

func decodeBranch(elems []byte) (*BranchNode, error) {
	n := &BranchNode{}
	for i := 0; i < 16; i++ {
		ref, rest, err := decodeRef(elems)
		if err != nil {
			return nil, fmt.Errorf("trie: invalid branch child [%d]: %w", i, err)
		}
		n.Children[i], elems = ref, rest
	}
	val, _, err := rlp.SplitString(elems)
	if err != nil {
		return nil, fmt.Errorf("trie: invalid branch value: %w", err)
	}
	if len(val) > 0 {
		n.Value = common.CopyBytes(val)
	}
	return n, nil
}

// decodeRef decodes one child-reference item from the head of buf,
// returning the ref (nil for an empty/absent child) and the remaining
// bytes.
func decodeRef(buf []byte) (NodeRef, []byte, error) {
	kind, val, rest, err := rlp.Split(buf)
	if err != nil {
		return nil, buf, err
	}
	switch {
	case kind == rlp.List:
		size := len(buf) - len(rest)
		if size >= hashLen {
			return nil, buf, fmt.Errorf("oversized embedded node (size %d, want < %d)", size, hashLen)
		}
		n, err := decodeNode(buf[:size])
		if err != nil {
			return nil, buf, err
		}
		return InlineRef{Node: n}, rest, nil
	case kind == rlp.String && len(val) == 0:
		return nil, rest, nil
	case kind == rlp.String && len(val) == hashLen:
		return HashRef(common.BytesToHash(val)), rest, nil
	default:
		return nil, nil, fmt.Errorf("invalid RLP string size %d (want 0 or %d)", len(val), hashLen)
	}
}
