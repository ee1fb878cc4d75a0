package trie

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

func TestHPRoundTrip(t *testing.T) {
	cases := []struct {
		nibbles Nibbles
		term    bool
	}{
		{Nibbles{}, false},
		{Nibbles{0xa}, true},
		{Nibbles{0x1, 0x2, 0x3, 0x4}, false},
		{Nibbles{0x1, 0x2, 0x3}, true},
		{Nibbles{0x0, 0xf}, false},
	}
	for _, c := range cases {
		enc := hpEncode(c.nibbles, c.term)
		got, term := hpDecode(enc)
		require.Equal(t, c.term, term)
		if len(c.nibbles) == 0 {
			require.Empty(t, got)
		} else {
			require.Equal(t, c.nibbles, got)
		}
	}
}

func TestHPOddEvenFlagBits(t *testing.T) {
	// even, non-terminating: flag byte is 0x00
	require.Equal(t, []byte{0x00, 0x12}, hpEncode(Nibbles{1, 2}, false))
	// odd, non-terminating: flag nibble 1 in the high nibble, first key
	// nibble in the low nibble.
	require.Equal(t, []byte{0x11, 0x23}, hpEncode(Nibbles{1, 2, 3}, false))
	// even, terminating: flag byte is 0x20
	require.Equal(t, []byte{0x20, 0x0f}, hpEncode(Nibbles{0, 0xf}, true))
	// odd, terminating: flag nibble 3
	require.Equal(t, []byte{0x3a}, hpEncode(Nibbles{0xa}, true))
}

func TestBytesNibblesRoundTrip(t *testing.T) {
	b := []byte("do")
	n := bytesToNibbles(b)
	require.Equal(t, Nibbles{0x6, 0x4, 0x6, 0xf}, n)
	require.Equal(t, b, nibblesToBytes(n))
}

func TestCommonPrefixLen(t *testing.T) {
	require.Equal(t, 3, commonPrefixLen(Nibbles{1, 2, 3, 4}, Nibbles{1, 2, 3, 9}))
	require.Equal(t, 0, commonPrefixLen(Nibbles{1}, Nibbles{2}))
	require.Equal(t, 2, commonPrefixLen(Nibbles{1, 2}, Nibbles{1, 2}))
}

func TestNodeSerializeDecodeRoundTrip(t *testing.T) {
	leaf := &LeafNode{Key: Nibbles{1, 2}, Value: []byte("puppy")}
	enc := serialize(leaf)
	decoded, err := decodeNode(enc)
	require.NoError(t, err)
	got, ok := decoded.(*LeafNode)
	require.True(t, ok)
	require.Equal(t, leaf.Key, got.Key)
	require.Equal(t, leaf.Value, got.Value)

	branch := &BranchNode{Value: []byte("verb")}
	branch.Children[6] = InlineRef{Node: leaf}
	enc = serialize(branch)
	decoded, err = decodeNode(enc)
	require.NoError(t, err)
	gotBranch, ok := decoded.(*BranchNode)
	require.True(t, ok)
	require.Equal(t, branch.Value, gotBranch.Value)
	require.IsType(t, InlineRef{}, gotBranch.Children[6])

	ext := &ExtensionNode{Key: Nibbles{6, 4}, Child: HashRef{1, 2, 3}}
	enc = serialize(ext)
	decoded, err = decodeNode(enc)
	require.NoError(t, err)
	gotExt, ok := decoded.(*ExtensionNode)
	require.True(t, ok)
	require.Equal(t, ext.Key, gotExt.Key)
	require.Equal(t, ext.Child, gotExt.Child)
}

func TestIsRawRef(t *testing.T) {
	leaf := &LeafNode{Key: Nibbles{1}, Value: []byte("x")}
	raw, err := isRawRef(serialize(leaf))
	require.NoError(t, err)
	require.True(t, raw)

	h := make([]byte, hashLen)
	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)
	raw, err = isRawRef(enc)
	require.NoError(t, err)
	require.False(t, raw)
}
