package trie

// Nibbles is a sequence of 4-bit values (0..15), most significant
// nibble first, the routing alphabet every trie path is expressed in
// (spec §3, component C1).
type Nibbles []byte

// bytesToNibbles expands each byte of b into two nibbles, high first.
func bytesToNibbles(b []byte) Nibbles {
	n := make(Nibbles, len(b)*2)
	for i, v := range b {
		n[i*2] = v >> 4
		n[i*2+1] = v & 0x0f
	}
	return n
}

// nibblesToBytes packs pairs of nibbles back into bytes. The caller
// must ensure len(n) is even; it is only ever called on full-key
// nibble sequences reconstructed during iteration, which always are.
func nibblesToBytes(n Nibbles) []byte {
	b := make([]byte, len(n)/2)
	for i := range b {
		b[i] = n[i*2]<<4 | n[i*2+1]
	}
	return b
}

// commonPrefixLen returns the length of the longest common prefix of a
// and b.
func commonPrefixLen(a, b Nibbles) int {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	return i
}

// concatNibbles always returns a freshly allocated slice, so the result
// never aliases either input — important because LeafNode/ExtensionNode
// keys are routinely shared between a parent and the nodes it was
// derived from.
func concatNibbles(a Nibbles, b ...byte) Nibbles {
	r := make(Nibbles, len(a)+len(b))
	copy(r, a)
	copy(r[len(a):], b)
	return r
}
