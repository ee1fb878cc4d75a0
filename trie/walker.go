package trie

// Walker implements the queue-driven traversal from spec §4.4 (component
// C4): breadth-oriented iteration over node children, decoupled from
// recursion, loading nodes from the store on demand. The engine (C5)
// and the iterator (C7) both walk the tree via their own specialized
// traversals; Walker exists for callers that want a generic, swallow-
// aware sweep over every reachable node (e.g. integrity scans, or a
// bulk "touch every node" pass before a GC run) without re-deriving the
// resolve-and-enqueue bookkeeping each time.
type Walker struct {
	t       *Trie
	queue   []pendingNode
	swallow bool
}

// pendingNode is one entry in the walk queue: a reference not yet
// visited, together with the key nibbles consumed to reach it.
type pendingNode struct {
	Ref      NodeRef
	KeySoFar Nibbles
}

// Ctl is handed to the caller's callback so it can enqueue a node's
// children without the callback needing to know about Walker's queue
// directly.
type Ctl struct {
	w *Walker
}

// NewWalker creates a walk controller over t. When swallowMissing is
// true, a MissingNodeError for any queued node is dropped instead of
// aborting the walk (used by best-effort scans).
func NewWalker(t *Trie, swallowMissing bool) *Walker {
	return &Walker{t: t, swallow: swallowMissing}
}

// Enqueue schedules ref for visitation.
func (w *Walker) Enqueue(ref NodeRef, keySoFar Nibbles) {
	if ref == nil {
		return
	}
	w.queue = append(w.queue, pendingNode{Ref: ref, KeySoFar: keySoFar})
}

// AllChildren enqueues every non-empty child of a Branch or Extension.
func (c Ctl) AllChildren(n Node, keySoFar Nibbles) {
	switch n := n.(type) {
	case *BranchNode:
		for i, child := range n.Children {
			if child != nil {
				c.w.Enqueue(child, concatNibbles(keySoFar, byte(i)))
			}
		}
	case *ExtensionNode:
		c.w.Enqueue(n.Child, concatNibbles(keySoFar, n.Key...))
	}
}

// OnlyBranch enqueues a single specific child of a Branch by index.
func (c Ctl) OnlyBranch(n *BranchNode, keySoFar Nibbles, i int) {
	if child := n.Children[i]; child != nil {
		c.w.Enqueue(child, concatNibbles(keySoFar, byte(i)))
	}
}

// OnFound is invoked once per visited node.
type OnFound func(ref NodeRef, n Node, keySoFar Nibbles, ctl Ctl) error

// Walk runs the traversal starting from the trie's current root until
// the queue is empty. Missing store entries raise MissingNodeError
// unless the walker was constructed with swallowMissing.
func (w *Walker) Walk(onFound OnFound) error {
	if w.t.root != nil {
		w.Enqueue(w.t.root, nil)
	}
	for len(w.queue) > 0 {
		item := w.queue[0]
		w.queue = w.queue[1:]

		n, err := w.t.resolve(item.Ref, item.KeySoFar)
		if err != nil {
			if w.swallow && IsMissingNodeError(err) {
				continue
			}
			return err
		}
		if n == nil {
			continue
		}
		if err := onFound(item.Ref, n, item.KeySoFar, Ctl{w: w}); err != nil {
			return err
		}
	}
	return nil
}
