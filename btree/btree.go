package btree

import "github.com/pkg/errors"

// NewBTree creates an empty tree whose nodes hold at most branching keys.
func NewBTree(branching int) (*BTree, error) {
	if branching < 3 {
		return nil, errors.Wrapf(ErrInvalidBranching, "got %d", branching)
	}

	bt := &BTree{
		branching: branching,
		nodes:     make([]*Node, 0, 16),
	}
	bt.root = bt.newNode(true).ID

	return bt, nil
}

// Branching returns the maximum number of keys per node.
func (bt *BTree) Branching() int {
	return bt.branching
}

// Len returns the number of live entries.
func (bt *BTree) Len() int {
	return bt.size
}

// NodeCount returns the number of live nodes, the root included.
func (bt *BTree) NodeCount() int {
	return bt.live
}

// Root returns the root node. It is nil once the tree is closed.
func (bt *BTree) Root() *Node {
	if bt.root == nilNode {
		return nil
	}
	return bt.node(bt.root)
}

// Node returns the node stored in slot id, or nil for a free or unknown slot.
func (bt *BTree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(bt.nodes) {
		return nil
	}
	return bt.nodes[id]
}

// Close releases every node and payload. The tree is unusable afterwards.
func (bt *BTree) Close() {
	if bt.root == nilNode {
		return
	}

	bt.releaseSubtree(bt.root)
	bt.root = nilNode
	bt.nodes = nil
	bt.free = nil
	bt.size = 0
}

// minKeys is the occupancy floor of a non-root node.
func (bt *BTree) minKeys(n *Node) int {
	if n.Leaf {
		return 1
	}
	return max(1, (bt.branching+1)/2-1)
}
