package btree

type direction int

const (
	left direction = iota
	right
)

// Delete removes key and releases its payload.
func (bt *BTree) Delete(key uint32) error {
	node, i, found := bt.findKey(key)
	if !found {
		return ErrNotFound
	}

	if node.Leaf {
		e := takeKey(node, i)
		release(&e)
	} else {
		// replace with the in-order predecessor and remove that from its leaf
		leaf := bt.node(node.Children[i])
		for !leaf.Leaf {
			leaf = bt.node(leaf.Children[len(leaf.Children)-1])
		}

		release(&node.Entries[i])
		node.Entries[i] = takeKey(leaf, len(leaf.Entries)-1)
		node = leaf
	}

	bt.size--
	bt.merge(node)

	return nil
}

// merge restores the occupancy floor from node upwards.
func (bt *BTree) merge(node *Node) {
	for node.ID != bt.root && len(node.Entries) < bt.minKeys(node) {
		if bt.robinHood(node, left) || bt.robinHood(node, right) {
			continue
		}
		node = bt.combine(node)
	}

	root := bt.node(bt.root)
	if len(root.Entries) == 0 && !root.Leaf {
		child := bt.detachChild(root, 0)
		bt.releaseNode(root.ID)
		bt.root = child
	}
}

// robinHood rotates one entry from the sibling on side through the parent
// into node. It reports false when that sibling does not exist or has no
// entry to spare.
func (bt *BTree) robinHood(node *Node, side direction) bool {
	parent := bt.node(node.Parent)

	siblingIndex := node.LinkIndex + 1
	if side == left {
		siblingIndex = node.LinkIndex - 1
	}
	if siblingIndex < 0 || siblingIndex >= len(parent.Children) {
		return false
	}

	sibling := bt.node(parent.Children[siblingIndex])
	if len(sibling.Entries) <= bt.minKeys(sibling) {
		return false
	}

	if side == left {
		separator := node.LinkIndex - 1
		insertKey(node, parent.Entries[separator])
		parent.Entries[separator] = takeKey(sibling, len(sibling.Entries)-1)
		if !node.Leaf {
			child := bt.detachChild(sibling, len(sibling.Children)-1)
			bt.attachChild(node, 0, child)
		}
	} else {
		separator := node.LinkIndex
		insertKey(node, parent.Entries[separator])
		parent.Entries[separator] = takeKey(sibling, 0)
		if !node.Leaf {
			child := bt.detachChild(sibling, 0)
			bt.attachChild(node, len(node.Children), child)
		}
	}

	return true
}

// combine absorbs a sibling of node (the left one when there is one) together
// with the separating parent entry, releases the emptied sibling and returns
// the parent.
func (bt *BTree) combine(node *Node) *Node {
	parent := bt.node(node.Parent)

	if node.LinkIndex > 0 {
		sibling := bt.node(parent.Children[node.LinkIndex-1])
		separator := takeKey(parent, node.LinkIndex-1)

		entries := make([]Entry, 0, bt.branching)
		entries = append(entries, sibling.Entries...)
		entries = append(entries, separator)
		entries = append(entries, node.Entries...)
		clear(node.Entries)
		clear(sibling.Entries)
		sibling.Entries = sibling.Entries[:0]
		node.Entries = entries

		if !node.Leaf {
			children := make([]NodeID, 0, bt.branching+1)
			children = append(children, sibling.Children...)
			children = append(children, node.Children...)
			sibling.Children = sibling.Children[:0]
			node.Children = children
			bt.restamp(node, 0)
		}

		bt.detachChild(parent, sibling.LinkIndex)
		bt.releaseNode(sibling.ID)
	} else {
		sibling := bt.node(parent.Children[node.LinkIndex+1])
		separator := takeKey(parent, node.LinkIndex)

		node.Entries = append(node.Entries, separator)
		node.Entries = append(node.Entries, sibling.Entries...)
		clear(sibling.Entries)
		sibling.Entries = sibling.Entries[:0]

		if !node.Leaf {
			base := len(node.Children)
			node.Children = append(node.Children, sibling.Children...)
			sibling.Children = sibling.Children[:0]
			bt.restamp(node, base)
		}

		bt.detachChild(parent, sibling.LinkIndex)
		bt.releaseNode(sibling.ID)
	}

	return parent
}
