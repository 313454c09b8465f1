package btree

// Insert stores e. The tree takes ownership of e.Info.Data.
func (bt *BTree) Insert(e Entry) error {
	node, _, found := bt.findKey(e.Key)
	if found {
		return ErrDuplicate
	}

	insertKey(node, e)
	bt.size++
	bt.divide(node)

	return nil
}

// insertKey places e in key order and returns its index, or -1 when the key
// is already present.
func insertKey(n *Node, e Entry) int {
	i := keyIndex(n, e.Key)
	if i < len(n.Entries) && n.Entries[i].Key == e.Key {
		return -1
	}

	n.Entries = append(n.Entries, Entry{})
	copy(n.Entries[i+1:], n.Entries[i:])
	n.Entries[i] = e

	return i
}

// takeKey removes and returns the entry at index, shifting later entries left.
func takeKey(n *Node, index int) Entry {
	e := n.Entries[index]
	copy(n.Entries[index:], n.Entries[index+1:])
	n.Entries[len(n.Entries)-1] = Entry{}
	n.Entries = n.Entries[:len(n.Entries)-1]
	return e
}

// divide splits node while it is full, promoting medians upwards.
func (bt *BTree) divide(node *Node) {
	for len(node.Entries) == bt.branching {
		if node.ID == bt.root {
			root := bt.newNode(false)
			bt.root = root.ID
			bt.attachChild(root, 0, node.ID)
		}

		parent := bt.node(node.Parent)
		median := (len(node.Entries) - 1) / 2
		promoted := node.Entries[median]

		split := bt.newNode(node.Leaf)
		split.Entries = append(split.Entries, node.Entries[median+1:]...)
		clear(node.Entries[median:])
		node.Entries = node.Entries[:median]

		if !node.Leaf {
			split.Children = append(split.Children, node.Children[median+1:]...)
			clear(node.Children[median+1:])
			node.Children = node.Children[:median+1]
			bt.restamp(split, 0)
		}

		index := insertKey(parent, promoted)
		bt.attachChild(parent, index+1, split.ID)

		node = parent
	}
}
