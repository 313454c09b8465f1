package btree

import "sort"

// keyIndex returns the position of key in n, or the position at which it
// would be inserted to keep the entries ordered.
func keyIndex(n *Node, key uint32) int {
	return sort.Search(len(n.Entries), func(i int) bool {
		return n.Entries[i].Key >= key
	})
}

// KeyIndex is keyIndex over a plain sorted key slice.
func KeyIndex(keys []uint32, key uint32) int {
	return sort.Search(len(keys), func(i int) bool {
		return keys[i] >= key
	})
}

// findKey descends from the root and stops at the node holding key or at the
// leaf where key would be inserted.
func (bt *BTree) findKey(key uint32) (*Node, int, bool) {
	node := bt.node(bt.root)
	for {
		i := keyIndex(node, key)
		if i < len(node.Entries) && node.Entries[i].Key == key {
			return node, i, true
		}
		if node.Leaf {
			return node, i, false
		}
		node = bt.node(node.Children[i])
	}
}

// Find returns the entry stored under key. The entry is owned by the tree and
// is only valid until the next mutation.
func (bt *BTree) Find(key uint32) (*Entry, bool) {
	node, i, found := bt.findKey(key)
	if !found {
		return nil, false
	}
	return &node.Entries[i], true
}

// Contains reports whether key is stored in the tree.
func (bt *BTree) Contains(key uint32) bool {
	_, _, found := bt.findKey(key)
	return found
}
