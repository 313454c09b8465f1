package btree

func (bt *BTree) node(id NodeID) *Node {
	return bt.nodes[id]
}

func (bt *BTree) newNode(leaf bool) *Node {
	n := &Node{
		Leaf:    leaf,
		Entries: make([]Entry, 0, bt.branching),
		Parent:  nilNode,
	}
	if !leaf {
		n.Children = make([]NodeID, 0, bt.branching+1)
	}

	if last := len(bt.free) - 1; last >= 0 {
		n.ID = bt.free[last]
		bt.free = bt.free[:last]
		bt.nodes[n.ID] = n
	} else {
		n.ID = NodeID(len(bt.nodes))
		bt.nodes = append(bt.nodes, n)
	}

	bt.live++
	return n
}

// releaseNode frees a single node and the payloads it still owns. Children
// are not followed; callers detach or move them first.
func (bt *BTree) releaseNode(id NodeID) {
	n := bt.nodes[id]
	for i := range n.Entries {
		release(&n.Entries[i])
	}
	n.Entries = nil
	n.Children = nil
	n.Parent = nilNode

	bt.nodes[id] = nil
	bt.free = append(bt.free, id)
	bt.live--
}

// releaseSubtree frees id and all of its descendants, children before
// parents. A subtree that is still linked is detached from its parent first.
func (bt *BTree) releaseSubtree(id NodeID) {
	if n := bt.nodes[id]; n.Parent != nilNode {
		bt.detachChild(bt.nodes[n.Parent], n.LinkIndex)
	}

	order := []NodeID{}
	stack := []NodeID{id}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, top)
		stack = append(stack, bt.nodes[top].Children...)
	}

	for i := len(order) - 1; i >= 0; i-- {
		bt.size -= len(bt.nodes[order[i]].Entries)
		bt.releaseNode(order[i])
	}
}

// restamp sets Parent and LinkIndex on parent's children from index onwards.
func (bt *BTree) restamp(parent *Node, from int) {
	for i := from; i < len(parent.Children); i++ {
		child := bt.nodes[parent.Children[i]]
		child.Parent = parent.ID
		child.LinkIndex = i
	}
}

// attachChild links child into parent at index, shifting later links right.
func (bt *BTree) attachChild(parent *Node, index int, child NodeID) {
	parent.Children = append(parent.Children, nilNode)
	copy(parent.Children[index+1:], parent.Children[index:])
	parent.Children[index] = child
	bt.restamp(parent, index)
}

// detachChild removes the link at index, shifting later links left, and
// returns the detached node id. The detached node becomes parentless.
func (bt *BTree) detachChild(parent *Node, index int) NodeID {
	child := parent.Children[index]
	copy(parent.Children[index:], parent.Children[index+1:])
	parent.Children[len(parent.Children)-1] = nilNode
	parent.Children = parent.Children[:len(parent.Children)-1]
	bt.restamp(parent, index)

	if n := bt.nodes[child]; n != nil {
		n.Parent = nilNode
		n.LinkIndex = 0
	}
	return child
}
