package btree

import (
	"fmt"
	"io"
	"strings"
)

// Walk visits every node in pre-order (node, then each child in order).
// Returning false from fn stops the walk.
func (bt *BTree) Walk(fn func(n *Node, depth int) bool) {
	if bt.root == nilNode {
		return
	}

	type frame struct {
		id    NodeID
		depth int
	}

	stack := []frame{{bt.root, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := bt.node(top.id)
		if !fn(n, top.depth) {
			return
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n.Children[i], top.depth + 1})
		}
	}
}

// Export lists the keys of every node in pre-order.
func (bt *BTree) Export() []NodeSnapshot {
	list := make([]NodeSnapshot, 0, bt.live)
	bt.Walk(func(n *Node, _ int) bool {
		list = append(list, NodeSnapshot{Keys: n.Keys()})
		return true
	})
	return list
}

// Fprint writes the tree as an indented outline:
//
//	 └─ (7)
//	     ├─ (3)
//	     |   ├─ (2)
func (bt *BTree) Fprint(w io.Writer) error {
	if bt.root == nilNode {
		return nil
	}

	type frame struct {
		id     NodeID
		prefix string
		last   bool
	}

	stack := []frame{{bt.root, "", true}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := bt.node(top.id)

		branch, extend := " ├─ ", " |  "
		if top.last {
			branch, extend = " └─ ", "    "
		}

		keys := make([]string, len(n.Entries))
		for i := range n.Entries {
			keys[i] = fmt.Sprint(n.Entries[i].Key)
		}
		if _, err := fmt.Fprintf(w, "%s%s(%s)\n", top.prefix, branch, strings.Join(keys, ", ")); err != nil {
			return err
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n.Children[i], top.prefix + extend, i == len(n.Children)-1})
		}
	}

	return nil
}

func (bt *BTree) String() string {
	var sb strings.Builder
	_ = bt.Fprint(&sb)
	return sb.String()
}

// Check verifies the structural invariants of the whole tree and returns the
// first violation found.
func (bt *BTree) Check() error {
	if bt.root == nilNode {
		return fmt.Errorf("tree is closed")
	}

	root := bt.node(bt.root)
	if root.Parent != nilNode {
		return fmt.Errorf("root %d has parent %d", root.ID, root.Parent)
	}
	if !root.Leaf && len(root.Entries) == 0 {
		return fmt.Errorf("internal root %d has no keys", root.ID)
	}

	type frame struct {
		id     NodeID
		lo, hi int64
		depth  int
	}

	nodes, entries, leafDepth := 0, 0, -1
	buffers := make(map[*byte]uint32)
	stack := []frame{{bt.root, -1, 1 << 32, 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := bt.Node(top.id)
		if n == nil {
			return fmt.Errorf("link to free slot %d", top.id)
		}
		if n.ID != top.id {
			return fmt.Errorf("node in slot %d claims id %d", top.id, n.ID)
		}
		nodes++
		entries += len(n.Entries)

		if len(n.Entries) >= bt.branching {
			return fmt.Errorf("node %d holds %d keys, branching is %d", n.ID, len(n.Entries), bt.branching)
		}
		if n.ID != bt.root && len(n.Entries) < bt.minKeys(n) {
			return fmt.Errorf("node %d holds %d keys, floor is %d", n.ID, len(n.Entries), bt.minKeys(n))
		}

		prev := top.lo
		for _, e := range n.Entries {
			if int64(e.Key) <= prev || int64(e.Key) >= top.hi {
				return fmt.Errorf("node %d: key %d out of order or range (%d, %d)", n.ID, e.Key, top.lo, top.hi)
			}
			prev = int64(e.Key)

			if len(e.Info.Data) > 0 {
				owner, shared := buffers[&e.Info.Data[0]]
				if shared {
					return fmt.Errorf("keys %d and %d share a payload buffer", owner, e.Key)
				}
				buffers[&e.Info.Data[0]] = e.Key
			}
		}

		if n.Leaf {
			if len(n.Children) != 0 {
				return fmt.Errorf("leaf %d has %d children", n.ID, len(n.Children))
			}
			if leafDepth < 0 {
				leafDepth = top.depth
			} else if leafDepth != top.depth {
				return fmt.Errorf("leaf %d at depth %d, expected %d", n.ID, top.depth, leafDepth)
			}
			continue
		}

		if len(n.Children) != len(n.Entries)+1 {
			return fmt.Errorf("node %d has %d keys and %d children", n.ID, len(n.Entries), len(n.Children))
		}
		for i, id := range n.Children {
			child := bt.Node(id)
			if child == nil {
				return fmt.Errorf("node %d links free slot %d", n.ID, id)
			}
			if child.Parent != n.ID || child.LinkIndex != i {
				return fmt.Errorf("child %d of node %d: parent %d link %d, expected link %d",
					id, n.ID, child.Parent, child.LinkIndex, i)
			}

			lo, hi := top.lo, top.hi
			if i > 0 {
				lo = int64(n.Entries[i-1].Key)
			}
			if i < len(n.Entries) {
				hi = int64(n.Entries[i].Key)
			}
			stack = append(stack, frame{id, lo, hi, top.depth + 1})
		}
	}

	if nodes != bt.live {
		return fmt.Errorf("reached %d nodes, live count is %d", nodes, bt.live)
	}
	if entries != bt.size {
		return fmt.Errorf("reached %d entries, size is %d", entries, bt.size)
	}

	return nil
}
