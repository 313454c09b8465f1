package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetachChildRestamps(t *testing.T) {
	bt := newTree(t, 4, dividingSequence...)

	// right subtree (13, 19) has three leaf children
	inner := bt.node(bt.Root().Children[1])
	require.Len(t, inner.Children, 3)
	first, second, third := inner.Children[0], inner.Children[1], inner.Children[2]

	detached := bt.detachChild(inner, 0)
	assert.Equal(t, first, detached)
	assert.Equal(t, []NodeID{second, third}, inner.Children)
	assert.Equal(t, nilNode, bt.node(first).Parent)
	for i, id := range inner.Children {
		assert.Equal(t, inner.ID, bt.node(id).Parent)
		assert.Equal(t, i, bt.node(id).LinkIndex)
	}

	bt.attachChild(inner, 0, detached)
	assert.Equal(t, []NodeID{first, second, third}, inner.Children)
	for i, id := range inner.Children {
		assert.Equal(t, inner.ID, bt.node(id).Parent)
		assert.Equal(t, i, bt.node(id).LinkIndex)
	}
	assert.NoError(t, bt.Check())
}

func TestReleaseSubtree(t *testing.T) {
	bt, err := NewBTree(3)
	require.NoError(t, err)
	for _, k := range []uint32{5, 6, 10, 25, 24, 26, 27, 28, 29} {
		require.NoError(t, bt.Insert(Entry{Key: k, Info: Info{Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}}))
	}

	root := bt.Root()
	victim := root.Children[1]
	payloads := [][]byte{}
	bt.Walk(func(n *Node, _ int) bool {
		for _, e := range n.Entries {
			payloads = append(payloads, e.Info.Data)
		}
		return true
	})

	nodes, entries := bt.NodeCount(), bt.Len()
	removed := 0
	inSubtree := map[NodeID]bool{victim: true}
	bt.Walk(func(n *Node, _ int) bool {
		if inSubtree[n.ID] || (n.Parent != nilNode && inSubtree[n.Parent]) {
			inSubtree[n.ID] = true
			removed++
		}
		return true
	})

	bt.releaseSubtree(victim)

	assert.Equal(t, nodes-removed, bt.NodeCount())
	assert.Less(t, bt.Len(), entries)
	assert.Len(t, root.Children, len(root.Entries))
	for i, id := range root.Children {
		assert.Equal(t, i, bt.node(id).LinkIndex)
	}
	assert.Nil(t, bt.Node(victim))

	wiped := 0
	for _, p := range payloads {
		if p[0] == 0 {
			wiped++
		}
	}
	assert.Equal(t, entries-bt.Len(), wiped)
}

func TestNodeSlotsAreReused(t *testing.T) {
	bt := newTree(t, 3, 1, 2, 3)
	require.Equal(t, 3, bt.NodeCount())

	require.NoError(t, bt.Delete(1))
	require.Equal(t, 1, bt.NodeCount())
	slots := len(bt.nodes)

	require.NoError(t, bt.Insert(Entry{Key: 4}))
	require.NoError(t, bt.Insert(Entry{Key: 5}))
	assert.Equal(t, 3, bt.NodeCount())
	assert.Equal(t, slots, len(bt.nodes))
	assert.NoError(t, bt.Check())
}
