package btree

import "github.com/pkg/errors"

var (
	ErrInvalidBranching = errors.New("B-tree branching factor must be at least 3")
	ErrDuplicate        = errors.New("key already exists")
	ErrNotFound         = errors.New("key not found")
)

// NodeID addresses a node slot in the tree's arena.
type NodeID int

const nilNode NodeID = -1

// Info is the encrypted payload attached to a key. Data holds the ciphertext
// padded to a multiple of the cipher block size; Size is the plaintext length.
type Info struct {
	Size      uint32
	CryptoKey [4]uint32
	Nonce     uint64
	Data      []byte
}

// Entry pairs a search key with its payload. An Entry owns Data: moving an
// entry between nodes moves the slice header and zeroes the old slot.
type Entry struct {
	Key  uint32
	Info Info
}

// Node represents a node in the B-tree. Parent and LinkIndex are bookkeeping
// only and are maintained by the tree on every structural edit.
type Node struct {
	ID        NodeID
	Leaf      bool
	Entries   []Entry
	Children  []NodeID
	Parent    NodeID
	LinkIndex int
}

// NumKeys returns the number of entries held by the node.
func (n *Node) NumKeys() int {
	return len(n.Entries)
}

// Keys returns a copy of the node's keys in order.
func (n *Node) Keys() []uint32 {
	keys := make([]uint32, len(n.Entries))
	for i := range n.Entries {
		keys[i] = n.Entries[i].Key
	}
	return keys
}

// NodeSnapshot is the exported view of a single node.
type NodeSnapshot struct {
	Keys []uint32 `json:"keys" cbor:"keys"`
}

// BTree represents a B-tree whose nodes live in an indexed slab.
type BTree struct {
	branching int
	root      NodeID
	nodes     []*Node
	free      []NodeID
	size      int
	live      int
}

// release wipes and drops the ciphertext owned by e.
func release(e *Entry) {
	clear(e.Info.Data)
	e.Info.Data = nil
}
