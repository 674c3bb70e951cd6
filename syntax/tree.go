// Package syntax holds a snapshot of the syntax tree around the cursor,
// rebuilt from the flat node payload the Neovim side ships over RPC.
// Nodes live in an arena indexed by parent/child indices, so handles stay
// cheap values and never dangle into the editor's own tree.
package syntax

import (
	"fmt"

	"contextwin/types"
)

type nodeData struct {
	typeName string
	startRow int
	startCol int
	endRow   int
	endCol   int
	parent   int // arena index, -1 for the root
	children []int
}

// Tree is an immutable snapshot of the syntax nodes relevant to one
// recompute cycle. Index 0 is always the root.
type Tree struct {
	nodes []nodeData
}

// Node is a value handle into a Tree. The zero Node is invalid.
type Node struct {
	tree *Tree
	idx  int
}

// RawNode is the wire form of one node as decoded from the Lua snapshot
// payload. Parent is an arena index (-1 for the root); Children lists the
// arena indices of named children in source order. Parents precede their
// children in the payload, so every child index is greater than its
// parent's.
type RawNode struct {
	Type     string
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
	Parent   int
	Children []int
}

// NewTree validates a raw node payload and builds the arena. The first
// node must be the root (parent -1), and every other node's parent must
// appear before it. Together with the child backlink check this keeps
// descent through the arena strictly forward, so a malformed payload can
// never send NodeAt into a loop.
func NewTree(raw []RawNode) (*Tree, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty node payload")
	}
	if raw[0].Parent != -1 {
		return nil, fmt.Errorf("node 0 is not a root (parent %d)", raw[0].Parent)
	}
	nodes := make([]nodeData, len(raw))
	for i, rn := range raw {
		if i > 0 && (rn.Parent < 0 || rn.Parent >= i) {
			return nil, fmt.Errorf("node %d: parent index %d does not precede it", i, rn.Parent)
		}
		if rn.EndRow < rn.StartRow || (rn.EndRow == rn.StartRow && rn.EndCol < rn.StartCol) {
			return nil, fmt.Errorf("node %d (%s): inverted span", i, rn.Type)
		}
		for _, c := range rn.Children {
			if c <= i || c >= len(raw) {
				return nil, fmt.Errorf("node %d: child index %d out of range", i, c)
			}
			if raw[c].Parent != i {
				return nil, fmt.Errorf("node %d: child %d points back at parent %d", i, c, raw[c].Parent)
			}
		}
		nodes[i] = nodeData{
			typeName: rn.Type,
			startRow: rn.StartRow,
			startCol: rn.StartCol,
			endRow:   rn.EndRow,
			endCol:   rn.EndCol,
			parent:   rn.Parent,
			children: rn.Children,
		}
	}
	return &Tree{nodes: nodes}, nil
}

// Root returns the root node of the snapshot.
func (t *Tree) Root() Node {
	return Node{tree: t, idx: 0}
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// NodeAt returns the smallest node whose span contains pos. It descends
// from the root, preferring the deepest containing child at each level.
// The second return is false when not even the root contains pos.
func (t *Tree) NodeAt(pos types.Position) (Node, bool) {
	if !t.nodes[0].containsRow(pos) {
		return Node{}, false
	}
	idx := 0
	for {
		next := -1
		for _, c := range t.nodes[idx].children {
			if t.nodes[c].containsRow(pos) {
				next = c
				break
			}
		}
		if next == -1 {
			return Node{tree: t, idx: idx}, true
		}
		idx = next
	}
}

func (d *nodeData) containsRow(pos types.Position) bool {
	if pos.Row < d.startRow || pos.Row > d.endRow {
		return false
	}
	if pos.Row == d.startRow && pos.Col < d.startCol {
		return false
	}
	if pos.Row == d.endRow && pos.Col > d.endCol {
		return false
	}
	return true
}

// IsValid reports whether the handle points into a tree.
func (n Node) IsValid() bool { return n.tree != nil }

// Type returns the node's grammar type name.
func (n Node) Type() string { return n.tree.nodes[n.idx].typeName }

// Start returns the node's start position.
func (n Node) Start() types.Position {
	d := &n.tree.nodes[n.idx]
	return types.Position{Row: d.startRow, Col: d.startCol}
}

// End returns the node's end position (exclusive column).
func (n Node) End() types.Position {
	d := &n.tree.nodes[n.idx]
	return types.Position{Row: d.endRow, Col: d.endCol}
}

// Span returns the node's full source range.
func (n Node) Span() types.Range {
	d := &n.tree.nodes[n.idx]
	return types.Range{StartRow: d.startRow, StartCol: d.startCol, EndRow: d.endRow, EndCol: d.endCol}
}

// Parent returns the parent handle; ok is false at the root.
func (n Node) Parent() (Node, bool) {
	p := n.tree.nodes[n.idx].parent
	if p < 0 {
		return Node{}, false
	}
	return Node{tree: n.tree, idx: p}, true
}

// NamedChildren returns the node's named children in source order.
func (n Node) NamedChildren() []Node {
	idxs := n.tree.nodes[n.idx].children
	children := make([]Node, len(idxs))
	for i, c := range idxs {
		children[i] = Node{tree: n.tree, idx: c}
	}
	return children
}

// Same reports whether two handles refer to the same node.
func (n Node) Same(other Node) bool {
	return n.tree == other.tree && n.idx == other.idx
}
