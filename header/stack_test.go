package header

import (
	"testing"

	"contextwin/assert"
	"contextwin/pattern"
	"contextwin/syntax"
	"contextwin/types"
)

// deepTree nests four qualifying python constructs:
//
//	0: import os
//	1: class Foo:
//	2:     def bar(self):
//	3:         for x in xs:
//	4:             while x:
//	5:                 ...
//	6:                 f(x)
func deepTree(t *testing.T) *syntax.Tree {
	t.Helper()
	tree, err := syntax.NewTree([]syntax.RawNode{
		{Type: "module", StartRow: 0, StartCol: 0, EndRow: 6, EndCol: 20, Parent: -1, Children: []int{1}},
		{Type: "class_definition", StartRow: 1, StartCol: 0, EndRow: 6, EndCol: 20, Parent: 0, Children: []int{2}},
		{Type: "function_definition", StartRow: 2, StartCol: 4, EndRow: 6, EndCol: 20, Parent: 1, Children: []int{3}},
		{Type: "for_statement", StartRow: 3, StartCol: 8, EndRow: 6, EndCol: 20, Parent: 2, Children: []int{4}},
		{Type: "while_statement", StartRow: 4, StartCol: 12, EndRow: 6, EndCol: 20, Parent: 3, Children: []int{5}},
		{Type: "call", StartRow: 6, StartCol: 16, EndRow: 6, EndCol: 20, Parent: 4, Children: nil},
	})
	assert.Nil(t, err, "building tree")
	return tree
}

func stackTypes(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Node.Type()
	}
	return out
}

func TestBuildStackOrdering(t *testing.T) {
	tree := deepTree(t)
	m := pattern.NewMatcher(types.ContextConfig{})
	cursor := types.Position{Row: 6, Col: 18}

	entries := BuildStack(tree, cursor, 7, "python", m, 0)

	assert.Equal(t, []string{
		"class_definition",
		"function_definition",
		"for_statement",
		"while_statement",
	}, stackTypes(entries), "outermost first")
	assert.Equal(t, 1, entries[0].StartRow, "outermost start row")
	assert.Equal(t, 4, entries[3].StartRow, "innermost start row")
}

func TestBuildStackEmptyWhenNothingAboveViewport(t *testing.T) {
	tree := deepTree(t)
	m := pattern.NewMatcher(types.ContextConfig{})
	cursor := types.Position{Row: 6, Col: 18}

	// First visible line 2 admits only constructs starting on row 0,
	// and row 0 never qualifies.
	entries := BuildStack(tree, cursor, 2, "python", m, 0)
	assert.Equal(t, 0, len(entries), "no header")
}

func TestBuildStackViewportBoundary(t *testing.T) {
	tree := deepTree(t)
	m := pattern.NewMatcher(types.ContextConfig{})
	cursor := types.Position{Row: 6, Col: 18}

	// First visible line 4 admits rows strictly below 3: the class on
	// row 1 and the function on row 2. The for on row 3 is itself
	// visible and must not be duplicated in the header.
	entries := BuildStack(tree, cursor, 4, "python", m, 0)
	assert.Equal(t, []string{
		"class_definition",
		"function_definition",
	}, stackTypes(entries), "only constructs scrolled off")
}

func TestBuildStackFirstLineNeverQualifies(t *testing.T) {
	tree, err := syntax.NewTree([]syntax.RawNode{
		{Type: "module", StartRow: 0, StartCol: 0, EndRow: 4, EndCol: 10, Parent: -1, Children: []int{1}},
		{Type: "class_definition", StartRow: 0, StartCol: 0, EndRow: 4, EndCol: 10, Parent: 0, Children: []int{2}},
		{Type: "function_definition", StartRow: 1, StartCol: 4, EndRow: 4, EndCol: 10, Parent: 1, Children: []int{3}},
		{Type: "call", StartRow: 4, StartCol: 8, EndRow: 4, EndCol: 10, Parent: 2, Children: nil},
	})
	assert.Nil(t, err, "building tree")
	m := pattern.NewMatcher(types.ContextConfig{})

	entries := BuildStack(tree, types.Position{Row: 4, Col: 8}, 6, "python", m, 0)
	assert.Equal(t, []string{"function_definition"}, stackTypes(entries), "row 0 construct excluded")
}

func TestBuildStackSameRowCollapse(t *testing.T) {
	// "class Foo: def bar():" squeezed onto one line keeps only the
	// outermost of the two constructs.
	tree, err := syntax.NewTree([]syntax.RawNode{
		{Type: "module", StartRow: 0, StartCol: 0, EndRow: 5, EndCol: 10, Parent: -1, Children: []int{1}},
		{Type: "class_definition", StartRow: 1, StartCol: 0, EndRow: 5, EndCol: 10, Parent: 0, Children: []int{2}},
		{Type: "function_definition", StartRow: 1, StartCol: 11, EndRow: 5, EndCol: 10, Parent: 1, Children: []int{3}},
		{Type: "call", StartRow: 5, StartCol: 4, EndRow: 5, EndCol: 10, Parent: 2, Children: nil},
	})
	assert.Nil(t, err, "building tree")
	m := pattern.NewMatcher(types.ContextConfig{})

	entries := BuildStack(tree, types.Position{Row: 5, Col: 6}, 6, "python", m, 0)
	assert.Equal(t, []string{"class_definition"}, stackTypes(entries), "outer of the same-row pair")
}

func TestBuildStackMaxLinesKeepsInnermost(t *testing.T) {
	tree := deepTree(t)
	m := pattern.NewMatcher(types.ContextConfig{})
	cursor := types.Position{Row: 6, Col: 18}

	entries := BuildStack(tree, cursor, 7, "python", m, 2)
	assert.Equal(t, []string{
		"for_statement",
		"while_statement",
	}, stackTypes(entries), "two innermost constructs, still outermost first")
}

func TestBuildStackSameRowCollapseAtCap(t *testing.T) {
	// With the cap already reached by the inner construct, its same-row
	// enclosing construct still takes its slot instead of being dropped.
	tree, err := syntax.NewTree([]syntax.RawNode{
		{Type: "module", StartRow: 0, StartCol: 0, EndRow: 7, EndCol: 10, Parent: -1, Children: []int{1}},
		{Type: "if_statement", StartRow: 1, StartCol: 0, EndRow: 7, EndCol: 10, Parent: 0, Children: []int{2}},
		{Type: "class_definition", StartRow: 2, StartCol: 4, EndRow: 7, EndCol: 10, Parent: 1, Children: []int{3}},
		{Type: "function_definition", StartRow: 2, StartCol: 15, EndRow: 7, EndCol: 10, Parent: 2, Children: []int{4}},
		{Type: "call", StartRow: 7, StartCol: 8, EndRow: 7, EndCol: 10, Parent: 3, Children: nil},
	})
	assert.Nil(t, err, "building tree")
	m := pattern.NewMatcher(types.ContextConfig{})

	entries := BuildStack(tree, types.Position{Row: 7, Col: 9}, 8, "python", m, 1)
	assert.Equal(t, []string{"class_definition"}, stackTypes(entries), "outer of the pair under the cap")
}

func TestBuildStackNilInputs(t *testing.T) {
	m := pattern.NewMatcher(types.ContextConfig{})

	entries := BuildStack(nil, types.Position{}, 5, "python", m, 0)
	assert.Equal(t, 0, len(entries), "nil tree")

	tree := deepTree(t)
	entries = BuildStack(tree, types.Position{Row: 50, Col: 0}, 5, "python", m, 0)
	assert.Equal(t, 0, len(entries), "cursor outside the snapshot")
}
