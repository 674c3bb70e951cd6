package engine

import (
	"sync"

	"github.com/neovim/go-client/nvim"

	"contextwin/buffer"
	"contextwin/syntax"
	"contextwin/types"
)

// --- Mock implementations ---

// mockBuffer implements the Buffer interface for testing
type mockBuffer struct {
	mu               sync.Mutex
	lines            []string
	row              int
	col              int
	language         string
	firstVisibleLine int
	tree             *syntax.Tree
	captures         []types.Capture
	bufferChanged    bool
	textChanged      bool
	syncErr          error
	treeErr          error

	// Track method calls
	syncCalls  int
	treeCalls  int
	showCalls  int
	closeCalls int
	lastShown  struct {
		lines        []string
		gutterLabels []int
		spans        []types.HighlightSpan
		changed      []int
	}
}

// newMockBuffer builds a buffer over a python file with four nested
// constructs, cursor-ready on its last line:
//
//	0: import os
//	1: class Foo:
//	2:     def bar(self):
//	3:         for x in xs:
//	4:             while x:
//	5:                 ...
//	6:                 f(x)
func newMockBuffer() *mockBuffer {
	tree, err := syntax.NewTree([]syntax.RawNode{
		{Type: "module", StartRow: 0, StartCol: 0, EndRow: 6, EndCol: 20, Parent: -1, Children: []int{1}},
		{Type: "class_definition", StartRow: 1, StartCol: 0, EndRow: 6, EndCol: 20, Parent: 0, Children: []int{2}},
		{Type: "function_definition", StartRow: 2, StartCol: 4, EndRow: 6, EndCol: 20, Parent: 1, Children: []int{3}},
		{Type: "for_statement", StartRow: 3, StartCol: 8, EndRow: 6, EndCol: 20, Parent: 2, Children: []int{4}},
		{Type: "while_statement", StartRow: 4, StartCol: 12, EndRow: 6, EndCol: 20, Parent: 3, Children: []int{5}},
		{Type: "call", StartRow: 6, StartCol: 16, EndRow: 6, EndCol: 20, Parent: 4, Children: nil},
	})
	if err != nil {
		panic(err)
	}
	return &mockBuffer{
		lines: []string{
			"import os",
			"class Foo:",
			"    def bar(self):",
			"        for x in xs:",
			"            while x:",
			"                ...",
			"                f(x)",
		},
		row:              7,
		col:              16,
		language:         "python",
		firstVisibleLine: 7,
		tree:             tree,
	}
}

func (b *mockBuffer) SetClient(n *nvim.Nvim) {}

func (b *mockBuffer) Sync() (*buffer.SyncResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.syncCalls++
	if b.syncErr != nil {
		return nil, b.syncErr
	}
	return &buffer.SyncResult{BufferChanged: b.bufferChanged, TextChanged: b.textChanged}, nil
}

func (b *mockBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lines
}

func (b *mockBuffer) Row() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.row
}

func (b *mockBuffer) Col() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.col
}

func (b *mockBuffer) Language() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.language
}

func (b *mockBuffer) FirstVisibleLine() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.firstVisibleLine
}

func (b *mockBuffer) TreeSnapshot(row, col int) (*syntax.Tree, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.treeCalls++
	if b.treeErr != nil {
		return nil, b.treeErr
	}
	return b.tree, nil
}

func (b *mockBuffer) HighlightCaptures(ranges []types.Range) ([]types.Capture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.captures, nil
}

func (b *mockBuffer) ShowContext(lines []string, gutterLabels []int, spans []types.HighlightSpan, changed []int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.showCalls++
	b.lastShown.lines = lines
	b.lastShown.gutterLabels = gutterLabels
	b.lastShown.spans = spans
	b.lastShown.changed = changed
	return nil
}

func (b *mockBuffer) CloseContext() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeCalls++
	return nil
}

func (b *mockBuffer) counts() (syncs, trees, shows, closes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.syncCalls, b.treeCalls, b.showCalls, b.closeCalls
}
