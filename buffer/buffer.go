package buffer

import (
	"fmt"
	"strings"

	"github.com/neovim/go-client/nvim"
	"github.com/sergi/go-diff/diffmatchpatch"

	"contextwin/logger"
	"contextwin/syntax"
	"contextwin/types"
)

type Config struct {
	NsID int
}

// NvimBuffer mirrors the editor state one recompute cycle needs: the
// buffer text, cursor, viewport and window geometry, refreshed with a
// single batched round trip per cycle.
type NvimBuffer struct {
	client *nvim.Nvim // stored internally, set via SetClient

	lines            []string
	row              int // 1-indexed
	col              int // 0-indexed
	path             string
	language         string // filetype, the pattern-set key
	firstVisibleLine int    // 1-indexed line('w0')
	winWidth         int
	winHeight        int
	gutterWidth      int // textoff: number columns + sign/fold columns
	id               nvim.Buffer

	config Config
}

func New(config Config) *NvimBuffer {
	return &NvimBuffer{
		lines:  []string{},
		row:    1,
		col:    0,
		config: config,
	}
}

// SetClient stores the nvim client for all buffer operations
func (b *NvimBuffer) SetClient(n *nvim.Nvim) {
	b.client = n
}

// Accessor methods implementing engine.Buffer interface

func (b *NvimBuffer) Lines() []string { return b.lines }

func (b *NvimBuffer) Row() int { return b.row }

func (b *NvimBuffer) Col() int { return b.col }

func (b *NvimBuffer) Path() string { return b.path }

func (b *NvimBuffer) Language() string { return b.language }

func (b *NvimBuffer) FirstVisibleLine() int { return b.firstVisibleLine }

func (b *NvimBuffer) WinWidth() int { return b.winWidth }

func (b *NvimBuffer) WinHeight() int { return b.winHeight }

func (b *NvimBuffer) GutterWidth() int { return b.gutterWidth }

// SyncResult reports whether Sync landed in a different buffer and
// whether the text changed since the previous sync.
type SyncResult struct {
	BufferChanged bool
	TextChanged   bool
	OldPath       string
	NewPath       string
}

// Sync reads current state from the editor in one batch round trip.
func (b *NvimBuffer) Sync() (*SyncResult, error) {
	defer logger.Trace("buffer.Sync")()
	if b.client == nil {
		return nil, fmt.Errorf("nvim client not set")
	}

	batch := b.client.NewBatch()

	var currentBuf nvim.Buffer
	var path string
	var lines [][]byte
	var cursor [2]int
	var language string
	var view [4]int

	batch.CurrentBuffer(&currentBuf)
	batch.BufferName(nvim.Buffer(0), &path)
	batch.BufferLines(nvim.Buffer(0), 0, -1, false, &lines)
	batch.WindowCursor(nvim.Window(0), &cursor)
	batch.ExecLua(`return vim.bo.filetype`, &language, nil)

	// First visible line, window geometry and gutter width together.
	batch.ExecLua(`
		local info = vim.fn.getwininfo(vim.api.nvim_get_current_win())[1]
		return {vim.fn.line("w0"), info.width, info.height, info.textoff}
	`, &view, nil)

	if err := batch.Execute(); err != nil {
		logger.Error("error executing sync batch: %v", err)
		return nil, err
	}

	linesStr := make([]string, len(lines))
	for i, line := range lines {
		linesStr[i] = string(line)
	}

	oldPath := b.path
	oldLines := b.lines

	b.lines = linesStr
	b.row = cursor[0]
	b.col = cursor[1]
	b.path = path
	b.language = language
	b.firstVisibleLine = view[0]
	b.winWidth = view[1]
	b.winHeight = view[2]
	b.gutterWidth = view[3]

	res := &SyncResult{
		TextChanged: linesChanged(oldLines, linesStr),
		OldPath:     oldPath,
		NewPath:     path,
	}
	if b.id != currentBuf {
		b.id = currentBuf
		res.BufferChanged = true
	}
	return res, nil
}

// linesChanged reports whether the buffer text differs from the previous
// sync's snapshot.
func linesChanged(prev, next []string) bool {
	if len(prev) != len(next) {
		return true
	}
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(strings.Join(prev, "\n"), strings.Join(next, "\n"))
	for _, d := range dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray) {
		if d.Type != diffmatchpatch.DiffEqual {
			return true
		}
	}
	return false
}

// TreeSnapshot fetches the syntax nodes around the cursor from Neovim's
// treesitter and rebuilds them as an arena-backed Tree. Returns
// (nil, nil) when no parser is attached to the buffer, which callers
// must treat as "nothing to display".
func (b *NvimBuffer) TreeSnapshot(row, col int) (*syntax.Tree, error) {
	defer logger.Trace("buffer.TreeSnapshot")()
	if b.client == nil {
		return nil, fmt.Errorf("nvim client not set")
	}

	var payload []map[string]any
	batch := b.client.NewBatch()
	batch.ExecLua(
		`return require('contextwin.treesitter').snapshot(...)`,
		&payload, int(b.id), row, col,
	)
	if err := batch.Execute(); err != nil {
		return nil, fmt.Errorf("treesitter snapshot: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil // no parser for this buffer
	}

	raw := make([]syntax.RawNode, len(payload))
	for i, m := range payload {
		raw[i] = syntax.RawNode{
			Type:     getString(m, "type"),
			StartRow: getNumber(m, "start_row"),
			StartCol: getNumber(m, "start_col"),
			EndRow:   getNumber(m, "end_row"),
			EndCol:   getNumber(m, "end_col"),
			Parent:   getNumber(m, "parent"),
			Children: getNumbers(m, "children"),
		}
	}

	tree, err := syntax.NewTree(raw)
	if err != nil {
		return nil, fmt.Errorf("treesitter snapshot: %w", err)
	}
	return tree, nil
}

// HighlightCaptures returns the buffer's highlight query captures for
// the given source ranges, ordered by start position. The captures come
// from the exact query Neovim renders the buffer with, so groups match
// the user's colorscheme.
func (b *NvimBuffer) HighlightCaptures(ranges []types.Range) ([]types.Capture, error) {
	defer logger.Trace("buffer.HighlightCaptures")()
	if b.client == nil {
		return nil, fmt.Errorf("nvim client not set")
	}
	if len(ranges) == 0 {
		return nil, nil
	}

	luaRanges := make([]map[string]any, len(ranges))
	for i, r := range ranges {
		luaRanges[i] = map[string]any{
			"start_row": r.StartRow,
			"start_col": r.StartCol,
			"end_row":   r.EndRow,
			"end_col":   r.EndCol,
		}
	}

	var payload []map[string]any
	batch := b.client.NewBatch()
	batch.ExecLua(
		`return require('contextwin.treesitter').captures(...)`,
		&payload, int(b.id), luaRanges,
	)
	if err := batch.Execute(); err != nil {
		return nil, fmt.Errorf("highlight captures: %w", err)
	}

	captures := make([]types.Capture, len(payload))
	for i, m := range payload {
		captures[i] = types.Capture{
			StartRow: getNumber(m, "start_row"),
			StartCol: getNumber(m, "start_col"),
			EndRow:   getNumber(m, "end_row"),
			EndCol:   getNumber(m, "end_col"),
			Group:    getString(m, "group"),
		}
	}
	return captures, nil
}

// ShowContext hands a computed header to the Lua renderer.
func (b *NvimBuffer) ShowContext(lines []string, gutterLabels []int, spans []types.HighlightSpan, changed []int) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}

	luaSpans := make([]map[string]any, len(spans))
	for i, s := range spans {
		luaSpans[i] = map[string]any{
			"line":      s.Line,
			"col_start": s.StartCol,
			"col_end":   s.EndCol,
			"group":     s.Group,
		}
	}

	payload := map[string]any{
		"lines":         lines,
		"gutter_labels": gutterLabels,
		"spans":         luaSpans,
		"changed_lines": changed,
		"win_width":     b.winWidth,
		"gutter_width":  b.gutterWidth,
	}

	logger.Debug("sending to lua on_context_ready: %d lines, %d spans, %d changed",
		len(lines), len(spans), len(changed))
	b.executeLuaFunction("require('contextwin').on_context_ready(...)", payload)
	return nil
}

// CloseContext tells the Lua side to take the header down.
func (b *NvimBuffer) CloseContext() error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	logger.Debug("sending to lua on_context_close")
	b.executeLuaFunction("require('contextwin').on_context_close()")
	return nil
}

// RegisterEventHandler registers a handler for nvim RPC events
func (b *NvimBuffer) RegisterEventHandler(handler func(event string)) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	return b.client.RegisterHandler("contextwin_event", func(_ *nvim.Nvim, event string) {
		handler(event)
	})
}

// Internal helper methods

func (b *NvimBuffer) executeLuaFunction(luaCode string, args ...any) {
	if b.client == nil {
		return
	}
	batch := b.client.NewBatch()
	if len(args) > 0 {
		batch.ExecLua(luaCode, nil, args...)
	} else {
		batch.ExecLua(luaCode, nil, nil)
	}
	if err := batch.Execute(); err != nil {
		logger.Error("error executing lua function: %v", err)
	}
}

// Helper function to safely get string from map
func getString(m map[string]any, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// Helper function to safely get number from map, handling both int and float64
func getNumber(m map[string]any, key string) int {
	switch val := m[key].(type) {
	case int:
		return val
	case int32:
		return int(val)
	case int64:
		return int(val)
	case float64:
		return int(val)
	}
	return -1
}

func getNumbers(m map[string]any, key string) []int {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case int:
			out = append(out, n)
		case int32:
			out = append(out, int(n))
		case int64:
			out = append(out, int(n))
		case float64:
			out = append(out, int(n))
		}
	}
	return out
}
