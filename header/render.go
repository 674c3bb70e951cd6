package header

import (
	"contextwin/types"
)

// Frame is one fully computed context header: the stack, the reduced
// display lines, and their remapped highlight spans.
type Frame struct {
	Entries []Entry
	Lines   []DisplayLine
	Spans   []types.HighlightSpan
}

// Publish is what a changed frame hands to the renderer.
type Publish struct {
	Lines []string
	// GutterLabels holds the 1-based source line number of each entry,
	// parallel to Lines.
	GutterLabels []int
	Spans        []types.HighlightSpan
	// ChangedLines lists the display rows that must repaint: rows whose
	// text or gutter label differ from what was previously rendered at
	// the same position. It covers every index when the line count
	// changed.
	ChangedLines []int
}

// RenderState is the previous cycle's snapshot. The zero value means
// "nothing rendered"; reset to it on close or disable.
type RenderState struct {
	entries []entryKey
	lines   []string
}

// entryKey captures the identity of a stack entry for change detection.
// Node handles are rebuilt every cycle, so entries compare by content.
type entryKey struct {
	startRow int
	typeName string
	ruleKey  string
}

// Rendered reports whether a header is currently displayed.
func (s RenderState) Rendered() bool { return len(s.lines) > 0 }

// Diff compares a freshly computed frame against the previous state. A
// nil Publish means structure and text are both unchanged and the cycle
// is a no-op. Otherwise the returned RenderState replaces the previous
// one wholesale.
func Diff(prev RenderState, frame Frame) (RenderState, *Publish) {
	keys := make([]entryKey, len(frame.Entries))
	for i, e := range frame.Entries {
		keys[i] = entryKey{startRow: e.StartRow, typeName: e.Node.Type(), ruleKey: e.Rule.Key}
	}
	lines := make([]string, len(frame.Lines))
	for i, dl := range frame.Lines {
		lines[i] = dl.Text
	}

	if sameEntries(prev.entries, keys) && sameLines(prev.lines, lines) {
		return prev, nil
	}

	pub := &Publish{
		Lines:        lines,
		GutterLabels: make([]int, len(frame.Entries)),
		Spans:        frame.Spans,
		ChangedLines: changedLines(prev, keys, lines),
	}
	for i, e := range frame.Entries {
		pub.GutterLabels[i] = e.StartRow + 1
	}

	return RenderState{entries: keys, lines: lines}, pub
}

func sameEntries(prev, next []entryKey) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if prev[i] != next[i] {
			return false
		}
	}
	return true
}

func sameLines(prev, next []string) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if prev[i] != next[i] {
			return false
		}
	}
	return true
}

// changedLines returns the rows whose rendered content moved: the
// comparison is strictly positional, so a line whose text merely shifted
// to another row still repaints at both its old and new positions. A row
// also repaints when only its gutter label changed. When counts differ
// every index is reported, since the whole surface resizes.
func changedLines(prev RenderState, keys []entryKey, lines []string) []int {
	if len(prev.lines) != len(lines) {
		all := make([]int, len(lines))
		for i := range lines {
			all[i] = i
		}
		return all
	}

	var changed []int
	for i := range lines {
		if lines[i] != prev.lines[i] || keys[i].startRow != prev.entries[i].startRow {
			changed = append(changed, i)
		}
	}
	return changed
}
