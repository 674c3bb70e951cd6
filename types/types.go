package types

// Position is a location in the source buffer. Rows and columns are
// 0-indexed, matching treesitter node coordinates. Neovim's 1-indexed
// line numbers are converted at the buffer boundary.
type Position struct {
	Row int
	Col int
}

// Range is a span in source coordinates. The end column is exclusive.
type Range struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// Contains reports whether pos lies within the range.
func (r Range) Contains(pos Position) bool {
	if pos.Row < r.StartRow || pos.Row > r.EndRow {
		return false
	}
	if pos.Row == r.StartRow && pos.Col < r.StartCol {
		return false
	}
	if pos.Row == r.EndRow && pos.Col >= r.EndCol {
		return false
	}
	return true
}

// Capture is one highlight query result in absolute source coordinates,
// drawn from the same query Neovim uses for normal buffer rendering.
type Capture struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
	Group    string
}

// HighlightSpan is a capture remapped into merged display-line space.
type HighlightSpan struct {
	Line     int // display line index, 0-based
	StartCol int
	EndCol   int
	Group    string
}

// ContextConfig carries the user-tunable knobs for context computation.
type ContextConfig struct {
	// MaxLines caps the number of context entries. 0 means unbounded.
	MaxLines int
	// Patterns maps a language to additional node type patterns that
	// augment (never replace) the default pattern set.
	Patterns map[string][]string
	// ExactPatterns marks languages whose patterns require exact
	// type-name equality instead of whole-word matching.
	ExactPatterns map[string]bool
	// LastTypes maps a type key to per-language terminal descendant
	// types, merged over the built-in table.
	LastTypes map[string]map[string]string
	// SkipTypes maps a type key to per-language leading child types to
	// skip, merged over the built-in table.
	SkipTypes map[string]map[string]string
}
