package header

import (
	"strings"

	"contextwin/pattern"
	"contextwin/syntax"
	"contextwin/types"
)

// DisplayLine is the single-line reduction of one context node. Range
// describes, in original source coordinates, exactly the text that was
// captured and merged; Indents and LineLens record, per captured source
// line, the stripped indentation and the captured length the Remapper
// needs to project highlight columns into Text.
type DisplayLine struct {
	Text     string
	Range    types.Range
	Indents  []int
	LineLens []int
}

// lastTypes maps a type key to the per-language descendant type that
// marks where a multi-line header stops, e.g. the closing of a parameter
// list in a wrapped function signature.
var lastTypes = map[string]map[string]string{
	"function": {
		"python":     "parameters",
		"lua":        "parameters",
		"go":         "parameter_list",
		"javascript": "formal_parameters",
		"typescript": "formal_parameters",
		"rust":       "parameters",
		"c":          "parameter_list",
		"cpp":        "parameter_list",
	},
	"method": {
		"python":     "parameters",
		"lua":        "parameters",
		"javascript": "formal_parameters",
		"typescript": "formal_parameters",
		"rust":       "parameters",
	},
	"class": {
		"python":     "argument_list",
		"javascript": "class_heritage",
		"typescript": "class_heritage",
	},
}

// skipTypes maps a type key to the per-language leading child type that
// precedes the construct proper, e.g. a decorator list above a Python
// function.
var skipTypes = map[string]map[string]string{
	"function": {"python": "decorator"},
	"method":   {"python": "decorator"},
	"class": {
		"python": "decorator",
		"rust":   "attribute_item",
	},
}

// Reducer converts context nodes into display lines.
type Reducer struct {
	matcher *pattern.Matcher
	cfg     types.ContextConfig
}

// NewReducer builds a Reducer; cfg.LastTypes and cfg.SkipTypes override
// the built-in tables per (type key, language) pair.
func NewReducer(m *pattern.Matcher, cfg types.ContextConfig) *Reducer {
	return &Reducer{matcher: m, cfg: cfg}
}

// Reduce captures the node's source span from lines and merges it into a
// single display line per the truncation rules for the node's type key.
// An empty node span yields an empty DisplayLine, never an error.
func (r *Reducer) Reduce(lines []string, node syntax.Node, language string) DisplayLine {
	typeKey := r.matcher.DefaultKey(node.Type())

	// A configured leading child (decorator, attribute list) is skipped:
	// when the node opens with one, the first named child of a different
	// type supplies the boundary instead.
	boundary := node
	if skip := r.lookup(skipTypes, r.cfg.SkipTypes, typeKey, language); skip != "" {
		if children := node.NamedChildren(); len(children) > 0 && children[0].Type() == skip {
			for _, child := range children {
				if child.Type() != skip {
					boundary = child
					break
				}
			}
		}
	}

	startRow := boundary.Start().Row
	startCol := boundary.Start().Col
	endRow := boundary.End().Row
	if startRow >= len(lines) {
		return DisplayLine{Range: types.Range{StartRow: startRow, EndRow: startRow}}
	}
	if endRow >= len(lines) {
		endRow = len(lines) - 1
	}

	captured := make([]string, 0, endRow-startRow+1)
	for row := startRow; row <= endRow; row++ {
		captured = append(captured, lines[row])
	}
	if startCol != 0 {
		// Preserve leading siblings that share the construct's first
		// line, then treat the line as starting at column 0.
		captured[0] = lines[startRow]
		startCol = 0
	}

	// Pick the end boundary: up to a terminal descendant when one is
	// configured and present, otherwise just the first captured line.
	boundRow := startRow
	boundCol := len(captured[0])
	if last := r.lookup(lastTypes, r.cfg.LastTypes, typeKey, language); last != "" {
		if term, found := findDescendant(boundary, last); found {
			end := term.End()
			if end.Row >= startRow && end.Row <= endRow {
				boundRow = end.Row
				boundCol = end.Col
			}
		}
	}
	captured = captured[:boundRow-startRow+1]
	lastIdx := len(captured) - 1
	if boundCol > len(captured[lastIdx]) {
		boundCol = len(captured[lastIdx])
	}
	captured[lastIdx] = captured[lastIdx][:boundCol]

	indents := make([]int, len(captured))
	lineLens := make([]int, len(captured))
	for i, line := range captured {
		if i > 0 {
			indents[i] = countIndent(line)
		}
		lineLens[i] = len(line)
	}

	var merged strings.Builder
	merged.WriteString(captured[0])
	for i := 1; i < len(captured); i++ {
		merged.WriteByte(' ')
		merged.WriteString(captured[i][indents[i]:])
	}

	return DisplayLine{
		Text: merged.String(),
		Range: types.Range{
			StartRow: startRow,
			StartCol: startCol,
			EndRow:   boundRow,
			EndCol:   boundCol,
		},
		Indents:  indents,
		LineLens: lineLens,
	}
}

func (r *Reducer) lookup(builtin, override map[string]map[string]string, typeKey, language string) string {
	if byLang, ok := override[typeKey]; ok {
		if t, ok := byLang[language]; ok {
			return t
		}
	}
	if byLang, ok := builtin[typeKey]; ok {
		return byLang[language]
	}
	return ""
}

// findDescendant searches node's subtree for the first descendant of the
// given type, visiting all children of a node before any deeper level.
func findDescendant(node syntax.Node, typeName string) (syntax.Node, bool) {
	queue := node.NamedChildren()
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next.Type() == typeName {
			return next, true
		}
		queue = append(queue, next.NamedChildren()...)
	}
	return syntax.Node{}, false
}

func countIndent(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}
	return len(line)
}
