// Package header computes the sticky context header: the ordered stack of
// enclosing constructs above the viewport, each reduced to a single
// display line with its highlight captures remapped into merged-line
// coordinates.
package header

import (
	"contextwin/pattern"
	"contextwin/syntax"
	"contextwin/types"
)

// Entry is one enclosing construct in the computed context stack.
type Entry struct {
	Node     syntax.Node
	Rule     pattern.Rule
	StartRow int // 0-based source row where the construct starts
}

// BuildStack walks from the node at the cursor outward through its
// ancestors and collects the qualifying constructs, outermost first.
//
// A node qualifies when its type matches the pattern set for language,
// it does not start on the file's first line, and it starts strictly
// above the first visible line (firstVisibleLine is Neovim's 1-based
// line('w0'); node rows are 0-based, hence the -1). When two qualifying
// nodes start on the same row only the outermost survives. maxLines > 0
// caps the stack; the walk stops once the cap is reached, so the
// innermost qualifying ancestors win.
//
// An empty result means "no header to show" and is not an error.
func BuildStack(tree *syntax.Tree, cursor types.Position, firstVisibleLine int, language string, m *pattern.Matcher, maxLines int) []Entry {
	if tree == nil {
		return nil
	}
	node, ok := tree.NodeAt(cursor)
	if !ok {
		return nil
	}

	// Accumulated innermost-to-outermost; reversed before returning.
	var acc []Entry
	for node.IsValid() {
		row := node.Start().Row
		if rule, matched := m.Match(node.Type(), language); matched &&
			row > 0 && row < firstVisibleLine-1 {
			if len(acc) > 0 && acc[len(acc)-1].StartRow == row {
				// Same start row: the current node encloses the
				// previously accepted one, keep the outer. Replacement
				// never grows the stack, so it applies even once the
				// cap is reached.
				acc[len(acc)-1] = Entry{Node: node, Rule: rule, StartRow: row}
			} else if maxLines > 0 && len(acc) >= maxLines {
				// Start rows only decrease outward, so no later
				// ancestor can collapse into an accepted entry.
				break
			} else {
				acc = append(acc, Entry{Node: node, Rule: rule, StartRow: row})
			}
		}

		parent, hasParent := node.Parent()
		if !hasParent {
			break
		}
		node = parent
	}

	for i, j := 0, len(acc)-1; i < j; i, j = i+1, j-1 {
		acc[i], acc[j] = acc[j], acc[i]
	}
	return acc
}
