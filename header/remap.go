package header

import (
	"contextwin/types"
)

// RemapCaptures projects highlight captures, computed against the
// original multi-line source, into the merged single-line coordinates of
// dl. lineIdx is the display line the resulting spans belong to.
//
// Captures are assumed ordered by start position, as the highlight query
// yields them. Captures starting above the captured span belong to a
// preceding sibling and are skipped; the first capture ending past the
// truncation boundary stops the scan, since everything after it lies
// farther out. A span is never clipped: it is either fully inside the
// boundary or dropped.
//
// For a capture on captured line k (0-based, relative to the span's
// start row) the merged column offset is k joining spaces plus the
// stripped width of every preceding line, minus line k's own stripped
// indentation. A capture on line 0 keeps its column unchanged.
func RemapCaptures(dl DisplayLine, captures []types.Capture, lineIdx int) []types.HighlightSpan {
	if dl.Text == "" && len(dl.LineLens) == 0 {
		return nil
	}

	startRow := dl.Range.StartRow
	boundRow := dl.Range.EndRow
	boundCol := dl.Range.EndCol

	var spans []types.HighlightSpan
	for _, c := range captures {
		if c.StartRow < startRow {
			continue
		}
		if c.EndRow > boundRow || (c.EndRow == boundRow && c.EndCol > boundCol) {
			break
		}

		k := c.StartRow - startRow
		if k >= len(dl.LineLens) {
			break
		}

		offset := k
		for j := 0; j < k; j++ {
			offset += dl.LineLens[j] - dl.Indents[j]
		}
		offset -= dl.Indents[k]

		span := types.HighlightSpan{
			Line:     lineIdx,
			StartCol: c.StartCol + offset,
			EndCol:   c.EndCol + offset,
			Group:    c.Group,
		}
		if c.EndRow > c.StartRow {
			// Multi-row captures would need per-row splitting; the end
			// column is measured on the end row, so project it there.
			endOffset := span.StartCol - c.StartCol
			endK := c.EndRow - startRow
			if endK < len(dl.LineLens) {
				endOffset = endK
				for j := 0; j < endK; j++ {
					endOffset += dl.LineLens[j] - dl.Indents[j]
				}
				endOffset -= dl.Indents[endK]
			}
			span.EndCol = c.EndCol + endOffset
		}
		if span.StartCol < 0 || span.EndCol > len(dl.Text) || span.StartCol >= span.EndCol {
			continue
		}
		spans = append(spans, span)
	}
	return spans
}
