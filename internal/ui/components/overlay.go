package components

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// SpliceOverlay replaces a rectangular region of a rendered view with
// overlay lines placed at (x, y) in screen coordinates. Truncation is
// ANSI-aware, so styling on either side of the overlay survives.
func SpliceOverlay(view string, overlay []string, x, y int) string {
	if len(overlay) == 0 {
		return view
	}
	x = max(x, 0)

	viewLines := strings.Split(view, "\n")
	overlayWidth := ansi.StringWidth(overlay[0])

	for i, line := range overlay {
		row := y + i
		if row < 0 || row >= len(viewLines) {
			continue
		}

		base := viewLines[row]
		baseWidth := ansi.StringWidth(base)

		var b strings.Builder
		if x > 0 {
			prefix := ansi.Truncate(base, x, "")
			b.WriteString(prefix)
			// Short lines are padded so the overlay lands at x.
			if w := ansi.StringWidth(prefix); w < x {
				b.WriteString(strings.Repeat(" ", x-w))
			}
		}
		b.WriteString("\x1b[0m")
		b.WriteString(line)
		b.WriteString("\x1b[0m")

		if end := x + overlayWidth; end < baseWidth {
			b.WriteString(ansi.TruncateLeft(base, end, ""))
		}

		viewLines[row] = b.String()
	}

	return strings.Join(viewLines, "\n")
}

// PlaceWithin shifts an overlay anchored at (x, y) so a w×h box stays inside
// a screen of the given size.
func PlaceWithin(x, y, w, h, screenW, screenH int) (int, int) {
	if x+w > screenW {
		x = screenW - w
	}
	if y+h > screenH {
		y = screenH - h
	}
	return max(x, 0), max(y, 0)
}
