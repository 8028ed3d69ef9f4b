package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"
)

// canvasCell is a single rendering grid cell.
type canvasCell struct {
	char  rune
	style lipgloss.Style
}

// renderCanvas draws the current embedding as a scatter plot scaled to
// fill the given grid, adapted from the teacher's vector-browser canvas
// (same grid/bounds/marker approach, re-pointed at manifold.Embedding
// coordinates instead of projection.Point2D).
func (m Model) renderCanvas(width, height int) string {
	grid := make([][]canvasCell, height)
	for r := range grid {
		grid[r] = make([]canvasCell, width)
		for c := range grid[r] {
			grid[r][c] = canvasCell{char: ' '}
		}
	}

	n := m.numPoints()
	if n == 0 {
		msg := "waiting for first iteration..."
		row := height / 2
		start := (width - len(msg)) / 2
		if start < 0 {
			start = 0
		}
		for i, ch := range msg {
			if start+i < width {
				grid[row][start+i] = canvasCell{char: ch}
			}
		}
		return gridToString(grid)
	}

	return overlayAt(m.renderScatter(grid, width, height), progressBadge(m.iteration, m.nIter), width-10, 0)
}

func (m Model) renderScatter(grid [][]canvasCell, width, height int) string {
	n := m.numPoints()
	minX, maxX, minY, maxY := m.bounds()
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	padding := 2
	plotWidth := width - 2*padding
	plotHeight := height - 2*padding

	neighborIdx := map[int]bool{}
	if m.selectedIndex >= 0 && m.selectedIndex < n {
		for _, nb := range m.nearestNeighbors(m.selectedIndex, 5) {
			neighborIdx[nb.index] = true
		}
	}

	normalStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	neighborStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	for i := 0; i < n; i++ {
		if m.focusMode && m.selectedIndex >= 0 && i != m.selectedIndex && !neighborIdx[i] {
			continue
		}

		x, y := m.point2D(i)
		col := padding + int((x-minX)/rangeX*float64(plotWidth-1))
		row := padding + int((y-minY)/rangeY*float64(plotHeight-1))
		if col < 0 {
			col = 0
		}
		if col >= width {
			col = width - 1
		}
		if row < 0 {
			row = 0
		}
		if row >= height {
			row = height - 1
		}

		marker := '○'
		style := normalStyle
		switch {
		case i == m.selectedIndex:
			marker = '*'
			style = selectedStyle
		case neighborIdx[i]:
			marker = '◆'
			style = neighborStyle
		}
		grid[row][col] = canvasCell{char: marker, style: style}
	}

	return gridToString(grid)
}

// point2D returns point i's plot coordinates; 1-D embeddings (spec.md
// §6's output_dim=1 case) plot row index on X so the layout still works.
func (m Model) point2D(i int) (x, y float64) {
	if m.dim >= 2 {
		return m.y[i*m.dim], m.y[i*m.dim+1]
	}
	return float64(i), m.y[i*m.dim]
}

func (m Model) bounds() (minX, maxX, minY, maxY float64) {
	minX, minY = m.point2D(0)
	maxX, maxY = minX, minY
	n := m.numPoints()
	for i := 0; i < n; i++ {
		x, y := m.point2D(i)
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return
}

func gridToString(grid [][]canvasCell) string {
	var b strings.Builder
	for r, row := range grid {
		for _, cell := range row {
			b.WriteString(cell.style.Render(string(cell.char)))
		}
		if r < len(grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// progressBadge renders the "iter/nIter" corner badge renderCanvas
// composites over the scatter plot via overlayAt.
func progressBadge(iteration, nIter int) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if nIter > 0 {
		return style.Render(fmt.Sprintf(" %d/%d ", iteration, nIter))
	}
	return style.Render(fmt.Sprintf(" %d ", iteration))
}

// overlayAt composites overlay onto base at (x, y), width-aware via
// x/ansi and muesli/reflow so multi-byte glyphs and ANSI styling don't
// throw off column math — kept from the teacher's metadata-panel
// overlay compositor, re-pointed at the scatter canvas's corner
// progress badge instead of the original metadata panel.
func overlayAt(base, overlay string, x, y int) string {
	bgLines, bgWidth := getLines(base)
	fgLines, fgWidth := getLines(overlay)
	bgHeight := len(bgLines)
	fgHeight := len(fgLines)

	if fgWidth >= bgWidth && fgHeight >= bgHeight {
		return overlay
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > bgWidth-fgWidth {
		x = bgWidth - fgWidth
	}
	if y > bgHeight-fgHeight {
		y = bgHeight - fgHeight
	}

	var b strings.Builder
	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i < y || i >= y+fgHeight {
			b.WriteString(bgLine)
			continue
		}

		pos := 0
		if x > 0 {
			left := truncate.String(bgLine, uint(x))
			pos = ansi.StringWidth(left)
			b.WriteString(left)
			if pos < x {
				b.WriteString(strings.Repeat(" ", x-pos))
				pos = x
			}
		}

		fgLine := fgLines[i-y]
		b.WriteString(fgLine)
		pos += ansi.StringWidth(fgLine)

		right := ansi.TruncateLeft(bgLine, pos, "")
		lineWidth := ansi.StringWidth(bgLine)
		rightWidth := ansi.StringWidth(right)
		if rightWidth <= lineWidth-pos {
			b.WriteString(strings.Repeat(" ", lineWidth-rightWidth-pos))
		}
		b.WriteString(right)
	}

	return b.String()
}

func getLines(s string) ([]string, int) {
	lines := strings.Split(s, "\n")
	widest := 0
	for _, l := range lines {
		w := ansi.StringWidth(l)
		if widest < w {
			widest = w
		}
	}
	return lines, widest
}
