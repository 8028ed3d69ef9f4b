// Package tui renders a live scatter plot of an in-progress t-SNE
// optimization, redrawing as the optimizer dispatches its Observer.
package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/datviz/fastTSNE/manifold"
	"github.com/datviz/fastTSNE/optimize"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the bubbletea model for the live embedding view.
type Model struct {
	width, height int
	version       string

	labels []string
	nIter  int

	iteration int
	kl        float64
	y         []float64
	dim       int

	finalEmbedding *manifold.Embedding
	err            error
	done           bool

	selectedIndex int
	showMetadata  bool
	focusMode     bool
}

// snapshotMsg carries one Observer dispatch's embedding state into the
// bubbletea event loop.
type snapshotMsg struct {
	iteration int
	kl        float64
	y         []float64
	dim       int
}

// doneMsg is sent once the optimization goroutine returns.
type doneMsg struct {
	embedding *manifold.Embedding
	err       error
}

// NewModel creates the live view. labels is indexed in row order and may
// be shorter than the dataset (rows beyond it render unlabeled). The
// caller drives updates by running tsne.Fit/Transform in a goroutine
// with a LiveObserver wrapping this model's Program, then sending a
// NewDoneMsg when it returns.
func NewModel(labels []string, nIter int, version string) Model {
	return Model{
		width:         80,
		height:        24,
		version:       version,
		labels:        labels,
		nIter:         nIter,
		selectedIndex: -1,
		showMetadata:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch message := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(message)

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		return m, nil

	case snapshotMsg:
		m.iteration = message.iteration
		m.kl = message.kl
		m.y = message.y
		m.dim = message.dim
		return m, nil

	case doneMsg:
		m.done = true
		m.finalEmbedding = message.embedding
		m.err = message.err
		if message.embedding != nil {
			m.y = message.embedding.Y
			m.dim = message.embedding.D
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit

	case "tab", "down":
		m.selectNext()

	case "shift+tab", "up":
		m.selectPrevious()

	case "/":
		m.showMetadata = !m.showMetadata

	case "f":
		m.focusMode = !m.focusMode
	}

	return m, nil
}

func (m *Model) numPoints() int {
	if m.dim == 0 {
		return 0
	}
	return len(m.y) / m.dim
}

func (m *Model) selectNext() {
	n := m.numPoints()
	if n == 0 {
		return
	}
	m.selectedIndex = (m.selectedIndex + 1) % n
}

func (m *Model) selectPrevious() {
	n := m.numPoints()
	if n == 0 {
		return
	}
	m.selectedIndex--
	if m.selectedIndex < 0 {
		m.selectedIndex = n - 1
	}
}

func (m Model) labelAt(i int) string {
	if i < len(m.labels) {
		return m.labels[i]
	}
	return fmt.Sprintf("#%d", i)
}

func (m Model) View() string {
	marginSize := 1
	totalWidth := m.width - marginSize*2

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	canvasBorderStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	metadataBorderStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)

	var out strings.Builder
	out.WriteString(titleStyle.Render("fastTSNE"))
	out.WriteString("  ")
	out.WriteString(helpStyle.Render(m.statusLine()))
	out.WriteString("\n")

	canvasHeight := m.height - 6
	if canvasHeight < 10 {
		canvasHeight = 10
	}

	showPanel := m.showMetadata && m.selectedIndex >= 0 && m.selectedIndex < m.numPoints()
	if showPanel {
		panelOuterWidth := 26
		panelInnerWidth := panelOuterWidth - 4
		canvasInnerWidth := totalWidth - panelOuterWidth - 1 - 2

		canvasContent := m.renderCanvas(canvasInnerWidth, canvasHeight)
		metadataContent := m.renderMetadata(panelInnerWidth, canvasHeight-1)

		left := canvasBorderStyle.Width(canvasInnerWidth).Render(canvasContent)
		right := metadataBorderStyle.Width(panelInnerWidth).Height(canvasHeight - 1).Render(metadataContent)
		out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	} else {
		canvasInnerWidth := totalWidth - 4
		canvasContent := m.renderCanvas(canvasInnerWidth, canvasHeight)
		out.WriteString(canvasBorderStyle.Width(canvasInnerWidth).Render(canvasContent))
	}
	out.WriteString("\n")

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		out.WriteString(errStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	help := "Up/Down: select | /: info | F: focus | Esc: quit"
	padding := totalWidth - len(help) - len(m.version)
	if padding < 1 {
		padding = 1
	}
	out.WriteString(helpStyle.Render(help + strings.Repeat(" ", padding) + m.version))

	return lipgloss.NewStyle().Padding(1, marginSize).Render(out.String())
}

func (m Model) statusLine() string {
	if m.done {
		if m.err != nil {
			return "failed"
		}
		return fmt.Sprintf("done · %d iters · KL %.4f", m.iteration, m.kl)
	}
	if m.nIter > 0 {
		return fmt.Sprintf("iter %d/%d · KL %.4f", m.iteration, m.nIter, m.kl)
	}
	return fmt.Sprintf("iter %d · KL %.4f", m.iteration, m.kl)
}

// neighbor mirrors the teacher's metadata-panel "nearest" list, just
// scored by embedded-space Euclidean distance instead of cosine
// similarity over the high-dimensional vector.
type neighbor struct {
	index int
	dist  float64
}

func (m Model) nearestNeighbors(index, k int) []neighbor {
	n := m.numPoints()
	if index < 0 || index >= n || m.dim == 0 {
		return nil
	}
	p := m.y[index*m.dim : (index+1)*m.dim]
	var list []neighbor
	for i := 0; i < n; i++ {
		if i == index {
			continue
		}
		q := m.y[i*m.dim : (i+1)*m.dim]
		var sum float64
		for d := 0; d < m.dim; d++ {
			diff := p[d] - q[d]
			sum += diff * diff
		}
		list = append(list, neighbor{index: i, dist: math.Sqrt(sum)})
	}
	sort.Slice(list, func(a, b int) bool { return list[a].dist < list[b].dist })
	if len(list) > k {
		list = list[:k]
	}
	return list
}

func (m Model) renderMetadata(panelWidth, panelHeight int) string {
	if m.selectedIndex < 0 || m.selectedIndex >= m.numPoints() {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))

	var lines []string
	lines = append(lines, headerStyle.Render("Selected"))
	lines = append(lines, valueStyle.Render(truncateString(m.labelAt(m.selectedIndex), panelWidth)))
	lines = append(lines, "")

	row := m.y[m.selectedIndex*m.dim : (m.selectedIndex+1)*m.dim]
	coords := make([]string, len(row))
	for i, v := range row {
		coords[i] = fmt.Sprintf("%.3f", v)
	}
	lines = append(lines, labelStyle.Render("Y: ")+valueStyle.Render(strings.Join(coords, ", ")))
	lines = append(lines, "")

	nearest := m.nearestNeighbors(m.selectedIndex, 5)
	if len(nearest) > 0 {
		lines = append(lines, headerStyle.Render("Nearest"))
		for _, nb := range nearest {
			lines = append(lines, fmt.Sprintf("%.3f %s", nb.dist, truncateString(m.labelAt(nb.index), panelWidth-7)))
		}
	}

	for len(lines) < panelHeight {
		lines = append(lines, "")
	}
	if len(lines) > panelHeight {
		lines = lines[:panelHeight]
	}
	return strings.Join(lines, "\n")
}

func truncateString(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	if maxLength < 3 {
		return text[:maxLength]
	}
	return text[:maxLength-3] + "..."
}

// LiveObserver is an optimize.Observer that streams each dispatch's
// embedding state to a bubbletea program as a snapshotMsg, so the view
// redraws while the optimizer is still running.
type LiveObserver struct {
	Program *tea.Program
}

func (o *LiveObserver) OnIteration(iter int, kl float64, y *manifold.Embedding) optimize.Signal {
	snap := y.Clone()
	o.Program.Send(snapshotMsg{iteration: iter, kl: kl, y: snap.Y, dim: snap.D})
	return optimize.Continue
}

// NewDoneMsg wraps the final Fit/Transform result for the caller's
// run goroutine to hand to the program once optimization finishes.
func NewDoneMsg(embedding *manifold.Embedding, err error) tea.Msg {
	return doneMsg{embedding: embedding, err: err}
}
