package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/ddurio/ProMage2-sub001/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// MapListModel - Interactive map selection
// =============================================================================

// MapListModel is the bubbletea model for interactive map selection.
type MapListModel struct {
	Maps     []pipeline.Definition
	Cursor   int
	Selected *pipeline.Definition
	Height   int
	Offset   int
}

// NewMapListModel creates a new map list model.
func NewMapListModel(maps []pipeline.Definition) MapListModel {
	return MapListModel{Maps: maps, Height: 15}
}

func (m MapListModel) Init() tea.Cmd {
	return nil
}

func (m MapListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Maps)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Maps) == 0 {
				return m, tea.Quit
			}
			def := m.Maps[m.Cursor]
			m.Selected = &def
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m MapListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Map"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("arrows: navigate  enter: select  q: quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Maps))
	for i := m.Offset; i < end; i++ {
		def := m.Maps[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "> "
		}
		size := fmt.Sprintf("%sx%s", def.Width, def.Height)
		line := fmt.Sprintf("%s%-20s %-12s %s", cursor, def.Name, size,
			listDimStyle.Render(fmt.Sprintf("%d steps", len(def.Steps))))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Maps))))
	return b.String()
}

// =============================================================================
// Pickers
// =============================================================================

// mapPicker chooses one of several maps. An empty result means no choice
// was made.
type mapPicker func(maps []pipeline.Definition) (string, error)

// terminalPicker returns a bubbletea picker when stdin and stdout are both
// terminals, and nil otherwise.
func terminalPicker() mapPicker {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return nil
	}
	return func(maps []pipeline.Definition) (string, error) {
		p := tea.NewProgram(NewMapListModel(maps))
		finalModel, err := p.Run()
		if err != nil {
			return "", err
		}
		fm, ok := finalModel.(MapListModel)
		if !ok || fm.Selected == nil {
			return "", nil
		}
		return fm.Selected.Name, nil
	}
}
