package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// Styled renders the map like [Text], coloring each glyph with its tile
// type's color. Adjacent cells of the same type share one styled run.
func Styled(m *tilemap.Map) string {
	styles := map[string]lipgloss.Style{}
	styleFor := func(t *tilemap.Tile) lipgloss.Style {
		name := t.TypeName()
		if s, ok := styles[name]; ok {
			return s
		}
		s := lipgloss.NewStyle()
		if t.Type != nil && t.Type.Color != "" {
			s = s.Foreground(lipgloss.Color(t.Type.Color))
		}
		styles[name] = s
		return s
	}

	var sb strings.Builder
	var run strings.Builder
	for y := 0; y < m.Height(); y++ {
		var current *tilemap.Tile
		for x := 0; x < m.Width(); x++ {
			t := m.At(x, y)
			if current != nil && t.TypeName() != current.TypeName() {
				sb.WriteString(styleFor(current).Render(run.String()))
				run.Reset()
			}
			current = t
			run.WriteRune(glyph(t))
		}
		if current != nil {
			sb.WriteString(styleFor(current).Render(run.String()))
			run.Reset()
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
