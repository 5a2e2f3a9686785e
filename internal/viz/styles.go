package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	StatusOK = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusWarn = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))
)

// Row is one labelled value of a panel.
type Row struct {
	Label, Value string
}

// Summary renders rows as an aligned key/value panel under title.
func Summary(title string, rows []Row) string {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.Label))
	}

	var b strings.Builder
	b.WriteString(Title.Render(title))
	for _, r := range rows {
		b.WriteString("\n")
		pad := strings.Repeat(" ", width-lipgloss.Width(r.Label))
		b.WriteString(MetricLabel.Render(r.Label) + pad + "  " + MetricValue.Render(r.Value))
	}
	return Panel.Render(b.String())
}

// Status renders msg in the OK style, or the warning style when warn is set.
func Status(msg string, warn bool) string {
	if warn {
		return StatusWarn.Render(msg)
	}
	return StatusOK.Render(msg)
}

// Separator is a muted horizontal rule of the given width.
func Separator(width int) string {
	if width < 7 {
		return Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return Subtle.Render(strings.Repeat("─", mid-1) + " ◆ " + strings.Repeat("─", width-mid-2))
}
