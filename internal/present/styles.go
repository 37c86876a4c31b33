package present

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles groups the console styles, bound to a renderer for one writer so
// colour detection follows that writer rather than os.Stdout.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Rule   lipgloss.Style
	Warn   lipgloss.Style
	Header lipgloss.Style
}

func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#25A065")),
		Label: r.NewStyle().
			Foreground(lipgloss.Color("#7D7D7D")),
		Value: r.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")),
		Rule: r.NewStyle().
			Foreground(lipgloss.Color("#25A065")),
		Warn: r.NewStyle().
			Foreground(lipgloss.Color("#E8A33D")),
		Header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1),
	}
}

const rule = "-----------------------------------------------------"
