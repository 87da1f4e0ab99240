package cmdutils

import "github.com/charmbracelet/lipgloss"

const logo = "ᚺ"

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#B39DDB"))

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#B39DDB")).
			Bold(true).
			Padding(0, 1)

	HintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#545454"))

	ToolActionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			PaddingLeft(2)

	ToolNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFCC80")).
			Bold(true)

	OKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF9A9A")).
			Bold(true)
)

// Mark renders a check or a cross.
func Mark(ok bool) string {
	if ok {
		return OKStyle.Render("✓")
	}
	return ErrorStyle.Render("✗")
}
