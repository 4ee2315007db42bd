// Package style holds the colors and glyphs used by the terminal output.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Accent = lipgloss.Color("#F9AD00")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Added   = "+"
	Removed = "-"
	Arrow   = "→"
)

// Bold renders s in the accent color.
func Bold(s string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(Accent).Render(s)
}
