// Package style holds the colours and marks keel prints with.
package style

import "github.com/charmbracelet/lipgloss"

// Log level colours.
var (
	Slate  = lipgloss.Color("#667085")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Marks.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
)
