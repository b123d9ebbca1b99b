package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/doctor"
)

// Colors
var (
	colorOK     = lipgloss.Color("#10B981")
	colorWarn   = lipgloss.Color("#F59E0B")
	colorError  = lipgloss.Color("#EF4444")
	colorMuted  = lipgloss.Color("#6B7280")
	colorHeader = lipgloss.Color("#7C3AED")
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader)

	okStyle = lipgloss.NewStyle().
		Foreground(colorOK)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarn)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// renderHeader prints a section title with an underline matching the
// title length. Styling wraps the finished string so widths stay
// aligned when colors are stripped.
func renderHeader(title string) string {
	return headerStyle.Render(title) + "\n" + strings.Repeat("=", len(title))
}

// statusIcon returns the [+]/[-] marker used in result lines
func statusIcon(ok bool) string {
	if ok {
		return okStyle.Render("[+]")
	}
	return errorStyle.Render("[-]")
}

// iconFor maps a doctor status onto the three-state marker
func iconFor(s doctor.Status) string {
	switch s {
	case doctor.StatusOK:
		return okStyle.Render("[+]")
	case doctor.StatusWarn:
		return warnStyle.Render("[!]")
	default:
		return errorStyle.Render("[-]")
	}
}
