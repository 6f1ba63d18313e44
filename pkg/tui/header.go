package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const logo = `▛▀▖   ▐       ▌        ▐
▌ ▌▝▀▖▜▀ ▝▀▖▞▀▘▛▀▖▞▀▖▞▀▖▜▀
▌ ▌▞▀▌▐ ▖▞▀▌▝▀▖▌ ▌▛▀ ▛▀ ▐ ▖
▀▀ ▝▀▘ ▀ ▝▀▘▀▀ ▘ ▘▝▀▘▝▀▘ ▀`

// renderHeader puts the title and its subtitle on the left and the logo on the right.
func renderHeader(width int, title, subtitle string) string {
	logoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")). // Pink/magenta color
		Bold(true)

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	// Header padding style (matching pane padding)
	headerPadding := lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingRight(1).
		Width(width)

	logoLines := strings.Split(logo, "\n")
	logoWidth := lipgloss.Width(logoLines[1])
	contentWidth := width - 2 // -2 for left and right padding

	// Narrow terminals get the title only
	if contentWidth < logoWidth+lipgloss.Width(title)+2 {
		return headerPadding.Render(titleStyle.Render(title) + "\n" + DescriptionStyle.Render(subtitle))
	}

	// Align the title with the last logo row
	left := strings.Repeat("\n", len(logoLines)-2) + titleStyle.Render(title) + "\n" + DescriptionStyle.Render(subtitle)
	gap := contentWidth - lipgloss.Width(left) - logoWidth
	if gap < 1 {
		gap = 1
	}

	headerContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		strings.Repeat(" ", gap),
		logoStyle.Render(logo),
	)
	return headerPadding.Render(headerContent)
}
