package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

func newSpinner() spinner.Model {
	return spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorActive))),
	)
}

// renderSaveProgress draws the save panel: a spinner with completed/total while
// writing, then either the success line or the list of items that failed.
func renderSaveProgress(p sheet.SaveProgress, spin spinner.Model, width int) string {
	var b strings.Builder

	switch {
	case p.Processing && !p.Done():
		b.WriteString(spin.View())
		b.WriteString(fmt.Sprintf(" Saving %d/%d", p.Completed+len(p.Failed), p.Total))
	case len(p.Failed) == 0:
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("✓ Saved %d/%d", p.Completed, p.Total)))
	default:
		b.WriteString(WarningStyle.Render(fmt.Sprintf("⚠ Saved %d/%d, %d failed", p.Completed, p.Total, len(p.Failed))))
	}

	if len(p.Failed) > 0 {
		b.WriteString("\n")
		for _, path := range p.Failed {
			b.WriteString(ErrorStyle.Render("  × " + path))
			b.WriteString("\n")
		}
		if !p.Processing {
			b.WriteString(DescriptionStyle.Render("Failed items keep their edits. esc dismiss"))
		}
	}

	style := InactiveBorderStyle.Padding(0, 1)
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}
