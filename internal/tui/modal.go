package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type modalKind int

const (
	modalError modalKind = iota
	modalSuccess
)

// modal is a blocking dialog over the form. Only dismissing it is possible
// while it is shown.
type modal struct {
	kind  modalKind
	title string
	lines []string
}

func errorModal(title string, lines ...string) *modal {
	return &modal{kind: modalError, title: title, lines: lines}
}

func successModal(title string, lines ...string) *modal {
	return &modal{kind: modalSuccess, title: title, lines: lines}
}

func (d *modal) View(width, height int) string {
	titleStyle, border := StyleError, ColorRed
	if d.kind == modalSuccess {
		titleStyle, border = StyleSuccess, ColorGreen
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(d.title))
	for _, l := range d.lines {
		b.WriteString("\n\n")
		b.WriteString(StyleNormal.Render(l))
	}
	b.WriteString("\n\n")
	b.WriteString(StyleHelp.Render("Enter/Esc: OK"))

	box := StyleModal.BorderForeground(border).Render(b.String())
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
