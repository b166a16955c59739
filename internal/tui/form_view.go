package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/libreq/internal/form"
)

func (m formModel) View() string {
	if m.quitting {
		return ""
	}
	if m.modal != nil {
		return m.modal.View(m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(StyleHeader.Render("Запрос на выдачу книги"))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		focused := i == m.focus
		b.WriteString(m.label(f, focused))
		b.WriteString("\n")
		b.WriteString(m.fieldView(f, focused))
		b.WriteString("\n\n")
	}

	b.WriteString(RenderFooterBar(m.shortcuts(), m.activeCmd))

	content := lipgloss.NewStyle().Padding(0, 2, 0, 1).Render(b.String())
	return lipgloss.NewStyle().Padding(1, 2).Render(StyleBorder.Render(content))
}

func (m formModel) label(f field, focused bool) string {
	var text string
	switch f {
	case fieldGroup:
		text = "Группа"
	case fieldStudent:
		text = "ФИО студента"
	case fieldBook:
		text = "Книга"
	case fieldQuantity:
		text = "Количество"
		if m.opts.Variant.Mode == form.ModeManual {
			text = "Количество (заявлено)"
		}
	case fieldCopies:
		text = "Коды экземпляров"
	case fieldSubmit:
		return m.submitButton(focused)
	}
	if focused {
		return StyleHighlight.Render("› " + text + ":")
	}
	return StyleNormal.Render("  " + text + ":")
}

func (m formModel) submitButton(focused bool) string {
	label := m.ctrl.Label()
	if m.ctrl.Busy() {
		label = m.spinner.View() + " " + label
	}
	label = "[ " + label + " ]"
	if focused {
		return StyleHighlight.Render("› " + label)
	}
	return StyleNormal.Render("  " + label)
}

func (m formModel) fieldView(f field, focused bool) string {
	var lines []string
	notice := func(s string) {
		if s != "" {
			lines = append(lines, StyleNotice.Render(s))
		}
	}

	switch f {
	case fieldGroup:
		if focused {
			lines = append(lines, m.groups.View())
		} else {
			lines = append(lines, selectedGroup(m.state))
		}
		notice(m.groupNotice)

	case fieldStudent:
		lines = append(lines, m.studentInput.View())
		if focused {
			for i, s := range m.suggestions {
				if i == m.suggestCursor {
					lines = append(lines, StyleHighlight.Render("  › "+s.Name))
				} else {
					lines = append(lines, StyleHelp.Render("    "+s.Name))
				}
			}
		}
		notice(m.studentNotice)

	case fieldBook:
		lines = append(lines, m.bookInput.View())
		if focused && m.books.Len() > 0 {
			lines = append(lines, m.books.View())
		}
		if b := m.state.Book(); b != nil {
			lines = append(lines, StyleBadge.Render("  "+ansi.Truncate(b.Label(), maxItemWidth, "…")))
		}
		notice(m.bookNotice)

	case fieldQuantity:
		row := StyleHelp.Render("[-] ") + m.quantityInput.View() + StyleHelp.Render(" [+]")
		if m.opts.Variant.Mode == form.ModeQuantity {
			row += "  " + StyleBadge.Render(m.state.Badge())
		} else {
			row += "  " + StyleHelp.Render(fmt.Sprintf("из %d", m.state.MaxQuantity()))
		}
		lines = append(lines, row)
		if m.opts.Variant.Mode == form.ModeQuantity {
			if codes := m.state.Copies(); len(codes) > 0 {
				lines = append(lines, StyleHelp.Render("  "+ansi.Truncate(strings.Join(codes, ", "), maxItemWidth, "…")))
			}
			notice(m.copyNotice)
		}

	case fieldCopies:
		lines = append(lines, m.copyArea.View())
		lines = append(lines, StyleBadge.Render(m.state.Badge()))
		notice(m.copyNotice)
		notice(m.scanNotice)
	}

	return strings.Join(lines, "\n")
}

func selectedGroup(s *form.State) string {
	if g := s.Group(); g != nil {
		return "  " + StyleNormal.Render(g.Name)
	}
	return StyleHelp.Render("  не выбрана")
}

func (m formModel) shortcuts() []ShortcutEntry {
	bindings := []key.Binding{m.keys.Next, m.keys.Select, m.keys.Submit}
	switch m.current() {
	case fieldQuantity:
		bindings = append(bindings, m.keys.Increment, m.keys.Decrement)
	case fieldCopies:
		if m.opts.ScanSource != "" {
			bindings = append(bindings, m.keys.Scan)
		}
	}
	bindings = append(bindings, m.keys.Quit)
	return Shortcuts(bindings...)
}
