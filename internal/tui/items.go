package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/libreq/internal/directory"
	"github.com/blackwell-systems/libreq/internal/tui/delegate"
	"github.com/blackwell-systems/libreq/internal/tui/picker"
)

// GroupItem is a group in a picker list.
type GroupItem struct {
	directory.Group
}

// FilterValue implements list.Item
func (g GroupItem) FilterValue() string { return g.Name }

// BookItem is a book in a picker list.
type BookItem struct {
	directory.Book
}

// FilterValue implements list.Item
func (b BookItem) FilterValue() string { return b.Name + " " + b.Author }

const maxItemWidth = 72

func renderGroup(w io.Writer, item list.Item, selected bool) {
	g, ok := item.(GroupItem)
	if !ok {
		return
	}
	if selected {
		_, _ = fmt.Fprint(w, StyleHighlight.Render("› "+g.Name))
	} else {
		_, _ = fmt.Fprint(w, "  "+StyleNormal.Render(g.Name))
	}
}

func renderBook(w io.Writer, item list.Item, selected bool) {
	b, ok := item.(BookItem)
	if !ok {
		return
	}
	label := ansi.Truncate(b.Label(), maxItemWidth, "…")
	if selected {
		_, _ = fmt.Fprint(w, StyleHighlight.Render("› "+label))
	} else {
		_, _ = fmt.Fprint(w, "  "+StyleNormal.Render(label))
	}
}

func groupItems(groups []directory.Group) []list.Item {
	items := make([]list.Item, len(groups))
	for i, g := range groups {
		items[i] = GroupItem{g}
	}
	return items
}

func bookItems(books []directory.Book) []list.Item {
	items := make([]list.Item, len(books))
	for i, b := range books {
		items[i] = BookItem{b}
	}
	return items
}

// newFieldList builds a list for use inside the form: no title, help,
// filtering or quit keys of its own.
func newFieldList(render delegate.RenderFunc, height int) *picker.Base {
	l := list.New(nil, delegate.New(render), maxItemWidth+4, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.Styles.PaginationStyle = StyleHelp

	return picker.New(picker.Config{List: l, Embedded: true})
}

type groupPickerModel struct {
	base     *picker.Base
	selected *directory.Group
}

func (m groupPickerModel) Init() tea.Cmd {
	return nil
}

func (m groupPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.base.Update(msg)

	if m.base.IsQuitting() && m.base.Error() == nil {
		if item, ok := m.base.SelectedItem().(GroupItem); ok {
			g := item.Group
			m.selected = &g
		}
	}

	return m, cmd
}

func (m groupPickerModel) View() string {
	return m.base.View()
}

// RunGroupPicker launches an interactive group selector.
// Returns the selected group, or error if canceled.
func RunGroupPicker(groups []directory.Group) (directory.Group, error) {
	if len(groups) == 0 {
		return directory.Group{}, fmt.Errorf("нет доступных групп")
	}
	if len(groups) == 1 {
		return groups[0], nil
	}

	l := list.New(groupItems(groups), delegate.New(renderGroup), 0, 0)
	l.Title = "Выберите группу"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = StyleHeader
	l.Styles.HelpStyle = StyleHelp

	keys := NewPickerKeys()
	base := picker.New(picker.Config{
		List:        l,
		QuitKeys:    keys.Quit,
		SelectKeys:  keys.Select,
		ShowBorder:  true,
		BorderStyle: StyleBorder,
		OnSelect: func(item list.Item) bool {
			return true
		},
	})

	p := tea.NewProgram(groupPickerModel{base: base}, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return directory.Group{}, fmt.Errorf("running group picker: %w", err)
	}

	fm, ok := finalModel.(groupPickerModel)
	if !ok {
		return directory.Group{}, fmt.Errorf("unexpected model type")
	}
	if fm.base.Error() != nil {
		return directory.Group{}, fm.base.Error()
	}
	if fm.selected == nil {
		return directory.Group{}, picker.ErrCanceled
	}
	return *fm.selected, nil
}
