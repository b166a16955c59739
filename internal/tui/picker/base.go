package picker

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCanceled is set when the user leaves a standalone picker without a pick.
var ErrCanceled = errors.New("отменено пользователем")

// SelectHandler is called when an item is selected.
// Return true to quit the picker, false to continue.
type SelectHandler func(selectedItem list.Item) bool

// Config configures a base picker.
type Config struct {
	// List is the underlying bubbles list.Model
	List list.Model

	// QuitKeys end a standalone picker. Leave unset when the picker is a
	// field of a larger form that owns quitting.
	QuitKeys   key.Binding
	SelectKeys key.Binding

	OnSelect SelectHandler

	// Embedded pickers keep the size set with SetSize instead of filling
	// the window.
	Embedded bool

	BorderStyle lipgloss.Style
	ShowBorder  bool
}

// Base provides common picker functionality: list navigation, selection
// and quitting.
type Base struct {
	config   Config
	list     list.Model
	quitting bool
	err      error
}

// New creates a new base picker.
func New(cfg Config) *Base {
	return &Base{
		config: cfg,
		list:   cfg.List,
	}
}

// List returns the underlying list model for direct access.
func (b *Base) List() *list.Model {
	return &b.list
}

// IsQuitting returns whether the picker is quitting.
func (b *Base) IsQuitting() bool {
	return b.quitting
}

// Error returns any error that occurred.
func (b *Base) Error() error {
	return b.err
}

// Update handles standard picker updates.
func (b *Base) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if b.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, b.config.QuitKeys):
			b.err = ErrCanceled
			b.quitting = true
			return tea.Quit

		case key.Matches(msg, b.config.SelectKeys):
			if b.config.OnSelect != nil {
				if item := b.list.SelectedItem(); item != nil && b.config.OnSelect(item) {
					b.quitting = true
					return tea.Quit
				}
			}
			return nil
		}

	case tea.WindowSizeMsg:
		if b.config.Embedded {
			return nil
		}
		if b.config.ShowBorder {
			h, v := b.config.BorderStyle.GetFrameSize()
			b.list.SetSize(msg.Width-h, msg.Height-v)
		} else {
			b.list.SetSize(msg.Width, msg.Height)
		}
		return nil
	}

	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return cmd
}

// View renders the picker.
func (b *Base) View() string {
	if b.quitting {
		return ""
	}

	view := b.list.View()

	if b.config.ShowBorder {
		return b.config.BorderStyle.Render(view)
	}

	return view
}

// SetSize resizes the list.
func (b *Base) SetSize(width, height int) {
	b.list.SetSize(width, height)
}

// SelectedItem returns the currently selected item.
func (b *Base) SelectedItem() list.Item {
	return b.list.SelectedItem()
}

// Items returns all list items.
func (b *Base) Items() []list.Item {
	return b.list.Items()
}

// SetItems replaces the list items and moves the cursor to the top.
func (b *Base) SetItems(items []list.Item) tea.Cmd {
	cmd := b.list.SetItems(items)
	b.list.Select(0)
	return cmd
}

// Len returns the number of items.
func (b *Base) Len() int {
	return len(b.list.Items())
}
