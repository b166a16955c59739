package delegate

import (
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one list item. selected is set for the item under the
// cursor.
type RenderFunc func(w io.Writer, item list.Item, selected bool)

// Base is a list.ItemDelegate that only customizes rendering.
type Base struct {
	height   int
	spacing  int
	renderFn RenderFunc
}

// New creates a single-line delegate with no spacing.
func New(renderFn RenderFunc) Base {
	return Base{
		height:   1,
		renderFn: renderFn,
	}
}

// WithHeight returns a copy of d whose items take h lines.
func (d Base) WithHeight(h int) Base {
	if h > 0 {
		d.height = h
	}
	return d
}

// WithSpacing returns a copy of d with s blank lines between items.
func (d Base) WithSpacing(s int) Base {
	if s >= 0 {
		d.spacing = s
	}
	return d
}

// Height implements list.ItemDelegate
func (d Base) Height() int {
	return d.height
}

// Spacing implements list.ItemDelegate
func (d Base) Spacing() int {
	return d.spacing
}

// Update implements list.ItemDelegate
func (d Base) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render implements list.ItemDelegate
func (d Base) Render(w io.Writer, m list.Model, index int, item list.Item) {
	if d.renderFn != nil {
		d.renderFn(w, item, index == m.Index())
	}
}
