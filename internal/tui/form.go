package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/blackwell-systems/libreq/internal/directory"
	"github.com/blackwell-systems/libreq/internal/form"
	"github.com/blackwell-systems/libreq/internal/scan"
	"github.com/blackwell-systems/libreq/internal/tui/picker"
)

// Options wires the request form to its backend.
type Options struct {
	Context   context.Context
	Directory form.Directory
	Submitter form.Submitter
	Variant   form.Variant

	StudentDebounce time.Duration
	BookDebounce    time.Duration

	// ScanSource is the snapshot file or image directory read by the
	// scanner. Scanning is unavailable when empty.
	ScanSource   string
	ScanInterval time.Duration

	StatusURL func(requestID string) string
	Logger    *zap.Logger
}

type field int

const (
	fieldGroup field = iota
	fieldStudent
	fieldBook
	fieldQuantity
	fieldCopies
	fieldSubmit
)

const suggestionLimit = 8

// fieldsFor returns the focus order of the form for a variant.
func fieldsFor(v form.Variant) []field {
	var copies []field
	if v.Mode == form.ModeQuantity {
		copies = []field{fieldQuantity}
	} else {
		copies = []field{fieldCopies}
		if v.Strict {
			copies = append(copies, fieldQuantity)
		}
	}

	out := []field{fieldGroup}
	if v.Order == form.OrderStudentFirst {
		out = append(out, fieldStudent, fieldBook)
		out = append(out, copies...)
	} else {
		out = append(out, fieldBook)
		out = append(out, copies...)
		out = append(out, fieldStudent)
	}
	return append(out, fieldSubmit)
}

type formModel struct {
	opts   Options
	keys   FormKeys
	state  *form.State
	ctrl   *form.Controller
	lookup *form.Lookup
	seq    *form.Sequencer
	fields []field
	focus  int

	groups      *picker.Base
	groupNotice string

	studentInput  textinput.Model
	suggestions   []directory.Student
	suggestCursor int
	studentNotice string

	bookInput  textinput.Model
	books      *picker.Base
	bookNotice string

	quantityInput textinput.Model
	copyArea      textarea.Model
	copyNotice    string

	spinner    spinner.Model
	scanner    *scan.Session
	scanNotice string

	modal     *modal
	succeeded bool
	activeCmd string
	width     int
	height    int
	quitting  bool
}

func newFormModel(opts Options) formModel {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = scan.DefaultInterval
	}

	state := form.NewState(opts.Variant)
	m := formModel{
		opts:   opts,
		keys:   NewFormKeys(),
		state:  state,
		ctrl:   form.NewController(state, opts.Submitter, opts.Logger),
		lookup: form.NewLookup(opts.Directory, opts.Logger),
		seq:    &form.Sequencer{},
		fields: fieldsFor(opts.Variant),
		groups: newFieldList(renderGroup, 6),
		books:  newFieldList(renderBook, 6),
	}

	const inputWidth = 50

	m.studentInput = textinput.New()
	m.studentInput.Placeholder = "Начните вводить ФИО"
	m.studentInput.CharLimit = 120
	m.studentInput.Width = inputWidth

	m.bookInput = textinput.New()
	m.bookInput.Placeholder = "Поиск по названию или автору"
	m.bookInput.CharLimit = 120
	m.bookInput.Width = inputWidth

	m.quantityInput = textinput.New()
	m.quantityInput.Placeholder = "0"
	m.quantityInput.CharLimit = 4
	m.quantityInput.Width = 6

	m.copyArea = textarea.New()
	m.copyArea.Placeholder = "Один код на строку"
	m.copyArea.ShowLineNumbers = false
	m.copyArea.SetWidth(inputWidth)
	m.copyArea.SetHeight(5)

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	return m
}

func (m formModel) Init() tea.Cmd {
	return loadGroups(m.opts.Context, m.lookup)
}

func (m formModel) current() field {
	return m.fields[m.focus]
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ClearActiveCmdMsg:
		m.activeCmd = ""
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case groupsLoadedMsg:
		m.groupNotice = msg.notice
		return m, m.groups.SetItems(groupItems(msg.groups))

	case debounceMsg:
		return m, m.search(msg)

	case studentsMsg:
		if !m.seq.IsLatest(msg.token) {
			return m, nil
		}
		if len(msg.students) > suggestionLimit {
			msg.students = msg.students[:suggestionLimit]
		}
		m.suggestions = msg.students
		m.suggestCursor = 0
		m.studentNotice = msg.notice
		return m, nil

	case booksMsg:
		if !m.seq.IsLatest(msg.token) {
			return m, nil
		}
		m.bookNotice = msg.notice
		return m, m.books.SetItems(bookItems(msg.books))

	case copiesMsg:
		if !m.seq.IsLatest(msg.token) {
			return m, nil
		}
		if b := m.state.Book(); b == nil || b.ID != msg.bookID {
			return m, nil
		}
		// A failed lookup leaves the list unknown and the typed codes alone.
		if msg.codes != nil {
			m.state.SetCopyList(msg.codes)
			m.syncCopies()
		}
		m.copyNotice = msg.notice
		if m.copyNotice == "" {
			m.copyNotice = rejectedNotice(m.state.Rejected())
		}
		return m, nil

	case submitDoneMsg:
		return m.finishSubmit(msg)

	case scanStartedMsg:
		m.scanNotice = ""
		if msg.err != nil {
			m.modal = errorModal("Ошибка камеры", msg.err.Error())
			return m, nil
		}
		if m.quitting {
			_ = msg.session.Close()
			return m, nil
		}
		m.scanner = msg.session
		m.scanNotice = "Сканирование... (ctrl+o: стоп)"
		return m, waitForCode(msg.session)

	case scanCodeMsg:
		if msg.session != m.scanner {
			return m, nil
		}
		m.addScanned(msg.code)
		return m, waitForCode(msg.session)

	case scanEndedMsg:
		if msg.session != m.scanner {
			return m, nil
		}
		m.scanner = nil
		m.scanNotice = ""
		if msg.err != nil {
			m.modal = errorModal("Ошибка камеры", msg.err.Error())
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blink and other component messages.
	return m.updateFocused(msg)
}

func (m formModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	if m.modal != nil {
		if key.Matches(msg, m.keys.Select) || key.Matches(msg, m.keys.Dismiss) {
			return m.dismissModal()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Dismiss):
		if m.scanner != nil {
			return m, stopScan(m.scanner)
		}
		return m.quit()
	case key.Matches(msg, m.keys.Next):
		return m.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		return m.moveFocus(-1)
	case key.Matches(msg, m.keys.Submit):
		return m.beginSubmit()
	case key.Matches(msg, m.keys.Scan):
		return m.toggleScan()
	}

	switch m.current() {
	case fieldGroup:
		return m.groupKey(msg)
	case fieldStudent:
		return m.studentKey(msg)
	case fieldBook:
		return m.bookKey(msg)
	case fieldQuantity:
		return m.quantityKey(msg)
	case fieldCopies:
		return m.copiesKey(msg)
	case fieldSubmit:
		if key.Matches(msg, m.keys.Select) {
			return m.beginSubmit()
		}
	}
	return m, nil
}

func (m formModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.scanner != nil {
		_ = m.scanner.Close()
		m.scanner = nil
	}
	return m, tea.Quit
}

func (m formModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	m.blurAll()
	n := len(m.fields)
	m.focus = ((m.focus+delta)%n + n) % n

	var cmds []tea.Cmd
	switch m.current() {
	case fieldStudent:
		cmds = append(cmds, m.studentInput.Focus())
		// An empty field lists the whole group, like clicking into it.
		if m.state.Group() != nil && strings.TrimSpace(m.studentInput.Value()) == "" {
			tok := m.seq.Next(form.ChannelStudents)
			cmds = append(cmds, findStudents(m.opts.Context, m.lookup, tok, m.state.Group().ID, ""))
		}
	case fieldBook:
		cmds = append(cmds, m.bookInput.Focus())
	case fieldQuantity:
		cmds = append(cmds, m.quantityInput.Focus())
	case fieldCopies:
		cmds = append(cmds, m.copyArea.Focus())
	}
	return m, tea.Batch(cmds...)
}

func (m *formModel) blurAll() {
	m.studentInput.Blur()
	m.bookInput.Blur()
	m.quantityInput.Blur()
	m.copyArea.Blur()
}

func (m formModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.current() {
	case fieldStudent:
		m.studentInput, cmd = m.studentInput.Update(msg)
	case fieldBook:
		m.bookInput, cmd = m.bookInput.Update(msg)
	case fieldQuantity:
		m.quantityInput, cmd = m.quantityInput.Update(msg)
	case fieldCopies:
		m.copyArea, cmd = m.copyArea.Update(msg)
	}
	return m, cmd
}

func (m formModel) groupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.groups.List().CursorUp()
	case key.Matches(msg, m.keys.Down):
		m.groups.List().CursorDown()
	case key.Matches(msg, m.keys.Select):
		item, ok := m.groups.SelectedItem().(GroupItem)
		if !ok {
			return m, nil
		}
		var cmd tea.Cmd
		if prev := m.state.Group(); prev == nil || prev.ID != item.ID {
			m.state.SelectGroup(item.Group)
			m.resetStudent()
			m.resetBook()
			tok := m.seq.Next(form.ChannelBooks)
			cmd = findBooks(m.opts.Context, m.lookup, tok, item.ID, "")
		}
		next, focusCmd := m.moveFocus(1)
		return next, tea.Batch(cmd, focusCmd)
	}
	return m, nil
}

func (m *formModel) resetStudent() {
	m.studentInput.SetValue("")
	m.suggestions = nil
	m.suggestCursor = 0
	m.studentNotice = ""
	m.seq.Invalidate(form.ChannelStudents)
}

func (m *formModel) resetBook() {
	m.bookInput.SetValue("")
	m.books.SetItems(nil)
	m.bookNotice = ""
	m.copyNotice = ""
	m.seq.Invalidate(form.ChannelBooks)
	m.seq.Invalidate(form.ChannelCopies)
	m.syncCopies()
}

func (m formModel) studentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.suggestCursor > 0 {
			m.suggestCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.suggestCursor < len(m.suggestions)-1 {
			m.suggestCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if len(m.suggestions) == 0 {
			return m, nil
		}
		st := m.suggestions[m.suggestCursor]
		if err := m.state.SelectStudent(st); err != nil {
			m.studentNotice = err.Error()
			return m, nil
		}
		m.studentInput.SetValue(st.Name)
		m.studentInput.CursorEnd()
		m.suggestions = nil
		m.studentNotice = ""
		m.syncCopies()
		return m.moveFocus(1)
	}

	before := m.studentInput.Value()
	var cmd tea.Cmd
	m.studentInput, cmd = m.studentInput.Update(msg)
	text := m.studentInput.Value()
	if text == before {
		return m, cmd
	}

	m.state.TypeStudentName(text)
	m.syncCopies()

	g := m.state.Group()
	if g == nil {
		m.suggestions = nil
		m.studentNotice = form.NoticePickGroup
		return m, cmd
	}
	tok := m.seq.Next(form.ChannelStudents)
	query := strings.TrimSpace(text)
	if query == "" {
		return m, tea.Batch(cmd, findStudents(m.opts.Context, m.lookup, tok, g.ID, ""))
	}
	return m, tea.Batch(cmd, debounce(tok, query, m.opts.StudentDebounce))
}

func (m formModel) bookKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.books.List().CursorUp()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.books.List().CursorDown()
		return m, nil
	case key.Matches(msg, m.keys.Select):
		item, ok := m.books.SelectedItem().(BookItem)
		if !ok {
			return m, nil
		}
		if err := m.state.SelectBook(item.Book, nil); err != nil {
			m.bookNotice = err.Error()
			return m, nil
		}
		m.bookNotice = ""
		m.copyNotice = ""
		m.syncCopies()
		tok := m.seq.Next(form.ChannelCopies)
		next, focusCmd := m.moveFocus(1)
		return next, tea.Batch(loadCopies(m.opts.Context, m.lookup, tok, item.ID), focusCmd)
	}

	before := m.bookInput.Value()
	var cmd tea.Cmd
	m.bookInput, cmd = m.bookInput.Update(msg)
	text := m.bookInput.Value()
	if text == before {
		return m, cmd
	}

	g := m.state.Group()
	if g == nil {
		m.bookNotice = form.NoticePickGroup
		return m, cmd
	}
	tok := m.seq.Next(form.ChannelBooks)
	query := strings.TrimSpace(text)
	if query == "" {
		return m, tea.Batch(cmd, findBooks(m.opts.Context, m.lookup, tok, g.ID, ""))
	}
	return m, tea.Batch(cmd, debounce(tok, query, m.opts.BookDebounce))
}

// search runs the lookup a debounce tick was waiting for, unless a newer
// keystroke superseded it.
func (m formModel) search(msg debounceMsg) tea.Cmd {
	if !m.seq.IsLatest(msg.token) {
		return nil
	}
	g := m.state.Group()
	if g == nil {
		return nil
	}
	switch msg.token.Channel {
	case form.ChannelStudents:
		return findStudents(m.opts.Context, m.lookup, msg.token, g.ID, msg.query)
	case form.ChannelBooks:
		return findBooks(m.opts.Context, m.lookup, msg.token, g.ID, msg.query)
	}
	return nil
}

func (m formModel) quantityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	switch {
	case key.Matches(msg, m.keys.Increment):
		_, err = m.state.Increment()
		m.activeCmd = "+"
	case key.Matches(msg, m.keys.Decrement):
		_, err = m.state.Decrement()
		m.activeCmd = "-"
	default:
		before := m.quantityInput.Value()
		var cmd tea.Cmd
		m.quantityInput, cmd = m.quantityInput.Update(msg)
		text := strings.TrimSpace(m.quantityInput.Value())
		if text == strings.TrimSpace(before) {
			return m, cmd
		}
		n, err := m.state.SetQuantityText(text)
		if err != nil {
			m.copyNotice = err.Error()
			return m, cmd
		}
		m.copyNotice = ""
		if text != "" && text != strconv.Itoa(n) {
			m.quantityInput.SetValue(strconv.Itoa(n))
			m.quantityInput.CursorEnd()
		}
		if m.opts.Variant.Mode == form.ModeQuantity {
			m.syncCopyArea()
		}
		return m, cmd
	}

	if err != nil {
		m.copyNotice = err.Error()
	} else {
		m.copyNotice = ""
	}
	m.syncCopies()
	return m, HighlightCmd()
}

func (m formModel) copiesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.copyArea.Value()
	var cmd tea.Cmd
	m.copyArea, cmd = m.copyArea.Update(msg)
	text := m.copyArea.Value()
	if text == before {
		return m, cmd
	}
	if err := m.state.EditCopyText(text); err != nil {
		m.copyNotice = err.Error()
		return m, cmd
	}
	m.copyNotice = rejectedNotice(m.state.Rejected())
	return m, cmd
}

func rejectedNotice(rejected []string) string {
	if len(rejected) == 0 {
		return ""
	}
	return "Недоступны: " + strings.Join(rejected, ", ")
}

// syncCopies refreshes the copy widgets from the state after a change that
// did not come from typing into them.
func (m *formModel) syncCopies() {
	q := m.state.Quantity()
	if m.state.Book() == nil && q == 0 {
		m.quantityInput.SetValue("")
	} else {
		m.quantityInput.SetValue(strconv.Itoa(q))
	}
	m.syncCopyArea()
}

func (m *formModel) syncCopyArea() {
	if m.copyArea.Value() != m.state.CopyText() {
		m.copyArea.SetValue(m.state.CopyText())
	}
}

func (m formModel) toggleScan() (tea.Model, tea.Cmd) {
	if m.opts.Variant.Mode != form.ModeManual {
		return m, nil
	}
	if m.scanner != nil {
		m.scanNotice = "Остановка сканера..."
		return m, stopScan(m.scanner)
	}
	if m.state.Book() == nil {
		m.copyNotice = form.ErrNoBook.Error()
		return m, nil
	}
	if m.opts.ScanSource == "" {
		m.modal = errorModal("Сканер не настроен", "Укажите scan.source в конфигурации")
		return m, nil
	}
	m.scanNotice = "Запуск сканера..."
	return m, startScan(m.opts.Context, m.opts.ScanSource, scan.Options{
		Interval: m.opts.ScanInterval,
		Logger:   m.opts.Logger,
	})
}

func (m *formModel) addScanned(code string) {
	added, err := m.state.AddScannedCode(code)
	switch {
	case err != nil:
		m.copyNotice = err.Error()
	case !added:
		m.copyNotice = code + ": уже добавлен"
	default:
		m.copyNotice = "Добавлен: " + code
	}
	m.syncCopyArea()
}

func (m formModel) beginSubmit() (tea.Model, tea.Cmd) {
	req, err := m.ctrl.Begin()
	if errors.Is(err, form.ErrBusy) {
		return m, nil
	}
	if err != nil {
		m.modal = errorModal("Проверьте форму", err.Error())
		return m, nil
	}
	return m, tea.Batch(sendRequest(m.opts.Context, m.opts.Submitter, req), m.spinner.Tick)
}

func (m formModel) finishSubmit(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	receipt, err := m.ctrl.Finish(msg.receipt, msg.err)
	if err != nil {
		title := "Запрос отклонен"
		var serr *form.SendError
		if errors.As(err, &serr) {
			title = "Ошибка отправки"
		}
		m.modal = errorModal(title, err.Error())
		return m, nil
	}

	lines := []string{receipt.Message}
	if receipt.RequestID != "" && m.opts.StatusURL != nil {
		lines = append(lines, fmt.Sprintf("Статус: %s", m.opts.StatusURL(receipt.RequestID)))
	}
	m.modal = successModal("Запрос отправлен", lines...)
	m.succeeded = true
	return m, nil
}

// dismissModal closes the dialog. After a successful submission the whole
// form starts over.
func (m formModel) dismissModal() (tea.Model, tea.Cmd) {
	m.modal = nil
	m.ctrl.Acknowledge()
	if !m.succeeded {
		return m, nil
	}
	if m.scanner != nil {
		_ = m.scanner.Close()
		m.scanner = nil
	}
	fresh := newFormModel(m.opts)
	fresh.width, fresh.height = m.width, m.height
	return fresh, fresh.Init()
}

// RunForm launches the interactive request form and blocks until the user
// quits it.
func RunForm(opts Options) error {
	p := tea.NewProgram(newFormModel(opts), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running form: %w", err)
	}
	if fm, ok := finalModel.(formModel); ok && fm.scanner != nil {
		_ = fm.scanner.Close()
	}
	return nil
}
