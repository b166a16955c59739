package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/libreq/internal/directory"
	"github.com/blackwell-systems/libreq/internal/form"
	"github.com/blackwell-systems/libreq/internal/scan"
)

type fakeBackend struct {
	groups    []directory.Group
	books     map[int][]directory.Book
	students  map[int][]directory.Student
	copies    map[int][]string
	copiesErr error
	submitted []directory.BookRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		groups: []directory.Group{{ID: 1, Name: "ПО-101"}, {ID: 2, Name: "АҚЖ-214"}},
		books: map[int][]directory.Book{
			2: {{ID: 9, Name: "Физика", Author: "Мякишев", Available: 3}},
		},
		students: map[int][]directory.Student{
			2: {{ID: 5, Name: "Иванов Иван"}, {ID: 6, Name: "Петрова Анна"}},
		},
		copies: map[int][]string{9: {"01", "02", "03"}},
	}
}

func (f *fakeBackend) ListGroups(ctx context.Context) ([]directory.Group, error) {
	return f.groups, nil
}

func (f *fakeBackend) ListBooks(ctx context.Context, groupID int) ([]directory.Book, error) {
	return f.books[groupID], nil
}

func (f *fakeBackend) SearchBooks(ctx context.Context, groupID int, query string) ([]directory.Book, error) {
	return f.books[groupID], nil
}

func (f *fakeBackend) FindStudents(ctx context.Context, groupID int, query string) ([]directory.Student, error) {
	var out []directory.Student
	for _, s := range f.students[groupID] {
		if strings.Contains(s.Name, query) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeBackend) ListAvailableCopies(ctx context.Context, bookID int) ([]string, error) {
	if f.copiesErr != nil {
		return nil, f.copiesErr
	}
	return f.copies[bookID], nil
}

func (f *fakeBackend) SubmitRequest(ctx context.Context, r directory.BookRequest) (*directory.Receipt, error) {
	f.submitted = append(f.submitted, r)
	return &directory.Receipt{RequestID: "42", Message: "Запрос #42 отправлен!"}, nil
}

func newTestForm(f *fakeBackend, v form.Variant) formModel {
	return newFormModel(Options{
		Directory: f,
		Submitter: f,
		Variant:   v,
		StatusURL: func(id string) string { return "http://lib.test/check-status?request_id=" + id },
	})
}

// runCmd executes cmd, giving up on commands that wait on timers such as
// cursor blinks.
func runCmd(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// drain runs cmd and feeds the form's own messages back into the model
// until no more work is queued.
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) formModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "runaway command loop")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case groupsLoadedMsg, debounceMsg, studentsMsg, booksMsg, copiesMsg, submitDoneMsg:
			var next tea.Cmd
			m, next = m.Update(msg)
			queue = append(queue, next)
		}
	}
	return m.(formModel)
}

func press(t *testing.T, m formModel, msgs ...tea.KeyMsg) formModel {
	t.Helper()
	for _, k := range msgs {
		next, cmd := m.Update(k)
		m = drain(t, next, cmd)
	}
	return m
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySend  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyPlus  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")}
)

func typeText(text string) []tea.KeyMsg {
	var out []tea.KeyMsg
	for _, r := range text {
		out = append(out, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return out
}

func TestFieldsFor(t *testing.T) {
	assert.Equal(t,
		[]field{fieldGroup, fieldBook, fieldQuantity, fieldStudent, fieldSubmit},
		fieldsFor(form.Variant{Order: form.OrderBookFirst, Mode: form.ModeQuantity}))
	assert.Equal(t,
		[]field{fieldGroup, fieldStudent, fieldBook, fieldCopies, fieldQuantity, fieldSubmit},
		fieldsFor(form.Variant{Order: form.OrderStudentFirst, Mode: form.ModeManual, Strict: true}))
}

func TestForm_WorkedExample(t *testing.T) {
	f := newFakeBackend()
	m := newTestForm(f, form.Variant{Order: form.OrderBookFirst, Mode: form.ModeQuantity})
	m = drain(t, m, m.Init())
	require.Equal(t, 2, m.groups.Len())

	// Group АҚЖ-214, then the only book.
	m = press(t, m, keyDown, keyEnter)
	require.Equal(t, 2, m.state.Group().ID)
	require.Equal(t, fieldBook, m.current())
	require.Equal(t, 1, m.books.Len())

	m = press(t, m, keyEnter)
	require.Equal(t, 9, m.state.Book().ID)
	require.Equal(t, []string{"01", "02", "03"}, m.state.CopyList())
	require.Equal(t, fieldQuantity, m.current())

	m = press(t, m, keyPlus, keyPlus)
	assert.Equal(t, []string{"01", "02"}, m.state.Copies())
	assert.Equal(t, "2", m.quantityInput.Value())

	// Focusing the student field lists the whole group.
	m = press(t, m, keyTab)
	require.Len(t, m.suggestions, 2)
	m = press(t, m, keyEnter)
	require.Equal(t, 5, m.state.Student().ID)
	require.Equal(t, fieldSubmit, m.current())

	m = press(t, m, keySend)
	require.Len(t, f.submitted, 1)
	assert.Equal(t, directory.BookRequest{
		GroupID: 2, StudentID: 5, BookID: 9, Quantity: 2, CopyCodes: []string{"01", "02"},
	}, f.submitted[0])

	require.NotNil(t, m.modal)
	assert.Equal(t, modalSuccess, m.modal.kind)
	assert.Contains(t, m.modal.lines, "Статус: http://lib.test/check-status?request_id=42")
	assert.False(t, m.ctrl.Busy())

	// Acknowledging starts a fresh form.
	m = press(t, m, keyEnter)
	assert.Nil(t, m.modal)
	assert.Nil(t, m.state.Group())
	assert.Equal(t, 0, m.focus)
	assert.Equal(t, 2, m.groups.Len())
}

func TestForm_ValidationBlocksSubmit(t *testing.T) {
	f := newFakeBackend()
	m := newTestForm(f, form.Variant{Order: form.OrderBookFirst, Mode: form.ModeQuantity})
	m = drain(t, m, m.Init())

	m = press(t, m, keySend)
	require.NotNil(t, m.modal)
	assert.Equal(t, modalError, m.modal.kind)
	assert.Equal(t, []string{"Ошибка: Сначала выберите группу"}, m.modal.lines)
	assert.Empty(t, f.submitted)

	// Other keys are swallowed until the dialog is dismissed.
	m = press(t, m, keyTab)
	assert.Equal(t, 0, m.focus)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.modal)
	assert.Equal(t, form.PhaseIdle, m.ctrl.Phase())
}

func TestForm_StudentSearchDebounced(t *testing.T) {
	f := newFakeBackend()
	m := newTestForm(f, form.Variant{Order: form.OrderStudentFirst, Mode: form.ModeQuantity})
	m = drain(t, m, m.Init())
	m = press(t, m, keyDown, keyEnter)
	require.Equal(t, fieldStudent, m.current())

	m = press(t, m, typeText("Пет")...)
	require.Len(t, m.suggestions, 1)
	assert.Equal(t, "Петрова Анна", m.suggestions[0].Name)
	assert.Nil(t, m.state.Student(), "typing alone never picks a student")

	m = press(t, m, keyEnter)
	assert.Equal(t, 6, m.state.Student().ID)
	assert.Equal(t, "Петрова Анна", m.studentInput.Value())
}

func TestForm_StaleResponsesDropped(t *testing.T) {
	m := newTestForm(newFakeBackend(), form.Variant{})
	old := m.seq.Next(form.ChannelStudents)
	latest := m.seq.Next(form.ChannelStudents)

	next, _ := m.Update(studentsMsg{token: latest, students: []directory.Student{{ID: 6, Name: "Петрова Анна"}}})
	m = next.(formModel)
	next, _ = m.Update(studentsMsg{token: old, students: []directory.Student{{ID: 5, Name: "Иванов Иван"}}})
	m = next.(formModel)

	require.Len(t, m.suggestions, 1)
	assert.Equal(t, 6, m.suggestions[0].ID)
}

func TestForm_StudentNeedsGroup(t *testing.T) {
	m := newTestForm(newFakeBackend(), form.Variant{Order: form.OrderStudentFirst})
	m = press(t, m, keyTab)
	m = press(t, m, typeText("Ив")...)
	assert.Equal(t, form.NoticePickGroup, m.studentNotice)
	assert.Empty(t, m.suggestions)
}

func TestForm_ScanNeedsSource(t *testing.T) {
	f := newFakeBackend()
	m := newTestForm(f, form.Variant{Order: form.OrderBookFirst, Mode: form.ModeManual})
	m = drain(t, m, m.Init())
	m = press(t, m, keyDown, keyEnter, keyEnter)
	require.Equal(t, fieldCopies, m.current())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.NotNil(t, m.modal)
	assert.Equal(t, "Сканер не настроен", m.modal.title)
}

func TestForm_ManualTextRejectsUnknown(t *testing.T) {
	f := newFakeBackend()
	m := newTestForm(f, form.Variant{Order: form.OrderBookFirst, Mode: form.ModeManual})
	m = drain(t, m, m.Init())
	m = press(t, m, keyDown, keyEnter, keyEnter)
	require.Equal(t, fieldCopies, m.current())

	m = press(t, m, typeText("01")...)
	m = press(t, m, keyEnter)
	m = press(t, m, typeText("77")...)

	assert.Equal(t, []string{"01"}, m.state.Copies())
	assert.Equal(t, "Недоступны: 77", m.copyNotice)
	assert.Equal(t, "1 / 3", m.state.Badge())
}

func TestForm_QuitKey(t *testing.T) {
	m := newTestForm(newFakeBackend(), form.Variant{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

// heldCopies runs cmd without feeding anything back and returns the copy
// list response it carried.
func heldCopies(t *testing.T, cmd tea.Cmd) copiesMsg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case copiesMsg:
			return msg
		}
	}
	t.Fatal("no copy list lookup queued")
	return copiesMsg{}
}

func TestForm_CodesTypedBeforeCopyListArrive(t *testing.T) {
	f := newFakeBackend()
	m := newTestForm(f, form.Variant{Order: form.OrderBookFirst, Mode: form.ModeManual})
	m = drain(t, m, m.Init())
	m = press(t, m, keyDown, keyEnter)

	next, cmd := m.Update(keyEnter)
	m = next.(formModel)
	require.Equal(t, fieldCopies, m.current())

	m = press(t, m, typeText("01")...)
	m = press(t, m, keyEnter)
	m = press(t, m, typeText("77")...)
	assert.Equal(t, []string{"01", "77"}, m.state.Copies())
	assert.Empty(t, m.copyNotice)

	next, _ = m.Update(heldCopies(t, cmd))
	m = next.(formModel)
	assert.Equal(t, "01\n77", m.copyArea.Value())
	assert.Equal(t, []string{"01"}, m.state.Copies())
	assert.Equal(t, "Недоступны: 77", m.copyNotice)
	assert.Equal(t, "1 / 3", m.state.Badge())
}

func TestForm_FailedCopyLookupKeepsManualEntry(t *testing.T) {
	f := newFakeBackend()
	f.copiesErr = errors.New("connection refused")
	m := newTestForm(f, form.Variant{Order: form.OrderBookFirst, Mode: form.ModeManual})
	m = drain(t, m, m.Init())
	m = press(t, m, keyDown, keyEnter, keyEnter)
	require.Equal(t, fieldCopies, m.current())
	assert.Equal(t, form.NoticeCopiesFailed, m.copyNotice)

	m = press(t, m, typeText("02")...)
	assert.Equal(t, []string{"02"}, m.state.Copies())
	assert.Empty(t, m.state.Rejected())
	assert.Equal(t, "02", m.copyArea.Value())
}

func TestForm_ScannedCodesFillTextArea(t *testing.T) {
	f := newFakeBackend()
	m := newTestForm(f, form.Variant{Order: form.OrderBookFirst, Mode: form.ModeManual})
	m = drain(t, m, m.Init())
	m = press(t, m, keyDown, keyEnter, keyEnter)
	require.Equal(t, fieldCopies, m.current())

	session := &scan.Session{}
	m.scanner = session
	scanned := func(s *scan.Session, code string) {
		t.Helper()
		next, cmd := m.Update(scanCodeMsg{session: s, code: code})
		m = next.(formModel)
		if s == session {
			assert.NotNil(t, cmd, "keeps listening for codes")
		}
	}

	scanned(session, "02")
	assert.Equal(t, "02", m.copyArea.Value())
	assert.Equal(t, "Добавлен: 02", m.copyNotice)

	scanned(session, "02")
	assert.Equal(t, "02", m.copyArea.Value())
	assert.Equal(t, "02: уже добавлен", m.copyNotice)

	scanned(session, "01")
	assert.Equal(t, "02\n01", m.copyArea.Value())
	assert.Equal(t, []string{"02", "01"}, m.state.Copies())
	assert.Equal(t, "2 / 3", m.state.Badge())

	// Codes from a session that is no longer current are ignored.
	scanned(&scan.Session{}, "03")
	assert.Equal(t, []string{"02", "01"}, m.state.Copies())
}
