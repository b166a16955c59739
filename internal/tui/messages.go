package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackwell-systems/libreq/internal/directory"
	"github.com/blackwell-systems/libreq/internal/form"
	"github.com/blackwell-systems/libreq/internal/scan"
)

type groupsLoadedMsg struct {
	groups []directory.Group
	notice string
}

// debounceMsg fires when a search field has been quiet for its window.
type debounceMsg struct {
	token form.Token
	query string
}

type studentsMsg struct {
	token    form.Token
	students []directory.Student
	notice   string
}

type booksMsg struct {
	token  form.Token
	books  []directory.Book
	notice string
}

type copiesMsg struct {
	token  form.Token
	bookID int
	codes  []string
	notice string
}

type submitDoneMsg struct {
	receipt *directory.Receipt
	err     error
}

type scanStartedMsg struct {
	session *scan.Session
	err     error
}

type scanCodeMsg struct {
	session *scan.Session
	code    string
}

type scanEndedMsg struct {
	session *scan.Session
	err     error
}

func loadGroups(ctx context.Context, l *form.Lookup) tea.Cmd {
	return func() tea.Msg {
		groups, notice := l.Groups(ctx)
		return groupsLoadedMsg{groups: groups, notice: notice}
	}
}

func debounce(tok form.Token, query string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return debounceMsg{token: tok, query: query}
	})
}

func findStudents(ctx context.Context, l *form.Lookup, tok form.Token, groupID int, query string) tea.Cmd {
	return func() tea.Msg {
		students, notice := l.Students(ctx, groupID, query)
		return studentsMsg{token: tok, students: students, notice: notice}
	}
}

func findBooks(ctx context.Context, l *form.Lookup, tok form.Token, groupID int, query string) tea.Cmd {
	return func() tea.Msg {
		books, notice := l.Books(ctx, groupID, query)
		return booksMsg{token: tok, books: books, notice: notice}
	}
}

func loadCopies(ctx context.Context, l *form.Lookup, tok form.Token, bookID int) tea.Cmd {
	return func() tea.Msg {
		codes, notice := l.Copies(ctx, bookID)
		return copiesMsg{token: tok, bookID: bookID, codes: codes, notice: notice}
	}
}

func sendRequest(ctx context.Context, sub form.Submitter, req directory.BookRequest) tea.Cmd {
	return func() tea.Msg {
		receipt, err := sub.SubmitRequest(ctx, req)
		return submitDoneMsg{receipt: receipt, err: err}
	}
}

func startScan(ctx context.Context, source string, opts scan.Options) tea.Cmd {
	return func() tea.Msg {
		s, err := scan.Start(ctx, scan.NewSource(source), opts)
		return scanStartedMsg{session: s, err: err}
	}
}

// waitForCode blocks until the session yields a code or ends.
func waitForCode(s *scan.Session) tea.Cmd {
	return func() tea.Msg {
		code, ok := <-s.Codes()
		if !ok {
			return scanEndedMsg{session: s, err: s.Err()}
		}
		return scanCodeMsg{session: s, code: code}
	}
}

func stopScan(s *scan.Session) tea.Cmd {
	return func() tea.Msg {
		return scanEndedMsg{session: s, err: s.Close()}
	}
}
