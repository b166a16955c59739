package form_test

import (
	"context"
	"errors"

	"github.com/blackwell-systems/libreq/internal/directory"
)

var errOffline = errors.New("dial tcp: connection refused")

// fakeDirectory is an in-memory Directory and Submitter.
type fakeDirectory struct {
	groups   []directory.Group
	books    map[int][]directory.Book
	students map[int][]directory.Student
	copies   map[int][]string
	err      error

	submitted []directory.BookRequest
	reply     *directory.Receipt
	submitErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		groups: []directory.Group{{ID: 1, Name: "101"}, {ID: 2, Name: "202"}},
		books: map[int][]directory.Book{
			2: {{ID: 9, Name: "Физика", Author: "Мякишев", Available: 3}},
		},
		students: map[int][]directory.Student{
			1: {{ID: 4, Name: "Ким Виктор"}},
			2: {{ID: 5, Name: "Иванов Иван"}, {ID: 6, Name: "Петрова Анна"}},
		},
		copies: map[int][]string{9: {"01", "02", "03"}},
		reply:  &directory.Receipt{RequestID: "42", Message: "Запрос #42 отправлен!"},
	}
}

func (f *fakeDirectory) ListGroups(ctx context.Context) ([]directory.Group, error) {
	return f.groups, f.err
}

func (f *fakeDirectory) ListBooks(ctx context.Context, groupID int) ([]directory.Book, error) {
	return f.books[groupID], f.err
}

func (f *fakeDirectory) SearchBooks(ctx context.Context, groupID int, query string) ([]directory.Book, error) {
	return f.books[groupID], f.err
}

func (f *fakeDirectory) FindStudents(ctx context.Context, groupID int, query string) ([]directory.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	if query == "" {
		return f.students[groupID], nil
	}
	var out []directory.Student
	for _, s := range f.students[groupID] {
		if s.Name == query {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDirectory) ListAvailableCopies(ctx context.Context, bookID int) ([]string, error) {
	return f.copies[bookID], f.err
}

func (f *fakeDirectory) SubmitRequest(ctx context.Context, r directory.BookRequest) (*directory.Receipt, error) {
	f.submitted = append(f.submitted, r)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.reply, nil
}
