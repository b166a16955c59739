package form

import (
	"context"

	"go.uber.org/zap"

	"github.com/blackwell-systems/libreq/internal/directory"
)

// Inline notices shown next to a field when a lookup degrades.
const (
	NoticeGroupsFailed   = "Ошибка загрузки групп"
	NoticeStudentsFailed = "Ошибка загрузки студентов"
	NoticeSearchFailed   = "Ошибка поиска"
	NoticeBooksFailed    = "Ошибка загрузки книг"
	NoticeCopiesFailed   = "Ошибка загрузки экземпляров"
	NoticeNoStudents     = "Студенты не найдены"
	NoticeNoBooks        = "Нет доступных книг для вашей группы"
	NoticeNoCopies       = "Нет доступных экземпляров"
	NoticePickGroup      = "Сначала выберите группу"
)

// Directory is the read side of the backend the form depends on.
// *directory.Client implements it.
type Directory interface {
	ListGroups(ctx context.Context) ([]directory.Group, error)
	ListBooks(ctx context.Context, groupID int) ([]directory.Book, error)
	SearchBooks(ctx context.Context, groupID int, query string) ([]directory.Book, error)
	FindStudents(ctx context.Context, groupID int, query string) ([]directory.Student, error)
	ListAvailableCopies(ctx context.Context, bookID int) ([]string, error)
}

// Lookup wraps a Directory so that no failure reaches the caller as an
// error: a failed call yields an empty list and a notice for the user.
type Lookup struct {
	dir Directory
	log *zap.Logger
}

// NewLookup creates a Lookup over dir.
func NewLookup(dir Directory, log *zap.Logger) *Lookup {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lookup{dir: dir, log: log}
}

// Groups lists every group.
func (l *Lookup) Groups(ctx context.Context) ([]directory.Group, string) {
	groups, err := l.dir.ListGroups(ctx)
	if err != nil {
		l.log.Warn("loading groups", zap.Error(err))
		return nil, NoticeGroupsFailed
	}
	return groups, ""
}

// Students finds students of a group. An empty query lists the whole group.
func (l *Lookup) Students(ctx context.Context, groupID int, query string) ([]directory.Student, string) {
	if groupID <= 0 {
		return nil, NoticePickGroup
	}
	students, err := l.dir.FindStudents(ctx, groupID, query)
	if err != nil {
		l.log.Warn("finding students", zap.Int("group_id", groupID), zap.String("query", query), zap.Error(err))
		if query == "" {
			return nil, NoticeStudentsFailed
		}
		return nil, NoticeSearchFailed
	}
	if len(students) == 0 {
		return nil, NoticeNoStudents
	}
	return students, ""
}

// Books finds books of a group. An empty query lists the whole group.
func (l *Lookup) Books(ctx context.Context, groupID int, query string) ([]directory.Book, string) {
	if groupID <= 0 {
		return nil, NoticePickGroup
	}
	books, err := l.dir.SearchBooks(ctx, groupID, query)
	if err != nil {
		l.log.Warn("loading books", zap.Int("group_id", groupID), zap.String("query", query), zap.Error(err))
		return nil, NoticeBooksFailed
	}
	if len(books) == 0 {
		return nil, NoticeNoBooks
	}
	return books, ""
}

// Copies lists the available copy codes of a book. On failure the codes are
// nil, meaning unknown.
func (l *Lookup) Copies(ctx context.Context, bookID int) ([]string, string) {
	codes, err := l.dir.ListAvailableCopies(ctx, bookID)
	if err != nil {
		l.log.Warn("loading copies", zap.Int("book_id", bookID), zap.Error(err))
		return nil, NoticeCopiesFailed
	}
	if len(codes) == 0 {
		// Loaded and empty: every code is unavailable.
		return []string{}, NoticeNoCopies
	}
	return codes, ""
}
