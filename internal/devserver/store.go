package devserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blackwell-systems/libreq/internal/directory"
)

// Request statuses, as the lending desk names them.
const (
	StatusPending = "ожидание"
)

// LendingRecord is an accepted request held in memory.
type LendingRecord struct {
	ID        int
	StudentID int
	BookID    int
	Copies    []string
	Status    string
	CreatedAt time.Time
}

// store answers lookups and reserves copies. Safe for concurrent use.
type store struct {
	mu        sync.Mutex
	fx        *Fixtures
	available map[int][]string // book id -> copy codes not yet reserved
	requests  []LendingRecord
}

func newStore(fx *Fixtures) *store {
	s := &store{fx: fx, available: make(map[int][]string, len(fx.Books))}
	for _, b := range fx.Books {
		codes := append([]string(nil), b.Copies...)
		directory.SortCopyCodes(codes)
		s.available[b.ID] = codes
	}
	return s
}

func (s *store) group(id int) *GroupRecord {
	for i := range s.fx.Groups {
		if s.fx.Groups[i].ID == id {
			return &s.fx.Groups[i]
		}
	}
	return nil
}

func (s *store) student(id int) *StudentRecord {
	for i := range s.fx.Students {
		if s.fx.Students[i].ID == id {
			return &s.fx.Students[i]
		}
	}
	return nil
}

func (s *store) book(id int) *BookRecord {
	for i := range s.fx.Books {
		if s.fx.Books[i].ID == id {
			return &s.fx.Books[i]
		}
	}
	return nil
}

func (s *store) groups() []directory.Group {
	out := make([]directory.Group, 0, len(s.fx.Groups))
	for _, g := range s.fx.Groups {
		out = append(out, directory.Group{ID: g.ID, Name: g.Name})
	}
	return out
}

// books returns the titles matching the group's language and course that
// still have copies, filtered by a case-insensitive query.
func (s *store) books(g *GroupRecord, query string) []directory.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := []directory.Book{}
	for _, b := range s.fx.Books {
		if b.Language != g.Language || b.Course != g.Course {
			continue
		}
		codes := s.available[b.ID]
		if len(codes) == 0 {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(b.Name), q) && !strings.Contains(strings.ToLower(b.Author), q) {
			continue
		}
		book := directory.Book{ID: b.ID, Name: b.Name, Author: b.Author, Available: len(codes)}
		if first, last, ok := instanceBounds(codes); ok {
			book.CopyStart, book.CopyEnd = &first, &last
		}
		out = append(out, book)
	}
	return out
}

func (s *store) students(groupID int, query string, limit int) []directory.Student {
	q := strings.ToLower(strings.TrimSpace(query))
	groupName := ""
	if g := s.group(groupID); g != nil {
		groupName = g.Name
	}
	out := []directory.Student{}
	for _, st := range s.fx.Students {
		if st.GroupID != groupID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(st.Name), q) {
			continue
		}
		out = append(out, directory.Student{ID: st.ID, Name: st.Name, Group: groupName})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *store) copies(bookID int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.available[bookID]...)
}

// reserve validates and records a request. A non-empty reason is the
// rejection text sent to the client verbatim.
func (s *store) reserve(studentID, bookID, quantity int, codes []string) (*LendingRecord, string) {
	st := s.student(studentID)
	if st == nil {
		return nil, "Ошибка: Студент не найден"
	}
	b := s.book(bookID)
	if b == nil {
		return nil, "Ошибка: Книга не найдена"
	}
	g := s.group(st.GroupID)
	if g == nil {
		return nil, "Ошибка: У студента нет группы"
	}
	if b.Language != g.Language || b.Course != g.Course {
		return nil, "Ошибка: Эта книга не предназначена для вашей группы"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	avail := s.available[bookID]

	if len(codes) == 0 {
		if quantity <= 0 {
			return nil, "Ошибка: Количество должно быть больше 0"
		}
		if quantity > len(avail) {
			return nil, fmt.Sprintf("Ошибка: Доступно только %d экземпляров", len(avail))
		}
		codes = append([]string(nil), avail[:quantity]...)
	} else {
		if quantity > 0 && quantity != len(codes) {
			return nil, fmt.Sprintf("Ошибка: Количество (%d) не совпадает с числом экземпляров (%d)", quantity, len(codes))
		}
		free := make(map[string]bool, len(avail))
		for _, c := range avail {
			free[c] = true
		}
		for _, c := range codes {
			if !free[c] {
				return nil, fmt.Sprintf("Ошибка: Экземпляр %s недоступен", c)
			}
			delete(free, c)
		}
	}

	taken := make(map[string]bool, len(codes))
	for _, c := range codes {
		taken[c] = true
	}
	rest := avail[:0:0]
	for _, c := range avail {
		if !taken[c] {
			rest = append(rest, c)
		}
	}
	s.available[bookID] = rest

	rec := LendingRecord{
		ID:        len(s.requests) + 1,
		StudentID: studentID,
		BookID:    bookID,
		Copies:    codes,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	s.requests = append(s.requests, rec)
	return &rec, ""
}

func (s *store) request(id int) *LendingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.requests {
		if s.requests[i].ID == id {
			rec := s.requests[i]
			return &rec
		}
	}
	return nil
}

func instanceBounds(codes []string) (int, int, bool) {
	var nums []int
	for _, c := range codes {
		var n int
		i := strings.LastIndexFunc(c, func(r rune) bool { return r < '0' || r > '9' })
		if _, err := fmt.Sscanf(c[i+1:], "%d", &n); err == nil {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return 0, 0, false
	}
	sort.Ints(nums)
	return nums[0], nums[len(nums)-1], true
}
