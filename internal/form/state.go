package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blackwell-systems/libreq/internal/directory"
)

// Selection errors.
var (
	ErrNoGroup     = errors.New("Сначала выберите группу")
	ErrNoStudent   = errors.New("Сначала выберите студента")
	ErrNoBook      = errors.New("Сначала выберите книгу")
	ErrEmptyCode   = errors.New("пустой код экземпляра")
	ErrUnknownCopy = errors.New("экземпляр недоступен для этой книги")
	ErrWrongMode   = errors.New("операция недоступна в этом режиме")
)

// State is the selection of one form session. Every setter keeps the
// downstream slots consistent with the upstream ones: no slot ever refers to
// a stale group, student or book.
type State struct {
	variant Variant

	group       *directory.Group
	student     *directory.Student
	studentText string
	book        *directory.Book

	copyList []string // available codes of book, in instance order
	known    map[string]bool
	copies   CopySet
	copyText string   // manual text area contents
	rejected []string // manual lines not on the copy list
	quantity int      // stepper value, or declared quantity in strict manual mode
}

// NewState returns an empty selection for the given variant.
func NewState(v Variant) *State {
	return &State{variant: v}
}

// Variant returns the form variant the state enforces.
func (s *State) Variant() Variant { return s.variant }

// Group returns the selected group, or nil.
func (s *State) Group() *directory.Group { return s.group }

// Student returns the student picked from a lookup result, or nil.
func (s *State) Student() *directory.Student { return s.student }

// StudentText returns what is in the student name field.
func (s *State) StudentText() string { return s.studentText }

// Book returns the selected book, or nil.
func (s *State) Book() *directory.Book { return s.book }

// CopyList returns the available copy codes of the selected book.
func (s *State) CopyList() []string { return append([]string(nil), s.copyList...) }

// Copies returns the attached copy codes.
func (s *State) Copies() []string { return s.copies.Codes() }

// CopyCount returns the number of attached copies.
func (s *State) CopyCount() int { return s.copies.Len() }

// CopyText returns the manual text area contents.
func (s *State) CopyText() string { return s.copyText }

// Rejected returns manual lines that are not on the copy list.
func (s *State) Rejected() []string { return append([]string(nil), s.rejected...) }

// Quantity returns the stepper value (quantity mode) or the declared
// quantity (strict manual mode).
func (s *State) Quantity() int { return s.quantity }

// MaxQuantity is the upper bound of the stepper.
func (s *State) MaxQuantity() int { return len(s.copyList) }

// Reset drops every selection, as a fresh page would.
func (s *State) Reset() {
	*s = State{variant: s.variant}
}

// SelectGroup makes g the current group. A different group clears the
// student, the book and the copies.
func (s *State) SelectGroup(g directory.Group) {
	if s.group != nil && s.group.ID == g.ID {
		return
	}
	s.ClearGroup()
	s.group = &g
}

// ClearGroup drops the group and everything that depends on it.
func (s *State) ClearGroup() {
	s.group = nil
	s.student = nil
	s.studentText = ""
	s.ClearBook()
}

// SelectStudent records a student picked from a lookup result.
func (s *State) SelectStudent(st directory.Student) error {
	if s.group == nil {
		return ErrNoGroup
	}
	if s.student != nil && s.student.ID == st.ID {
		s.studentText = st.Name
		return nil
	}
	s.dropStudentCopies()
	s.student = &st
	s.studentText = st.Name
	return nil
}

// TypeStudentName records free text in the student field. Text that no
// longer equals the picked student's name drops the pick: a name is only
// valid when it came from the suggestion list.
func (s *State) TypeStudentName(text string) {
	s.studentText = text
	if s.student != nil && strings.TrimSpace(text) != s.student.Name {
		s.student = nil
		s.dropStudentCopies()
	}
}

// ClearStudent drops the student. In student-first order the copies go
// with it; the book stays.
func (s *State) ClearStudent() {
	s.student = nil
	s.studentText = ""
	s.dropStudentCopies()
}

func (s *State) dropStudentCopies() {
	if s.variant.Order == OrderStudentFirst {
		s.clearCopies()
	}
}

// SelectBook makes b the current book with its available copy codes.
// Any attached copies are dropped.
func (s *State) SelectBook(b directory.Book, copyList []string) error {
	if s.group == nil {
		return ErrNoGroup
	}
	if s.variant.Order == OrderStudentFirst && s.student == nil {
		return ErrNoStudent
	}
	s.ClearBook()
	s.book = &b
	s.SetCopyList(copyList)
	return nil
}

// SetCopyList records the copy list of the selected book, for when it
// arrives after the book was picked. A nil list means it is not known yet:
// codes are then accepted unchecked. Copies already chosen are re-derived
// against the new list rather than dropped.
func (s *State) SetCopyList(copyList []string) {
	s.copyList = nil
	s.known = nil
	if copyList != nil {
		s.copyList = append([]string{}, copyList...)
		s.known = make(map[string]bool, len(copyList))
		for _, c := range s.copyList {
			s.known[c] = true
		}
	}
	if s.book == nil {
		return
	}
	if s.variant.Mode == ModeQuantity {
		_, _ = s.SetQuantity(s.quantity)
		return
	}
	_ = s.EditCopyText(s.copyText)
	if s.known != nil {
		s.quantity = Clamp(s.quantity, 0, len(s.copyList))
	}
}

// ClearBook drops the book, its copy list and the copies.
func (s *State) ClearBook() {
	s.book = nil
	s.copyList = nil
	s.known = nil
	s.clearCopies()
}

func (s *State) clearCopies() {
	s.copies.Clear()
	s.copyText = ""
	s.rejected = nil
	s.quantity = 0
}

// SetQuantity sets the stepper to n clamped to [0, MaxQuantity] and attaches
// exactly the first n codes of the copy list.
func (s *State) SetQuantity(n int) (int, error) {
	if s.variant.Mode != ModeQuantity {
		return s.SetDeclaredQuantity(n)
	}
	if s.book == nil {
		return 0, ErrNoBook
	}
	s.quantity = Clamp(n, 0, len(s.copyList))
	s.copies.Replace(QuantitySlice(s.copyList, s.quantity))
	s.copyText = s.copies.Text()
	s.rejected = nil
	return s.quantity, nil
}

// Increment raises the stepper by one.
func (s *State) Increment() (int, error) { return s.SetQuantity(s.quantity + 1) }

// Decrement lowers the stepper by one.
func (s *State) Decrement() (int, error) { return s.SetQuantity(s.quantity - 1) }

// SetQuantityText parses a typed stepper value. Anything that is not a
// number counts as 0; the result is clamped like SetQuantity.
func (s *State) SetQuantityText(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		n = 0
	}
	return s.SetQuantity(n)
}

// SetDeclaredQuantity records the quantity the user intends to borrow in
// manual mode, clamped to the copy list once it is known. The attached set
// is untouched.
func (s *State) SetDeclaredQuantity(n int) (int, error) {
	if s.book == nil {
		return 0, ErrNoBook
	}
	if s.known == nil {
		s.quantity = max(n, 0)
	} else {
		s.quantity = Clamp(n, 0, len(s.copyList))
	}
	return s.quantity, nil
}

// EditCopyText replaces the manual text and re-derives the attached set from
// its lines. With a copy list loaded, lines that are not on it are kept in
// the text but left out of the set; they are reported by Rejected.
func (s *State) EditCopyText(text string) error {
	if s.variant.Mode != ModeManual {
		return ErrWrongMode
	}
	if s.book == nil {
		return ErrNoBook
	}
	s.copyText = text
	s.copies.Clear()
	s.rejected = nil
	for _, line := range ParseLines(text) {
		if s.known != nil && !s.known[line] {
			if !contains(s.rejected, line) {
				s.rejected = append(s.rejected, line)
			}
			continue
		}
		s.copies.Add(line)
	}
	return nil
}

// AddScannedCode attaches a decoded code and appends it to the manual text.
// It returns false without error when the code is already attached.
func (s *State) AddScannedCode(code string) (bool, error) {
	if s.variant.Mode != ModeManual {
		return false, ErrWrongMode
	}
	if s.book == nil {
		return false, ErrNoBook
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return false, ErrEmptyCode
	}
	if s.known != nil && !s.known[code] {
		return false, fmt.Errorf("%s: %w", code, ErrUnknownCopy)
	}
	if !s.copies.Add(code) {
		return false, nil
	}
	if s.copyText != "" && !strings.HasSuffix(s.copyText, "\n") {
		s.copyText += "\n"
	}
	s.copyText += code
	return true, nil
}

// Badge summarizes the attachment, e.g. "2 / 5".
func (s *State) Badge() string {
	return fmt.Sprintf("%d / %d", s.copies.Len(), len(s.copyList))
}

// Request builds the submission payload from the current selection.
// Call Validate first; Request does not check anything.
func (s *State) Request() directory.BookRequest {
	r := directory.BookRequest{CopyCodes: s.copies.Codes()}
	if s.group != nil {
		r.GroupID = s.group.ID
	}
	if s.student != nil {
		r.StudentID = s.student.ID
	}
	if s.book != nil {
		r.BookID = s.book.ID
	}
	if s.variant.SendsQuantity() {
		r.Quantity = s.quantity
		if s.variant.Mode == ModeQuantity {
			r.Quantity = s.copies.Len()
		}
	}
	return r
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
