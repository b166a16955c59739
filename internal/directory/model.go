package directory

import "fmt"

// Group is a cohort of students sharing eligibility for certain books.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Student is one member of a group.
type Student struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

// Book is a title available to a group.
type Book struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Author    string `json:"author,omitempty"`
	Available int    `json:"available"`
	CopyStart *int   `json:"copy_start,omitempty"`
	CopyEnd   *int   `json:"copy_end,omitempty"`
}

// CopyRange renders the assigned instance range, e.g. "105(01-25)" or
// "105(03)". It is empty when the backend sent no range.
func (b Book) CopyRange() string {
	if b.CopyStart == nil || b.CopyEnd == nil || *b.CopyStart == 0 || *b.CopyEnd == 0 {
		return ""
	}
	if *b.CopyStart == *b.CopyEnd {
		return fmt.Sprintf("%d(%02d)", b.ID, *b.CopyStart)
	}
	return fmt.Sprintf("%d(%02d-%02d)", b.ID, *b.CopyStart, *b.CopyEnd)
}

// Label is the one-line description used in pickers and listings.
func (b Book) Label() string {
	s := b.Name
	if b.Author != "" {
		s += ", " + b.Author
	}
	s += fmt.Sprintf(" (доступно: %d)", b.Available)
	if r := b.CopyRange(); r != "" {
		s += " | ID: " + r
	}
	return s
}

// BookRequest is the submission payload. It only exists at submit time.
type BookRequest struct {
	GroupID   int
	StudentID int
	BookID    int
	Quantity  int // sent only when > 0
	CopyCodes []string
}

// Receipt is the backend's acknowledgement of an accepted request.
type Receipt struct {
	RequestID string // empty when the confirmation carried no "#<id>"
	Message   string
}
