package form

import "strings"

// CopySet is the set of copy codes attached to the request. Codes are
// trimmed and unique; insertion order is kept so quantity slices and
// listings stay in instance order.
type CopySet struct {
	codes []string
	index map[string]bool
}

// Add inserts code. It returns false when code is empty or already present.
func (s *CopySet) Add(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" || s.Has(code) {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]bool)
	}
	s.index[code] = true
	s.codes = append(s.codes, code)
	return true
}

// Has reports whether code is in the set.
func (s *CopySet) Has(code string) bool {
	return s.index[strings.TrimSpace(code)]
}

// Len returns the number of codes.
func (s *CopySet) Len() int {
	return len(s.codes)
}

// Codes returns a copy of the codes in insertion order.
func (s *CopySet) Codes() []string {
	return append([]string(nil), s.codes...)
}

// Clear empties the set.
func (s *CopySet) Clear() {
	s.codes = nil
	s.index = nil
}

// Replace empties the set and adds codes in order.
func (s *CopySet) Replace(codes []string) {
	s.Clear()
	for _, c := range codes {
		s.Add(c)
	}
}

// Text renders one code per line.
func (s *CopySet) Text() string {
	return strings.Join(s.codes, "\n")
}

// ParseLines splits free text into trimmed, non-empty lines.
func ParseLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// QuantitySlice returns the first n codes of list with n clamped to
// [0, len(list)]. The result for a smaller n is always a prefix of the
// result for a larger one.
func QuantitySlice(list []string, n int) []string {
	n = Clamp(n, 0, len(list))
	return append([]string(nil), list[:n]...)
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
