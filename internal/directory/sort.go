package directory

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortGroups orders groups by name using locale-aware collation.
func SortGroups(groups []Group, tag language.Tag) {
	col := collate.New(tag, collate.Numeric)
	sort.SliceStable(groups, func(i, j int) bool {
		return col.CompareString(groups[i].Name, groups[j].Name) < 0
	})
}

// SortCopyCodes orders copy codes by increasing instance number, the trailing
// run of digits in each code. Codes without digits sort after numbered ones.
func SortCopyCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool {
		ni, oki := instanceNumber(codes[i])
		nj, okj := instanceNumber(codes[j])
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return codes[i] < codes[j]
		}
	})
}

func instanceNumber(code string) (int, bool) {
	code = strings.TrimRightFunc(code, func(r rune) bool { return r == ')' })
	end := len(code)
	start := end
	for start > 0 && unicode.IsDigit(rune(code[start-1])) {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(code[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
