package grid

import (
	"regexp"
	"strconv"
	"strings"
)

// ColumnName converts a 1-based column index into its A1 letters
// (1 -> "A", 27 -> "AA"). Non-positive indexes return an empty string.
func ColumnName(col int) string {
	if col <= 0 {
		return ""
	}
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// CellName returns the A1 name of a 1-based cell (1, 2 -> "B1").
func CellName(row, col int) string {
	return ColumnName(col) + strconv.Itoa(row)
}

// cellLike matches names Sheets reads as a reference rather than a tab:
// A1 cells ("FII2", "AB12"), R1C1 cells ("R1C1") and names starting with a
// digit.
var cellLike = regexp.MustCompile(`^(?i:[a-z]{1,3}[0-9]+|r[0-9]+c[0-9]+|[0-9].*)$`)

// QuoteTab returns the tab name as it must appear in A1 notation.
// Plain alphanumeric names that cannot be read as a cell reference are
// returned as is; everything else is wrapped in single quotes with embedded
// quotes doubled.
func QuoteTab(tab string) string {
	plain := tab != "" && !cellLike.MatchString(tab)
	for _, r := range tab {
		if !plain {
			break
		}
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			plain = false
		}
	}
	if plain {
		return tab
	}
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// AnchorRange returns the A1 anchor for a tab, for example "Fund10!A1".
func AnchorRange(tab string) string {
	return QuoteTab(tab) + "!A1"
}

// SpanRange returns the A1 range covered by g when anchored at A1,
// for example "Fund10!A1:B2". An empty grid returns the anchor.
func SpanRange(tab string, g Grid) string {
	if g.IsEmpty() || g.Width() == 0 {
		return AnchorRange(tab)
	}
	return QuoteTab(tab) + "!A1:" + ColumnName(g.Width()) + strconv.Itoa(g.Len())
}
