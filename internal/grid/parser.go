package grid

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// The parser works on a single table fragment with regular expressions.
// Each row is matched from its opening tag to the nearest closing tag, and
// each cell from <td> to </td> or <th> to </th>. Markup that does not match
// these pairs is skipped rather than reported.
var (
	rowPattern  = regexp.MustCompile(`(?is)<tr(?:\s[^>]*)?>.*?</tr>`)
	cellPattern = regexp.MustCompile(`(?is)<td(?:\s[^>]*)?>(.*?)</td>|<th(?:\s[^>]*)?>(.*?)</th>`)
	tagPattern  = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRun    = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
)

// ParseTable converts a raw HTML table fragment into a Grid.
// Rows and cells keep document order. A row without any cell is dropped.
// An empty fragment yields an empty grid.
func ParseTable(fragment string) Grid {
	if strings.TrimSpace(fragment) == "" {
		return Grid{}
	}

	rows := Grid{}
	for _, tr := range rowPattern.FindAllString(fragment, -1) {
		matches := cellPattern.FindAllStringSubmatch(tr, -1)
		if len(matches) == 0 {
			continue
		}
		row := make(Row, 0, len(matches))
		for _, m := range matches {
			inner := m[1]
			if inner == "" {
				inner = m[2]
			}
			row = append(row, CellText(inner))
		}
		rows = append(rows, row)
	}
	return rows
}

// CellText strips nested tags, decodes character references, collapses
// whitespace runs to a single space and trims the result.
//
//	CellText("  a\n b ") == "a b"
func CellText(inner string) string {
	text := tagPattern.ReplaceAllString(inner, " ")
	text = html.UnescapeString(text)
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
