package grid

// Row is an ordered sequence of text cells. An empty string is a valid cell.
type Row []string

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	return append(Row(nil), r...)
}

// Grid is an ordered sequence of rows in source order.
type Grid []Row

// Width returns the length of the longest row.
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Len returns the number of rows.
func (g Grid) Len() int {
	return len(g)
}

// IsEmpty reports whether the grid has no rows.
func (g Grid) IsEmpty() bool {
	return len(g) == 0
}

// IsRectangular reports whether every row has the same length.
func (g Grid) IsRectangular() bool {
	width := g.Width()
	for _, row := range g {
		if len(row) != width {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the grid. Sinks receive clones so that the
// caller's grid is never mutated after handoff.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = row.Clone()
	}
	return out
}

// Prepend returns a new grid with header as its first row.
// A nil or empty header returns the grid unchanged.
func (g Grid) Prepend(header Row) Grid {
	if len(header) == 0 {
		return g
	}
	out := make(Grid, 0, len(g)+1)
	out = append(out, append(Row(nil), header...))
	return append(out, g...)
}

// Normalize returns a grid where every row has the length of the longest
// row in g. Shorter rows are right-padded with empty cells. Rows are never
// truncated or reordered, and normalizing a rectangular grid yields an
// equal grid.
func Normalize(g Grid) Grid {
	width := g.Width()
	out := make(Grid, len(g))
	for i, row := range g {
		padded := make(Row, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}
