package acquire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/fiisheet/internal/grid"
)

// Record is one JSON object returned by a search or lookup endpoint.
type Record = map[string]any

// Project maps a record onto fields in order. A field missing from the
// record yields an empty cell, so the row always has len(fields) cells.
//
// A field containing dots that is not a key of the record is resolved as
// a path into nested objects ("stats.dy").
func Project(rec Record, fields []string) grid.Row {
	row := make(grid.Row, len(fields))
	for i, field := range fields {
		row[i] = FormatCell(lookup(rec, field))
	}
	return row
}

func lookup(rec Record, field string) any {
	if v, ok := rec[field]; ok {
		return v
	}
	if !strings.Contains(field, ".") {
		return nil
	}
	var cur any = rec
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[part]
	}
	return cur
}

// FormatCell renders a decoded JSON value as cell text. Numbers keep the
// textual form sent by the server when decoded with UseNumber; nested
// arrays and objects are rendered as compact JSON.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
