package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawTable is what an external loader hands to the core: an ordered header and
// positionally aligned rows of loosely typed cell values.
type RawTable struct {
	Header []string
	Rows   [][]any
}

// Table is an ordered set of uniquely named text columns with equal row counts.
//
// A Table is never mutated after construction. Operators produce new column
// data and the session derives a new Table from it.
type Table struct {
	names  []string
	index  map[string]int
	values [][]string // values[col][row]
	rows   int
}

// NewColumn is a named column of cell values produced by an operator.
type NewColumn struct {
	Name   string
	Values []string
}

// LoadTable builds a Table from raw input.
//
// Duplicate header names are disambiguated in order of appearance: the first
// occurrence keeps its name, later ones become name_1, name_2, ... Missing
// cells (nil, NaN) become empty strings. Ragged input yields a *LoadError.
func LoadTable(raw RawTable) (*Table, error) {
	if len(raw.Header) == 0 {
		if len(raw.Rows) > 0 {
			return nil, &LoadError{Row: 1, Reason: "rows present but header is empty"}
		}
		return emptyTable(), nil
	}

	width := len(raw.Header)
	for i, row := range raw.Rows {
		if len(row) != width {
			return nil, &LoadError{
				Row:    i + 1,
				Reason: fmt.Sprintf("row has %d cells, header has %d", len(row), width),
			}
		}
	}

	names := DisambiguateNames(raw.Header)
	t := &Table{
		names:  names,
		index:  make(map[string]int, len(names)),
		values: make([][]string, len(names)),
		rows:   len(raw.Rows),
	}
	for c, name := range names {
		t.index[name] = c
		col := make([]string, len(raw.Rows))
		for r, row := range raw.Rows {
			col[r] = CellText(row[c])
		}
		t.values[c] = col
	}
	return t, nil
}

// TableFromColumns builds a Table from already text-coerced columns.
// Names must be unique and all columns must share the same length.
func TableFromColumns(cols []NewColumn) (*Table, error) {
	t := emptyTable()
	if len(cols) == 0 {
		return t, nil
	}
	t.rows = len(cols[0].Values)
	for _, col := range cols {
		if _, dup := t.index[col.Name]; dup {
			return nil, &DuplicateColumnNameError{Op: "load", Column: col.Name}
		}
		if len(col.Values) != t.rows {
			return nil, &LoadError{Reason: fmt.Sprintf("column %q has %d rows, want %d", col.Name, len(col.Values), t.rows)}
		}
		t.index[col.Name] = len(t.names)
		t.names = append(t.names, col.Name)
		t.values = append(t.values, col.Values)
	}
	return t, nil
}

func emptyTable() *Table {
	return &Table{index: make(map[string]int)}
}

// DisambiguateNames returns a copy of names where repeated names are suffixed
// with _1, _2, ... in order of appearance. A generated name that is already
// taken bumps the counter further so the result is always unique.
func DisambiguateNames(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}

	seen := make(map[string]bool, len(names))
	next := make(map[string]int)
	for i, n := range names {
		if !seen[n] {
			seen[n] = true
			out[i] = n
			continue
		}
		k := next[n]
		var candidate string
		for {
			k++
			candidate = n + "_" + strconv.Itoa(k)
			if !taken[candidate] {
				break
			}
		}
		next[n] = k
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

// CellText coerces a loosely typed cell to its text form.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.names...)
}

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.names) }

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return t.rows }

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]string, bool) {
	c, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), t.values[c]...), true
}

// Cell returns the value at row r of the named column.
func (t *Table) Cell(name string, r int) string {
	c, ok := t.index[name]
	if !ok || r < 0 || r >= t.rows {
		return ""
	}
	return t.values[c][r]
}

// Row returns row r in column order.
func (t *Table) Row(r int) []string {
	row := make([]string, len(t.names))
	for c := range t.names {
		row[c] = t.values[c][r]
	}
	return row
}

// Rows returns all rows in column order.
func (t *Table) Rows() [][]string {
	out := make([][]string, t.rows)
	for r := range out {
		out[r] = t.Row(r)
	}
	return out
}

// Head returns a table with at most n leading rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= t.rows {
		return t
	}
	h := &Table{names: t.names, index: t.index, values: make([][]string, len(t.values)), rows: n}
	for c := range t.values {
		h.values[c] = t.values[c][:n]
	}
	return h
}

// Project returns a table with exactly the given columns in the given order.
// Names absent from t are materialized as empty columns.
func (t *Table) Project(names []string) *Table {
	p := &Table{
		names:  make([]string, 0, len(names)),
		index:  make(map[string]int, len(names)),
		values: make([][]string, 0, len(names)),
		rows:   t.rows,
	}
	for _, name := range names {
		if _, dup := p.index[name]; dup {
			continue
		}
		var col []string
		if c, ok := t.index[name]; ok {
			col = t.values[c]
		} else {
			col = make([]string, t.rows)
		}
		p.index[name] = len(p.names)
		p.names = append(p.names, name)
		p.values = append(p.values, col)
	}
	return p
}

// withColumns returns a new table with cols appended. Column slices of t are
// shared, never written.
func (t *Table) withColumns(cols []NewColumn) *Table {
	if len(cols) == 0 {
		return t
	}
	n := &Table{
		names:  make([]string, len(t.names), len(t.names)+len(cols)),
		index:  make(map[string]int, len(t.names)+len(cols)),
		values: make([][]string, len(t.values), len(t.values)+len(cols)),
		rows:   t.rows,
	}
	copy(n.names, t.names)
	copy(n.values, t.values)
	for k, v := range t.index {
		n.index[k] = v
	}
	for _, col := range cols {
		n.index[col.Name] = len(n.names)
		n.names = append(n.names, col.Name)
		n.values = append(n.values, col.Values)
	}
	return n
}

// isBlank reports whether a cell is empty or whitespace only.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
