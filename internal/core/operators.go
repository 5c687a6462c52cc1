package core

// operators.go implements the three column operators. They are pure: each
// reads the table and returns new column data plus the names it created, and
// leaves the table, order and selection untouched.

import (
	"strings"
)

// OpResult is what an operator produced.
type OpResult struct {
	Columns []NewColumn // new column data, aligned row-for-row with the source table
	Created []string    // names actually created, in creation order
	Skipped []string    // requested names that were not created
}

// Merge joins the non-blank values of columns, row by row, with separator.
// An empty separator concatenates directly.
func Merge(t *Table, columns []string, newColumn, separator string) (OpResult, error) {
	const op = "merge"
	if len(columns) == 0 {
		return OpResult{}, &ColumnNotFoundError{Op: op}
	}
	if isBlank(newColumn) {
		return OpResult{}, &InvalidColumnNameError{Op: op}
	}
	src := make([][]string, len(columns))
	for i, name := range columns {
		c, ok := t.index[name]
		if !ok {
			return OpResult{}, &ColumnNotFoundError{Op: op, Column: name}
		}
		src[i] = t.values[c]
	}
	if t.Has(newColumn) {
		return OpResult{}, &DuplicateColumnNameError{Op: op, Column: newColumn}
	}

	out := make([]string, t.rows)
	parts := make([]string, 0, len(columns))
	for r := 0; r < t.rows; r++ {
		parts = parts[:0]
		for _, col := range src {
			if v := col[r]; !isBlank(v) {
				parts = append(parts, v)
			}
		}
		out[r] = strings.Join(parts, separator)
	}

	return OpResult{
		Columns: []NewColumn{{Name: newColumn, Values: out}},
		Created: []string{newColumn},
	}, nil
}

// Split divides each cell of column on the literal delimiter into at most
// len(names) parts. The last part keeps the unsplit remainder; rows with fewer
// parts are padded with empty strings. Only the first k names are created,
// where k is the largest part count any row produced; the rest are skipped.
func Split(t *Table, column, delimiter string, names []string) (OpResult, error) {
	const op = "split"
	c, ok := t.index[column]
	if !ok {
		return OpResult{}, &ColumnNotFoundError{Op: op, Column: column}
	}
	if delimiter == "" {
		return OpResult{}, &InvalidDelimiterError{Op: op}
	}
	if len(names) == 0 {
		return OpResult{}, &InvalidColumnNameError{Op: op}
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if isBlank(n) {
			return OpResult{}, &InvalidColumnNameError{Op: op}
		}
		if seen[n] || t.Has(n) {
			return OpResult{}, &DuplicateColumnNameError{Op: op, Column: n}
		}
		seen[n] = true
	}

	src := t.values[c]
	cols := make([][]string, len(names))
	for i := range cols {
		cols[i] = make([]string, t.rows)
	}
	produced := 0
	for r, cell := range src {
		parts := strings.SplitN(cell, delimiter, len(names))
		if len(parts) > produced {
			produced = len(parts)
		}
		for i, p := range parts {
			cols[i][r] = p
		}
	}

	res := OpResult{}
	for i, n := range names {
		if i >= produced {
			res.Skipped = append(res.Skipped, n)
			continue
		}
		res.Columns = append(res.Columns, NewColumn{Name: n, Values: cols[i]})
		res.Created = append(res.Created, n)
	}
	return res, nil
}

// AddEmpty creates an empty column for each requested name not already in t.
// Existing names and repeats within the request are reported as skipped.
func AddEmpty(t *Table, names []string) (OpResult, error) {
	const op = "add_empty"
	res := OpResult{}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if isBlank(n) {
			return OpResult{}, &InvalidColumnNameError{Op: op}
		}
	}
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if t.Has(n) {
			res.Skipped = append(res.Skipped, n)
			continue
		}
		res.Columns = append(res.Columns, NewColumn{Name: n, Values: make([]string, t.rows)})
		res.Created = append(res.Created, n)
	}
	return res, nil
}
