package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestMerge(t *testing.T) {
	tbl := mustLoad(t, []string{"first", "last", "mid"},
		[]any{"Jane", "Doe", " "},
		[]any{"", "Lee", "Q"},
	)

	tests := []struct {
		name    string
		columns []string
		sep     string
		want    []string
	}{
		{"drops blank first", []string{"first", "last"}, " ", []string{"Jane Doe", "Lee"}},
		{"order follows request", []string{"last", "first"}, ", ", []string{"Doe, Jane", "Lee"}},
		{"empty separator concatenates", []string{"first", "mid", "last"}, "", []string{"JaneDoe", "QLee"}},
		{"single column", []string{"first"}, "-", []string{"Jane", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Merge(tbl, tt.columns, "out", tt.sep)
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if !reflect.DeepEqual(res.Created, []string{"out"}) {
				t.Errorf("Merge() created = %v, want [out]", res.Created)
			}
			if got := res.Columns[0].Values; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge() values = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMerge_Errors(t *testing.T) {
	tbl := mustLoad(t, []string{"a", "b"}, []any{"1", "2"})

	var cnf *ColumnNotFoundError
	if _, err := Merge(tbl, nil, "x", " "); !errors.As(err, &cnf) {
		t.Errorf("Merge(no columns) error = %v, want *ColumnNotFoundError", err)
	}
	if _, err := Merge(tbl, []string{"a", "zz"}, "x", " "); !errors.As(err, &cnf) || cnf.Column != "zz" {
		t.Errorf("Merge(missing) error = %v, want *ColumnNotFoundError for zz", err)
	}
	var dup *DuplicateColumnNameError
	if _, err := Merge(tbl, []string{"a"}, "b", " "); !errors.As(err, &dup) {
		t.Errorf("Merge(existing name) error = %v, want *DuplicateColumnNameError", err)
	}
	var inv *InvalidColumnNameError
	if _, err := Merge(tbl, []string{"a"}, "  ", " "); !errors.As(err, &inv) {
		t.Errorf("Merge(blank name) error = %v, want *InvalidColumnNameError", err)
	}
}

func TestMerge_RowCountMatchesTable(t *testing.T) {
	var rows [][]any
	for i := 0; i < 50; i++ {
		rows = append(rows, []any{"x", ""})
	}
	tbl := mustLoad(t, []string{"a", "b"}, rows...)

	res, err := Merge(tbl, []string{"a", "b"}, "m", "|")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got := len(res.Columns[0].Values); got != tbl.RowCount() {
		t.Errorf("merged rows = %d, want %d", got, tbl.RowCount())
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name        string
		cells       []string
		delim       string
		names       []string
		wantCreated []string
		wantSkipped []string
		wantValues  [][]string // per created column
	}{
		{
			name:        "last name absorbs remainder",
			cells:       []string{"Jane Doe Smith"},
			delim:       " ",
			names:       []string{"first", "last"},
			wantCreated: []string{"first", "last"},
			wantValues:  [][]string{{"Jane"}, {"Doe Smith"}},
		},
		{
			name:        "fixed count with remainder on dash",
			cells:       []string{"a-b-c"},
			delim:       "-",
			names:       []string{"p1", "p2"},
			wantCreated: []string{"p1", "p2"},
			wantValues:  [][]string{{"a"}, {"b-c"}},
		},
		{
			name:        "short rows padded",
			cells:       []string{"a-b-c", "d", ""},
			delim:       "-",
			names:       []string{"x", "y", "z"},
			wantCreated: []string{"x", "y", "z"},
			wantValues:  [][]string{{"a", "d", ""}, {"b", "", ""}, {"c", "", ""}},
		},
		{
			name:        "names beyond produced parts skipped",
			cells:       []string{"a-b", "c"},
			delim:       "-",
			names:       []string{"x", "y", "z"},
			wantCreated: []string{"x", "y"},
			wantSkipped: []string{"z"},
			wantValues:  [][]string{{"a", "c"}, {"b", ""}},
		},
		{
			name:        "multi-character delimiter",
			cells:       []string{"k::v"},
			delim:       "::",
			names:       []string{"k", "v"},
			wantCreated: []string{"k", "v"},
			wantValues:  [][]string{{"k"}, {"v"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]any, len(tt.cells))
			for i, c := range tt.cells {
				rows[i] = []any{c}
			}
			tbl := mustLoad(t, []string{"src"}, rows...)

			res, err := Split(tbl, "src", tt.delim, tt.names)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if !reflect.DeepEqual(res.Created, tt.wantCreated) {
				t.Errorf("Split() created = %v, want %v", res.Created, tt.wantCreated)
			}
			if !reflect.DeepEqual(res.Skipped, tt.wantSkipped) {
				t.Errorf("Split() skipped = %v, want %v", res.Skipped, tt.wantSkipped)
			}
			for i, col := range res.Columns {
				if !reflect.DeepEqual(col.Values, tt.wantValues[i]) {
					t.Errorf("Split() column %s = %q, want %q", col.Name, col.Values, tt.wantValues[i])
				}
			}
		})
	}
}

func TestSplit_NoRowsCreatesNothing(t *testing.T) {
	tbl := mustLoad(t, []string{"src"})

	res, err := Split(tbl, "src", "-", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(res.Created) != 0 {
		t.Errorf("Split() created = %v, want none", res.Created)
	}
	if !reflect.DeepEqual(res.Skipped, []string{"a", "b"}) {
		t.Errorf("Split() skipped = %v, want [a b]", res.Skipped)
	}
}

func TestSplit_Errors(t *testing.T) {
	tbl := mustLoad(t, []string{"src", "taken"}, []any{"a b", "x"})

	tests := []struct {
		name   string
		column string
		delim  string
		names  []string
		check  func(error) bool
	}{
		{"missing column", "nope", " ", []string{"a"}, func(err error) bool { var e *ColumnNotFoundError; return errors.As(err, &e) }},
		{"empty delimiter", "src", "", []string{"a"}, func(err error) bool { var e *InvalidDelimiterError; return errors.As(err, &e) }},
		{"no names", "src", " ", nil, func(err error) bool { var e *InvalidColumnNameError; return errors.As(err, &e) }},
		{"blank name", "src", " ", []string{"a", ""}, func(err error) bool { var e *InvalidColumnNameError; return errors.As(err, &e) }},
		{"repeated name", "src", " ", []string{"a", "a"}, func(err error) bool { var e *DuplicateColumnNameError; return errors.As(err, &e) }},
		{"existing name", "src", " ", []string{"a", "taken"}, func(err error) bool { var e *DuplicateColumnNameError; return errors.As(err, &e) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tbl, tt.column, tt.delim, tt.names)
			if !tt.check(err) {
				t.Errorf("Split() error = %v", err)
			}
		})
	}
}

// Re-merging split output with the same delimiter reproduces the source
// unless a part is blank: merge drops blank values and their delimiters.
func TestSplitThenMerge_RoundTrip(t *testing.T) {
	tests := []struct {
		cell      string
		wantSplit [2]string
		wantBack  string
	}{
		{"a-b", [2]string{"a", "b"}, "a-b"},
		{"a-b-c", [2]string{"a", "b-c"}, "a-b-c"},
		{"a--b", [2]string{"a", "-b"}, "a--b"},
		{"a", [2]string{"a", ""}, "a"},
		{"-b", [2]string{"", "b"}, "b"},
		{"a-", [2]string{"a", ""}, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			// The second row guarantees both target columns are created.
			tbl := mustLoad(t, []string{"src"}, []any{tt.cell}, []any{"p-q"})

			res, err := Split(tbl, "src", "-", []string{"x", "y"})
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			split := tbl.withColumns(res.Columns)
			if got := [2]string{split.Cell("x", 0), split.Cell("y", 0)}; got != tt.wantSplit {
				t.Errorf("Split(%q) = %q, want %q", tt.cell, got, tt.wantSplit)
			}

			merged, err := Merge(split, []string{"x", "y"}, "back", "-")
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if got := merged.Columns[0].Values[0]; got != tt.wantBack {
				t.Errorf("Merge(Split(%q)) = %q, want %q", tt.cell, got, tt.wantBack)
			}
		})
	}
}

func TestAddEmpty(t *testing.T) {
	tbl := mustLoad(t, []string{"a"}, []any{"1"}, []any{"2"})

	tests := []struct {
		name        string
		names       []string
		wantCreated []string
		wantSkipped []string
	}{
		{"dedup within request", []string{"x", "x"}, []string{"x"}, nil},
		{"existing skipped", []string{"a", "y"}, []string{"y"}, []string{"a"}},
		{"nothing new", []string{"a"}, nil, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := AddEmpty(tbl, tt.names)
			if err != nil {
				t.Fatalf("AddEmpty() error = %v", err)
			}
			if !reflect.DeepEqual(res.Created, tt.wantCreated) {
				t.Errorf("AddEmpty() created = %v, want %v", res.Created, tt.wantCreated)
			}
			if !reflect.DeepEqual(res.Skipped, tt.wantSkipped) {
				t.Errorf("AddEmpty() skipped = %v, want %v", res.Skipped, tt.wantSkipped)
			}
			for _, col := range res.Columns {
				if !reflect.DeepEqual(col.Values, []string{"", ""}) {
					t.Errorf("AddEmpty() column %s = %q, want two empty cells", col.Name, col.Values)
				}
			}
		})
	}
}

func TestAddEmpty_BlankName(t *testing.T) {
	tbl := mustLoad(t, []string{"a"})
	var inv *InvalidColumnNameError
	if _, err := AddEmpty(tbl, []string{"ok", " "}); !errors.As(err, &inv) {
		t.Errorf("AddEmpty() error = %v, want *InvalidColumnNameError", err)
	}
}
