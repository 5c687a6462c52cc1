package ingest

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"

	"github.com/JonMunkholm/csvorganizer/internal/core"
)

func rowsAsStrings(raw core.RawTable) [][]string {
	out := make([][]string, len(raw.Rows))
	for i, row := range raw.Rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = core.CellText(v)
		}
	}
	return out
}

func TestDecode_CSV(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		data       []byte
		opts       Options
		wantHeader []string
		wantRows   [][]string
	}{
		{
			name:       "plain csv",
			file:       "a.csv",
			data:       []byte("a,b\n1,2\n"),
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"1", "2"}},
		},
		{
			name:       "bom stripped",
			file:       "a.csv",
			data:       append([]byte{0xEF, 0xBB, 0xBF}, "name,age\nJane,30\n"...),
			wantHeader: []string{"name", "age"},
			wantRows:   [][]string{{"Jane", "30"}},
		},
		{
			name:       "header row offset",
			file:       "a.csv",
			data:       []byte("report title\n\nx,y\n1,2\n"),
			opts:       Options{HeaderRow: 1},
			wantHeader: []string{"x", "y"},
			wantRows:   [][]string{{"1", "2"}},
		},
		{
			name:       "tsv by extension",
			file:       "a.tsv",
			data:       []byte("a\tb\n1\t2\n"),
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"1", "2"}},
		},
		{
			name:       "explicit delimiter",
			file:       "a.txt",
			data:       []byte("a;b\n1;2\n"),
			opts:       Options{Comma: ';'},
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"1", "2"}},
		},
		{
			name:       "empty headers named",
			file:       "a.csv",
			data:       []byte("a,,b,\n1,2,3,4\n"),
			wantHeader: []string{"a", "Unnamed_A", "b", "Unnamed_B"},
			wantRows:   [][]string{{"1", "2", "3", "4"}},
		},
		{
			name:       "explicit utf-8 replaces invalid bytes",
			file:       "a.csv",
			data:       []byte("a\nx\xffy\n"),
			opts:       Options{Encoding: "utf-8"},
			wantHeader: []string{"a"},
			wantRows:   [][]string{{"x�y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Decode(tt.file, bytes.NewReader(tt.data), tt.opts)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(raw.Header, tt.wantHeader) {
				t.Errorf("Decode() header = %q, want %q", raw.Header, tt.wantHeader)
			}
			if got := rowsAsStrings(raw); !reflect.DeepEqual(got, tt.wantRows) {
				t.Errorf("Decode() rows = %q, want %q", got, tt.wantRows)
			}
		})
	}
}

func TestDecode_ShiftJIS(t *testing.T) {
	src := "氏名,住所\n山田,東京\n"
	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(src))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	for _, enc := range []string{"", "auto", "cp932", "shift_jis"} {
		t.Run("encoding="+enc, func(t *testing.T) {
			raw, err := Decode("jp.csv", bytes.NewReader(encoded), Options{Encoding: enc})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if want := []string{"氏名", "住所"}; !reflect.DeepEqual(raw.Header, want) {
				t.Errorf("Decode() header = %q, want %q", raw.Header, want)
			}
			if got := rowsAsStrings(raw); !reflect.DeepEqual(got, [][]string{{"山田", "東京"}}) {
				t.Errorf("Decode() rows = %q", got)
			}
		})
	}
}

func TestDecode_RaggedCSVReachesCore(t *testing.T) {
	raw, err := Decode("a.csv", strings.NewReader("a,b\n1\n"), Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	var le *core.LoadError
	if _, err := core.LoadTable(raw); !errors.As(err, &le) {
		t.Errorf("LoadTable() error = %v, want *core.LoadError", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		opts Options
		want error
	}{
		{"legacy xls", "a.xls", "", Options{}, ErrUnsupportedFormat},
		{"no extension", "data", "a\n1", Options{}, ErrUnsupportedFormat},
		{"empty csv", "a.csv", "", Options{}, ErrEmptyFile},
		{"header row past end", "a.csv", "a\n1\n", Options{HeaderRow: 5}, ErrEmptyFile},
		{"header row out of range", "a.csv", "a\n", Options{HeaderRow: 21}, ErrInvalidHeaderRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.file, strings.NewReader(tt.data), tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Decode("a.csv", strings.NewReader("a\n"), Options{Encoding: "klingon"}); err == nil || !strings.Contains(err.Error(), "encoding error") {
		t.Errorf("Decode(unknown encoding) error = %v, want encoding error", err)
	}
}

func TestDecode_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"id", "", "name"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{1, "x", "Jane", "extra"})
	_ = f.SetSheetRow("Sheet1", "A3", &[]any{2})
	if _, err := f.NewSheet("Other"); err != nil {
		t.Fatal(err)
	}
	_ = f.SetSheetRow("Other", "A1", &[]any{"only"})

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	raw, err := Decode("book.xlsx", bytes.NewReader(data), Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if want := []string{"id", "Unnamed_A", "name", "Unnamed_B"}; !reflect.DeepEqual(raw.Header, want) {
		t.Errorf("Decode() header = %q, want %q", raw.Header, want)
	}
	want := [][]string{{"1", "x", "Jane", "extra"}, {"2", "", "", ""}}
	if got := rowsAsStrings(raw); !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() rows = %q, want %q", got, want)
	}
	if _, err := core.LoadTable(raw); err != nil {
		t.Errorf("LoadTable() error = %v", err)
	}

	other, err := Decode("book.xlsx", bytes.NewReader(data), Options{Sheet: "Other"})
	if err != nil {
		t.Fatalf("Decode(Other) error = %v", err)
	}
	if !reflect.DeepEqual(other.Header, []string{"only"}) {
		t.Errorf("Decode(Other) header = %q", other.Header)
	}

	if _, err := Decode("book.xlsx", bytes.NewReader(data), Options{Sheet: "Missing"}); err == nil {
		t.Error("Decode(missing sheet) error = nil")
	}
}

func TestNormalizeHeaders(t *testing.T) {
	in := make([]string, 28)
	in[0] = "keep"
	got := NormalizeHeaders(in)
	if got[0] != "keep" || got[1] != "Unnamed_A" || got[26] != "Unnamed_Z" || got[27] != "Unnamed_AA" {
		t.Errorf("NormalizeHeaders() = %q", got)
	}
}
