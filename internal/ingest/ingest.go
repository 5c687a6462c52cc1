// Package ingest turns uploaded files into core.RawTable values and encodes
// exported tables back into files.
//
// Supported inputs are delimited text (.csv, .txt, .tsv) and Excel workbooks
// (.xlsx, .xlsm). Legacy .xls workbooks are rejected.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/csvorganizer/internal/core"
)

// MaxHeaderRow is the largest accepted header row offset.
const MaxHeaderRow = 20

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("empty file")
	ErrInvalidHeaderRow  = fmt.Errorf("invalid header row: must be between 0 and %d", MaxHeaderRow)
)

// Format is a tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type used when serving a file of this format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatTSV:
		return FormatTSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromName picks the input format from a file name's extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

// Options control decoding.
type Options struct {
	// HeaderRow is the 0-based row holding column names; earlier rows are
	// discarded.
	HeaderRow int
	// Encoding of text files: "auto" (default), "utf-8", "shift_jis",
	// "cp932" or "euc-jp".
	Encoding string
	// Comma overrides the field delimiter of text files.
	Comma rune
	// Sheet selects a workbook sheet by name; the first sheet by default.
	Sheet string
}

// Decode reads the file called name from r.
//
// Empty header cells are named Unnamed_A, Unnamed_B, ... Rows are passed
// through as-is; a ragged text file is reported by core.LoadTable, not here.
func Decode(name string, r io.Reader, opts Options) (core.RawTable, error) {
	if opts.HeaderRow < 0 || opts.HeaderRow > MaxHeaderRow {
		return core.RawTable{}, ErrInvalidHeaderRow
	}
	format, err := FormatFromName(name)
	if err != nil {
		return core.RawTable{}, err
	}

	var records [][]string
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r, opts.Sheet)
	default:
		comma := opts.Comma
		if comma == 0 {
			comma = ','
			if format == FormatTSV {
				comma = '\t'
			}
		}
		records, err = readDelimited(r, opts.Encoding, comma)
	}
	if err != nil {
		return core.RawTable{}, fmt.Errorf("decode %s: %w", name, err)
	}

	if len(records) <= opts.HeaderRow {
		return core.RawTable{}, fmt.Errorf("decode %s: %w: no header at row %d", name, ErrEmptyFile, opts.HeaderRow)
	}
	records = records[opts.HeaderRow:]

	header := records[0]
	if format == FormatXLSX {
		// Workbook rows stop at their last non-empty cell; square them up.
		width := len(header)
		for _, rec := range records[1:] {
			width = max(width, len(rec))
		}
		header = pad(header, width)
		for i := 1; i < len(records); i++ {
			records[i] = pad(records[i], width)
		}
	}

	raw := core.RawTable{
		Header: NormalizeHeaders(header),
		Rows:   make([][]any, 0, len(records)-1),
	}
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}

func pad(rec []string, width int) []string {
	if len(rec) >= width {
		return rec
	}
	out := make([]string, width)
	copy(out, rec)
	return out
}

// excelColumnName converts a 0-based index to an Excel-style column name:
// 0 -> A, 25 -> Z, 26 -> AA.
func excelColumnName(index int) string {
	name := ""
	for index++; index > 0; index /= 26 {
		index--
		name = string(rune('A'+index%26)) + name
	}
	return name
}

// NormalizeHeaders replaces empty or whitespace-only header cells with
// Unnamed_A, Unnamed_B, ... counting only the empty cells. Other names are
// kept as-is.
func NormalizeHeaders(header []string) []string {
	out := make([]string, len(header))
	empty := 0
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			out[i] = "Unnamed_" + excelColumnName(empty)
			empty++
			continue
		}
		out[i] = h
	}
	return out
}
