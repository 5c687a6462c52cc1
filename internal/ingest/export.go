package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/csvorganizer/internal/core"
)

// EncodeCSV writes t as UTF-8 CSV with a byte-order mark, which spreadsheet
// applications need to detect the encoding.
func EncodeCSV(w io.Writer, t *core.Table) error {
	return encodeDelimited(w, t, ',')
}

func encodeDelimited(w io.Writer, t *core.Table, comma rune) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("encode csv: header: %w", err)
	}
	for r := 0; r < t.RowCount(); r++ {
		if err := cw.Write(t.Row(r)); err != nil {
			return fmt.Errorf("encode csv: row %d: %w", r+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}

// Encode writes t in the given format.
func Encode(w io.Writer, t *core.Table, f Format) error {
	switch f {
	case FormatCSV:
		return EncodeCSV(w, t)
	case FormatTSV:
		return encodeDelimited(w, t, '\t')
	case FormatXLSX:
		return EncodeXLSX(w, t)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// ExportFileName names the export of source: "processed_<base>.<ext>", where
// base is the file name up to its first dot.
func ExportFileName(source string, f Format) string {
	base := filepath.Base(source)
	if stem, _, ok := strings.Cut(base, "."); ok && stem != "" {
		base = stem
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "export"
	}
	return "processed_" + base + "." + string(f)
}
