package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textEncoding resolves an encoding name. A nil encoding means auto-detect.
func textEncoding(name string) (encoding.Encoding, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	switch n {
	case "", "auto":
		return nil, nil
	case "utf-8", "utf8", "utf-8-sig":
		return unicode.UTF8, nil
	case "shift-jis", "sjis", "cp932", "windows-31j", "ms932":
		return japanese.ShiftJIS, nil
	case "euc-jp", "eucjp":
		return japanese.EUCJP, nil
	}
	return nil, fmt.Errorf("encoding error: unknown encoding %q", name)
}

// textReader returns r decoded to UTF-8 with any byte-order mark removed.
//
// In auto mode the input is used as-is when it is valid UTF-8 and decoded as
// Shift_JIS (Windows code page 932) otherwise. An explicit UTF-8 encoding
// replaces invalid bytes with U+FFFD.
func textReader(r io.Reader, encName string) (io.Reader, error) {
	enc, err := textEncoding(encName)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return bytes.NewReader(data), nil
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("encoding error: input is neither UTF-8 nor Shift_JIS: %w", err)
	}
	return bytes.NewReader(decoded), nil
}

func readDelimited(r io.Reader, encName string, comma rune) ([][]string, error) {
	tr, err := textReader(r, encName)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(tr)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return records, nil
}
