package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/csvorganizer/internal/core"
	"github.com/JonMunkholm/csvorganizer/internal/ingest"
	"github.com/JonMunkholm/csvorganizer/internal/logging"
)

// multipartMemory is how much of a multipart form is kept in memory; the
// rest spills to temporary files.
const multipartMemory = 32 << 20

// maxPreviewRows bounds the limit query parameter of preview.
const maxPreviewRows = 1000

// uploadResponse reports a file load.
type uploadResponse struct {
	Load    core.LoadResult `json:"load"`
	Session core.Snapshot   `json:"session"`
}

// handleUpload decodes an uploaded file and loads it into the session.
//
// Form fields: file (required), header_row, encoding, sheet, delimiter.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, fmt.Errorf("file too large: %w", err))
			return
		}
		s.fail(w, r, fmt.Errorf("%w form: %v", errBadRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, errNoFile)
		return
	}
	defer file.Close()

	opts, err := uploadOptions(r, s.cfg.Upload.Encoding)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	logger := logging.WithFields(ctx, "file", header.Filename, "size", header.Size)

	var raw core.RawTable
	err = s.loads.Run(ctx, func() error {
		var err error
		raw, err = ingest.Decode(header.Filename, file, opts)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var resp uploadResponse
	err = s.service.Do(ctx, sessionID(r), func(sess *core.Session) error {
		res, err := sess.Load(header.Filename, raw)
		if err != nil {
			return err
		}
		resp = uploadResponse{Load: res, Session: sess.Snapshot()}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logger.Info("file loaded",
		"rows", resp.Load.Rows,
		"columns", resp.Load.Columns,
		"reloaded", resp.Load.Reloaded,
	)
	writeJSON(w, resp)
}

// uploadOptions reads decode options from the parsed form.
func uploadOptions(r *http.Request, defaultEncoding string) (ingest.Options, error) {
	opts := ingest.Options{
		Encoding: defaultEncoding,
		Sheet:    r.FormValue("sheet"),
	}
	if v := r.FormValue("encoding"); v != "" {
		opts.Encoding = v
	}
	if v := r.FormValue("header_row"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%w: header_row %q is not a number", errBadRequest, v)
		}
		opts.HeaderRow = n
	}
	if v := r.FormValue("delimiter"); v != "" {
		if v == `\t` {
			v = "\t"
		}
		runes := []rune(v)
		if len(runes) != 1 {
			return opts, fmt.Errorf("%w: delimiter must be a single character", errBadRequest)
		}
		opts.Comma = runes[0]
	}
	return opts, nil
}

// handlePreview returns the first rows of the working table.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", s.cfg.Upload.PreviewRows), maxPreviewRows)

	var resp tableResponse
	err := s.withSession(r, func(sess *core.Session) error {
		t, err := sess.Preview(limit)
		if err != nil {
			return err
		}
		resp = tableResponse{Columns: t.Columns(), Rows: t.Rows(), TotalRows: sess.Table().RowCount()}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, resp)
}

// handleExport streams the selected columns as CSV or XLSX.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := ingest.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var (
		out      *core.Table
		filename string
	)
	err = s.withSession(r, func(sess *core.Session) error {
		t, err := sess.Export()
		if err != nil {
			return err
		}
		out = t
		filename = ingest.ExportFileName(sess.FileName(), format)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// Encode fully before writing so a failure can still produce an error status.
	var buf bytes.Buffer
	if err := ingest.Encode(&buf, out, format); err != nil {
		s.fail(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("export",
		"file", filename,
		"rows", out.RowCount(),
		"columns", out.Width(),
	)
	attachment(w, format.ContentType(), filename)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
