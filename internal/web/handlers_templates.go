package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvorganizer/internal/core"
	"github.com/JonMunkholm/csvorganizer/internal/logging"
)

// maxTemplateSize bounds an imported template document.
const maxTemplateSize = 1 << 20

// templateSummary is the list form of a template.
type templateSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	Operations      int       `json:"operations"`
	RequiredColumns []string  `json:"required_columns"`
}

func summarize(tpl *core.Template) templateSummary {
	return templateSummary{
		ID:              tpl.ID,
		Name:            tpl.Name,
		Description:     tpl.Description,
		CreatedAt:       tpl.CreatedAt,
		Operations:      len(tpl.Operations),
		RequiredColumns: tpl.RequiredColumns(),
	}
}

// handleListTemplates returns the templates visible to the session.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	var out []templateSummary
	err := s.withSession(r, func(sess *core.Session) error {
		all, err := sess.Templates(r.Context())
		if err != nil {
			return err
		}
		out = make([]templateSummary, 0, len(all))
		for _, tpl := range all {
			out = append(out, summarize(tpl))
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, out)
}

type saveTemplateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleSaveTemplate captures the session's operations, order and selection.
func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req saveTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	var out templateSummary
	err := s.withSession(r, func(sess *core.Session) error {
		tpl, err := sess.SaveTemplate(r.Context(), req.Name, req.Description)
		if err != nil {
			return err
		}
		out = summarize(tpl)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, out)
}

// handleImportTemplate stores an uploaded YAML or JSON template document.
// The document is the request body, or the "file" field of a multipart form.
// A "name" query or form value renames the template; a document without a
// name is named after the uploaded file.
func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTemplateSize)

	var (
		body     io.Reader = r.Body
		filename string
		name     = strings.TrimSpace(r.URL.Query().Get("name"))
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxTemplateSize); err != nil {
			s.fail(w, r, fmt.Errorf("%w form: %v", errBadRequest, err))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			s.fail(w, r, errNoFile)
			return
		}
		defer file.Close()
		body, filename = file, header.Filename
		if v := strings.TrimSpace(r.FormValue("name")); v != "" {
			name = v
		}
	}

	decode := core.DecodeTemplateYAML
	if strings.EqualFold(filepath.Ext(filename), ".json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		decode = core.DecodeTemplateJSON
	}
	tpl, err := decode(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if name != "" {
		tpl.Name = name
	}
	tpl.NameFromFile(filename)

	err = s.withSession(r, func(sess *core.Session) error {
		return sess.ImportTemplate(r.Context(), tpl)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("template imported", "template", tpl.Name)
	writeJSONStatus(w, http.StatusCreated, summarize(tpl))
}

type suggestion struct {
	Name    string   `json:"name"`
	Score   float64  `json:"score"`
	Missing []string `json:"missing,omitempty"`
}

// handleSuggestTemplates ranks templates against the loaded file's columns.
func (s *Server) handleSuggestTemplates(w http.ResponseWriter, r *http.Request) {
	var out []suggestion
	err := s.withSession(r, func(sess *core.Session) error {
		matches, err := sess.SuggestTemplates(r.Context())
		if err != nil {
			return err
		}
		out = make([]suggestion, 0, len(matches))
		for _, m := range matches {
			out = append(out, suggestion{Name: m.Template.Name, Score: m.Score, Missing: m.Missing})
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) lookupTemplate(r *http.Request) (*core.Template, error) {
	var tpl *core.Template
	err := s.withSession(r, func(sess *core.Session) error {
		var err error
		tpl, err = sess.Template(r.Context(), chi.URLParam(r, "name"))
		return err
	})
	return tpl, err
}

// handleGetTemplate returns a template document as JSON.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.lookupTemplate(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, tpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	err := s.withSession(r, func(sess *core.Session) error {
		return sess.DeleteTemplate(r.Context(), chi.URLParam(r, "name"))
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyResponse reports a template replay. Error is set when a step failed;
// steps before it were kept.
type applyResponse struct {
	Steps   []core.StepOutcome `json:"steps"`
	Skipped int                `json:"skipped"`
	Session core.Snapshot      `json:"session"`
	Error   *ErrorResponse     `json:"error,omitempty"`
}

// handleApplyTemplate replays a template against the working table.
func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var (
		resp     applyResponse
		applyErr *core.TemplateApplyError
	)
	err := s.withSession(r, func(sess *core.Session) error {
		res, err := sess.ApplyTemplate(r.Context(), chi.URLParam(r, "name"))
		if err != nil && !errors.As(err, &applyErr) {
			return err
		}
		resp = applyResponse{
			Steps:   res.Steps,
			Skipped: len(res.Skipped()),
			Session: sess.Snapshot(),
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if applyErr != nil {
		msg := core.MapError(applyErr)
		logging.FromContext(r.Context()).Warn("template partially applied",
			"template", applyErr.Template,
			"step", applyErr.Step,
			"error", applyErr.Err,
		)
		errResp := newErrorResponse(msg)
		resp.Error = &errResp
		writeJSONStatus(w, statusFor(applyErr), resp)
		return
	}
	writeJSON(w, resp)
}

// handleDownloadTemplate serves a template as a YAML (default) or JSON file.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.lookupTemplate(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
		ext         string
	)
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "yaml", "yml":
		contentType, ext = "application/yaml", "yaml"
		err = core.EncodeTemplateYAML(&buf, tpl)
	case "json":
		contentType, ext = "application/json", "json"
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(tpl)
	default:
		err = fmt.Errorf("%w: unknown template format %q", errBadRequest, r.URL.Query().Get("format"))
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	attachment(w, contentType, templateFileName(tpl.Name)+"."+ext)
	_, _ = buf.WriteTo(w)
}

// templateFileName turns a template name into a safe file stem.
func templateFileName(name string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if strings.Trim(stem, "_") == "" {
		return "template"
	}
	return stem
}
