package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/csvorganizer/internal/core"
	"github.com/JonMunkholm/csvorganizer/internal/web/templates"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

var (
	errBadRequest = errors.New("invalid request")
	errNoFile     = errors.New("no file provided")
)

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w body: %v", errBadRequest, err)
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// withSession runs fn on the request's session.
func (s *Server) withSession(r *http.Request, fn func(*core.Session) error) error {
	return s.service.Do(r.Context(), sessionID(r), fn)
}

// respondSession writes a session snapshot: a panel for HTMX, JSON otherwise.
func respondSession(w http.ResponseWriter, r *http.Request, status int, snap core.Snapshot) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.SessionPanel(snap).Render(r.Context(), w)
		return
	}
	writeJSONStatus(w, status, snap)
}

// attachment sets headers for a file download.
func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// tableResponse is the JSON form of a table.
type tableResponse struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
}
