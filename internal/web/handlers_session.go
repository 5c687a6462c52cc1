package web

import (
	"net/http"

	"github.com/JonMunkholm/csvorganizer/internal/core"
	"github.com/JonMunkholm/csvorganizer/internal/logging"
	"github.com/JonMunkholm/csvorganizer/internal/web/templates"
)

// handleIndex renders the landing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = templates.Index(templates.IndexData{
		ActiveSessions: s.service.Count(),
		MaxFileSizeMB:  s.cfg.Upload.MaxFileSize >> 20,
		TemplateStore:  s.cfg.Store.Kind,
	}).Render(r.Context(), w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// statusResponse reports server load.
type statusResponse struct {
	Sessions    int                    `json:"sessions"`
	MaxSessions int                    `json:"max_sessions"`
	Loads       core.LoadLimiterStatus `json:"loads"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusResponse{
		Sessions:    s.service.Count(),
		MaxSessions: s.cfg.Session.MaxSessions,
		Loads:       s.loads.Status(),
	})
}

// handleCreateSession starts an empty session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.Create(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var snap core.Snapshot
	err = s.service.Do(r.Context(), id, func(sess *core.Session) error {
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+id)
	respondSession(w, r, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	var snap core.Snapshot
	err := s.withSession(r, func(sess *core.Session) error {
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondSession(w, r, http.StatusOK, snap)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(sessionID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	mode, err := core.ParseMode(req.Mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var snap core.Snapshot
	err = s.withSession(r, func(sess *core.Session) error {
		if err := sess.SetMode(mode); err != nil {
			return err
		}
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondSession(w, r, http.StatusOK, snap)
}

type mergeRequest struct {
	Columns   []string `json:"columns"`
	NewColumn string   `json:"new_column"`
	Separator string   `json:"separator"`
}

type splitRequest struct {
	Column     string   `json:"column"`
	Delimiter  string   `json:"delimiter"`
	NewColumns []string `json:"new_columns"`
}

type emptyRequest struct {
	Names []string `json:"names"`
}

// operationResponse reports one column operation.
type operationResponse struct {
	Outcome core.Outcome  `json:"outcome"`
	Session core.Snapshot `json:"session"`
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.runOperation(w, r, func(sess *core.Session) (core.Outcome, error) {
		return sess.Merge(req.Columns, req.NewColumn, req.Separator)
	})
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.runOperation(w, r, func(sess *core.Session) (core.Outcome, error) {
		return sess.Split(req.Column, req.Delimiter, req.NewColumns)
	})
}

func (s *Server) handleAddEmpty(w http.ResponseWriter, r *http.Request) {
	var req emptyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.runOperation(w, r, func(sess *core.Session) (core.Outcome, error) {
		return sess.AddEmpty(req.Names)
	})
}

func (s *Server) runOperation(w http.ResponseWriter, r *http.Request, op func(*core.Session) (core.Outcome, error)) {
	var resp operationResponse
	err := s.withSession(r, func(sess *core.Session) error {
		out, err := op(sess)
		if err != nil {
			return err
		}
		resp = operationResponse{Outcome: out, Session: sess.Snapshot()}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("column operation",
		"kind", resp.Outcome.Kind,
		"applied", resp.Outcome.Applied,
		"created", resp.Outcome.Created,
	)
	writeJSON(w, resp)
}

func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	s.updateColumns(w, r, func(sess *core.Session) error {
		sess.SelectAll()
		return nil
	})
}

func (s *Server) handleDeselectAll(w http.ResponseWriter, r *http.Request) {
	s.updateColumns(w, r, func(sess *core.Session) error {
		sess.DeselectAll()
		return nil
	})
}

type toggleRequest struct {
	Column   string `json:"column"`
	Selected bool   `json:"selected"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.updateColumns(w, r, func(sess *core.Session) error {
		return sess.Toggle(req.Column, req.Selected)
	})
}

type moveRequest struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

type moveResponse struct {
	Moved   bool          `json:"moved"`
	Session core.Snapshot `json:"session"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	var resp moveResponse
	err := s.withSession(r, func(sess *core.Session) error {
		moved, err := sess.Move(req.Column, core.Direction(req.Direction))
		if err != nil {
			return err
		}
		resp = moveResponse{Moved: moved, Session: sess.Snapshot()}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, resp)
}

// updateColumns applies an order or selection change and returns the snapshot.
func (s *Server) updateColumns(w http.ResponseWriter, r *http.Request, fn func(*core.Session) error) {
	var snap core.Snapshot
	err := s.withSession(r, func(sess *core.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondSession(w, r, http.StatusOK, snap)
}
