package core

// session.go implements the per-session controller. A Session owns the
// working table, the column tracker, the log of operations applied since the
// current file was loaded, and a template store.
//
// A Session is not safe for concurrent use; Service serializes access.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SampleMaxRunes bounds the sample value shown per column.
const SampleMaxRunes = 20

// State is the lifecycle state of a session.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateModified // operators applied since load; still loaded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateModified:
		return "modified"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Mode selects how a new file is treated.
type Mode string

const (
	// ModeManual resets order and selection when a different file is loaded.
	ModeManual Mode = "manual"
	// ModeTemplate keeps order and selection so an applied template governs them.
	ModeTemplate Mode = "template"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeManual, ModeTemplate:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Session is one user's working state.
type Session struct {
	id        string
	fileName  string
	table     *Table
	tracker   *ColumnTracker
	ops       []Operation
	mode      Mode
	state     State
	templates TemplateStore
	now       func() time.Time
}

// NewSession returns an empty session. A nil store gets a fresh in-memory one.
func NewSession(id string, templates TemplateStore) *Session {
	if templates == nil {
		templates = NewMemoryTemplateStore()
	}
	return &Session{
		id:        id,
		tracker:   NewColumnTracker(),
		mode:      ModeManual,
		templates: templates,
		now:       time.Now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Mode returns the processing mode.
func (s *Session) Mode() Mode { return s.mode }

// FileName returns the name of the loaded file.
func (s *Session) FileName() string { return s.fileName }

// Table returns the working table, or nil when nothing is loaded.
func (s *Session) Table() *Table { return s.table }

// Order returns the full column order.
func (s *Session) Order() []string { return s.tracker.Order() }

// Selection returns the selected columns in order.
func (s *Session) Selection() []string { return s.tracker.SelectedInOrder() }

// Operations returns the operations applied since the current file was loaded.
func (s *Session) Operations() []Operation {
	return append([]Operation(nil), s.ops...)
}

// SetMode switches the processing mode.
func (s *Session) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	s.mode = m
	return nil
}

// LoadResult reports what Load did.
type LoadResult struct {
	FileName string        `json:"file_name"`
	Rows     int           `json:"rows"`
	Columns  int           `json:"columns"`
	Reloaded bool          `json:"reloaded"`
	Replayed []StepOutcome `json:"replayed,omitempty"`
}

// Load replaces the working table with raw.
//
// Loading the file already loaded (same name) keeps order and selection and
// replays the operation log against the fresh table so derived columns
// survive. A different file resets the operation log; in manual mode it also
// resets order and selection. Order and selection are seeded from the table
// only when the order is empty.
//
// On error the session is unchanged.
func (s *Session) Load(fileName string, raw RawTable) (LoadResult, error) {
	t, err := LoadTable(raw)
	if err != nil {
		return LoadResult{}, err
	}

	res := LoadResult{FileName: fileName}
	if s.table != nil && fileName == s.fileName {
		res.Reloaded = true
		out, outcomes, failed, err := replay(t, s.ops, nil)
		for i, o := range outcomes {
			res.Replayed = append(res.Replayed, StepOutcome{Step: i, Outcome: o})
			s.tracker.Append(o.Created)
		}
		if err != nil {
			slog.Warn("reload: operation log truncated",
				"session_id", s.id, "step", failed+1, "error", err)
			s.ops = s.ops[:failed]
		}
		t = out
		// Columns new to this copy of the file, including split parts the
		// previous data never produced.
		s.tracker.Append(t.Columns())
	} else {
		s.ops = nil
		if s.mode == ModeManual {
			s.tracker.Reset()
		}
	}

	s.fileName = fileName
	s.table = t
	if s.tracker.Empty() {
		s.tracker.Seed(t.Columns())
	}
	s.state = StateLoaded
	if len(s.ops) > 0 {
		s.state = StateModified
	}

	res.Rows = t.RowCount()
	res.Columns = t.Width()
	slog.Debug("session: file loaded",
		"session_id", s.id, "file", fileName, "rows", res.Rows,
		"columns", res.Columns, "reloaded", res.Reloaded)
	return res, nil
}

// Merge adds newColumn built from columns joined by separator.
func (s *Session) Merge(columns []string, newColumn, separator string) (Outcome, error) {
	return s.apply(MergeOp{
		SourceColumns: append([]string(nil), columns...),
		NewColumn:     newColumn,
		Separator:     separator,
	})
}

// Split adds names built by splitting column on delimiter.
func (s *Session) Split(column, delimiter string, names []string) (Outcome, error) {
	return s.apply(SplitOp{
		SourceColumn: column,
		Delimiter:    delimiter,
		NewColumns:   append([]string(nil), names...),
	})
}

// AddEmpty adds empty columns for names not yet in the table.
func (s *Session) AddEmpty(names []string) (Outcome, error) {
	return s.apply(EmptyColumnsOp{Names: append([]string(nil), names...)})
}

func (s *Session) apply(op Operation) (Outcome, error) {
	if s.table == nil {
		return Outcome{Kind: op.Kind()}, ErrNoTable
	}
	next, out, err := invoke(s.table, op, s.tracker.Contains, StrictPolicy)
	if err != nil {
		return out, err
	}
	if !out.Applied {
		return out, nil
	}
	s.table = next
	s.tracker.Append(out.Created)
	s.ops = append(s.ops, op)
	s.state = StateModified
	return out, nil
}

// Move swaps name with its selected neighbour.
func (s *Session) Move(name string, dir Direction) (bool, error) {
	return s.tracker.Move(name, dir)
}

// Toggle sets whether name is selected.
func (s *Session) Toggle(name string, on bool) error {
	return s.tracker.Toggle(name, on)
}

// SelectAll selects every column in the order.
func (s *Session) SelectAll() { s.tracker.SelectAll() }

// DeselectAll clears the selection.
func (s *Session) DeselectAll() { s.tracker.DeselectAll() }

// SaveTemplate captures the operation log, order and selection under name.
func (s *Session) SaveTemplate(ctx context.Context, name, description string) (*Template, error) {
	if s.table == nil {
		return nil, ErrNoTable
	}
	tpl, err := Capture(name, s.ops, s.tracker.Order(), s.tracker.SelectedInOrder(), description, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("save template %q: %w", tpl.Name, err)
	}
	slog.Info("template saved", "session_id", s.id, "template", tpl.Name, "operations", len(tpl.Operations))
	return tpl, nil
}

// ImportTemplate stores a decoded template under its own name. Missing IDs
// and creation times are filled in.
func (s *Session) ImportTemplate(ctx context.Context, tpl *Template) error {
	if tpl == nil {
		return ErrInvalidTemplateName
	}
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = s.now()
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return fmt.Errorf("import template %q: %w", tpl.Name, err)
	}
	return nil
}

// ApplyTemplate replays the named template against the working table and
// replaces order and selection with the template's. Applied operations join
// the operation log. A *TemplateApplyError still leaves the partial result
// in place.
func (s *Session) ApplyTemplate(ctx context.Context, name string) (ApplyResult, error) {
	if s.table == nil {
		return ApplyResult{}, ErrNoTable
	}
	tpl, err := s.templates.Get(ctx, name)
	if err != nil {
		return ApplyResult{}, err
	}

	res, applyErr := ApplyTemplate(tpl, s.table)
	s.table = res.Table
	s.tracker.Replace(res.Order, res.Selection)
	for _, step := range res.Steps {
		if step.Applied {
			s.ops = append(s.ops, tpl.Operations[step.Step])
			s.state = StateModified
		}
	}

	slog.Info("template applied",
		"session_id", s.id, "template", tpl.Name,
		"steps", len(res.Steps), "skipped", len(res.Skipped()))
	return res, applyErr
}

// DeleteTemplate removes the named template.
func (s *Session) DeleteTemplate(ctx context.Context, name string) error {
	return s.templates.Delete(ctx, name)
}

// Template returns the named template.
func (s *Session) Template(ctx context.Context, name string) (*Template, error) {
	return s.templates.Get(ctx, name)
}

// Templates lists saved templates.
func (s *Session) Templates(ctx context.Context) ([]*Template, error) {
	return s.templates.List(ctx)
}

// SuggestTemplates ranks saved templates against the working table.
func (s *Session) SuggestTemplates(ctx context.Context) ([]TemplateMatch, error) {
	if s.table == nil {
		return nil, ErrNoTable
	}
	all, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}
	return MatchTemplates(all, s.table.Columns()), nil
}

// Export returns the selected columns in order. Selected placeholders that
// the table lacks are materialized as empty columns.
func (s *Session) Export() (*Table, error) {
	if s.table == nil {
		return nil, ErrNoTable
	}
	sel := s.tracker.SelectedInOrder()
	if len(sel) == 0 {
		return nil, ErrNoColumnsSelected
	}
	return s.table.Project(sel), nil
}

// Preview returns the first limit rows of the working table.
func (s *Session) Preview(limit int) (*Table, error) {
	if s.table == nil {
		return nil, ErrNoTable
	}
	return s.table.Head(limit), nil
}

// ColumnInfo describes one column of the order.
type ColumnInfo struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
	Present  bool   `json:"present"`
	Sample   string `json:"sample"`
}

// Snapshot is a read model of a session.
type Snapshot struct {
	ID         string       `json:"id"`
	FileName   string       `json:"file_name"`
	State      string       `json:"state"`
	Mode       Mode         `json:"mode"`
	Rows       int          `json:"rows"`
	Columns    []ColumnInfo `json:"columns"`
	Selected   int          `json:"selected"`
	Operations int          `json:"operations"`
	Reduction  float64      `json:"reduction"` // percent of table columns not exported
}

// Snapshot returns the current read model.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		FileName:   s.fileName,
		State:      s.state.String(),
		Mode:       s.mode,
		Selected:   s.tracker.SelectedCount(),
		Operations: len(s.ops),
		Columns:    make([]ColumnInfo, 0, s.tracker.Len()),
	}
	exported := 0 // selected columns the table actually has
	for _, name := range s.tracker.Order() {
		ci := ColumnInfo{Name: name, Selected: s.tracker.IsSelected(name)}
		if s.table != nil && s.table.Has(name) {
			ci.Present = true
			if ci.Selected {
				exported++
			}
			if s.table.RowCount() > 0 {
				ci.Sample = truncateRunes(s.table.Cell(name, 0), SampleMaxRunes)
			}
		}
		snap.Columns = append(snap.Columns, ci)
	}
	if s.table != nil {
		snap.Rows = s.table.RowCount()
		if w := s.table.Width(); w > 0 {
			r := (1 - float64(exported)/float64(w)) * 100
			snap.Reduction = math.Round(r*10) / 10
		}
	}
	return snap
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
