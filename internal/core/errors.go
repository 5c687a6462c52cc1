package core

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the session and template store.
var (
	ErrNoTable             = errors.New("no table loaded")
	ErrNoColumnsSelected   = errors.New("no columns selected for export")
	ErrTemplateExists      = errors.New("template already exists")
	ErrTemplateNotFound    = errors.New("template not found")
	ErrInvalidTemplateName = errors.New("template name is required")
	ErrSessionNotFound     = errors.New("session not found")
	ErrTooManySessions     = errors.New("too many sessions")
	ErrInvalidMode         = errors.New("invalid processing mode")
)

// LoadError reports input that cannot be interpreted as a rectangular table.
type LoadError struct {
	Row    int // 1-based data row, 0 when not row specific
	Reason string
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("load error: row %d: %s", e.Row, e.Reason)
	}
	return "load error: " + e.Reason
}

// ColumnNotFoundError reports an operator input referencing a missing column.
type ColumnNotFoundError struct {
	Op     string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: column not found: no columns given", e.Op)
	}
	return fmt.Sprintf("%s: column not found: %q", e.Op, e.Column)
}

// InvalidDelimiterError reports an empty split delimiter.
type InvalidDelimiterError struct {
	Op string
}

func (e *InvalidDelimiterError) Error() string {
	return fmt.Sprintf("%s: invalid delimiter: delimiter must not be empty", e.Op)
}

// DuplicateColumnNameError reports a requested name that is already taken.
type DuplicateColumnNameError struct {
	Op     string
	Column string
}

func (e *DuplicateColumnNameError) Error() string {
	return fmt.Sprintf("%s: duplicate column name: %q already exists", e.Op, e.Column)
}

// InvalidColumnNameError reports an empty or whitespace-only column name.
type InvalidColumnNameError struct {
	Op string
}

func (e *InvalidColumnNameError) Error() string {
	return fmt.Sprintf("%s: invalid column name: name must not be blank", e.Op)
}

// TemplateApplyError wraps an unexpected operator failure during replay.
// Operations before Step were applied and their results kept.
type TemplateApplyError struct {
	Template string
	Step     int // 0-based index into the template's operations
	Kind     OpKind
	Err      error
}

func (e *TemplateApplyError) Error() string {
	return fmt.Sprintf("template apply %q: step %d (%s): %v", e.Template, e.Step+1, e.Kind, e.Err)
}

func (e *TemplateApplyError) Unwrap() error { return e.Err }

// isColumnMissing reports whether err is a missing-column condition.
func isColumnMissing(err error) bool {
	var cnf *ColumnNotFoundError
	return errors.As(err, &cnf)
}

// isCollision reports whether err is a duplicate-name condition.
func isCollision(err error) bool {
	var dup *DuplicateColumnNameError
	return errors.As(err, &dup)
}

// InvalidDirectionError reports a move direction other than up or down.
type InvalidDirectionError struct {
	Direction string
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("move: invalid direction %q: want up or down", e.Direction)
}
