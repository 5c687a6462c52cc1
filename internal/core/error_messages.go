// Package core provides the column-transformation and template-replay engine.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Typed errors are matched first (errors.As / errors.Is), then the message text
// is matched against known patterns.
//
// # Load Errors (LOAD001)
//
//	LOAD001 - The file could not be read as a table
//	          Action: Check that every row has the same number of columns
//	          Matches: *LoadError
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Column not found: A referenced column does not exist
//	         Matches: *ColumnNotFoundError, "column not found"
//	COL002 - Duplicate column: A column with this name already exists
//	         Matches: *DuplicateColumnNameError, "duplicate column name"
//	COL003 - Invalid name: Column name is empty
//	         Matches: *InvalidColumnNameError, "invalid column name"
//	COL004 - Nothing selected: No columns are selected for export
//	         Matches: ErrNoColumnsSelected
//
// # Operation Errors (OP001-OP099)
//
//	OP001 - Invalid delimiter: The split delimiter is empty
//	        Matches: *InvalidDelimiterError, "invalid delimiter"
//	OP002 - Invalid mode: Unknown processing mode
//	        Matches: ErrInvalidMode
//	OP003 - Invalid direction: Columns can only move up or down
//	        Matches: *InvalidDirectionError
//
// # Template Errors (TPL001-TPL099)
//
//	TPL001 - Template exists: A template with this name already exists
//	TPL002 - Template not found: The template does not exist
//	TPL003 - Template name required: Template name is empty
//	TPL004 - Template partially applied: A template step failed
//	TPL005 - Invalid template file: The template document could not be read
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found: The session expired or never existed
//	SES002 - Too many sessions: The server has no room for another session
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large             Patterns: "file too large"
//	FILE002 - Unsupported format         Patterns: "unsupported file format"
//	FILE003 - Encoding error             Patterns: "encoding error"
//	FILE004 - No file                    Patterns: "no file provided"
//	FILE005 - Empty file                 Patterns: "empty file"
//	FILE006 - No file loaded             Matches: ErrNoTable
//	FILE007 - Bad header row             Patterns: "invalid header row"
//
// # Request Errors (REQ001)
//
//	REQ001 - Malformed request           Patterns: "invalid request"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Request cancelled           Patterns: "context canceled"
//	UPL002 - System busy                 Matches: ErrTooManyLoads
//	UPL003 - Request timeout             Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original error.
//
// Patterns are matched case-insensitively using strings.Contains and the first
// match wins, so more specific patterns come first.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// typedError maps an error type or sentinel to a user message.
type typedError struct {
	match func(error) bool
	msg   UserMessage
}

func as[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func is(sentinel error) func(error) bool {
	return func(err error) bool { return errors.Is(err, sentinel) }
}

// typedErrors is consulted before errorPatterns. TemplateApplyError wraps
// operator errors, so it comes first.
var typedErrors = []typedError{
	{as[*TemplateApplyError], UserMessage{
		Message: "The template could not be applied completely",
		Action:  "Steps before the failing one were kept; review the template's operations",
		Code:    "TPL004",
	}},
	{as[*LoadError], UserMessage{
		Message: "The file could not be read as a table",
		Action:  "Check that every row has the same number of columns",
		Code:    "LOAD001",
	}},
	{as[*ColumnNotFoundError], UserMessage{
		Message: "A referenced column does not exist",
		Action:  "Refresh the column list and pick existing columns",
		Code:    "COL001",
	}},
	{as[*DuplicateColumnNameError], UserMessage{
		Message: "A column with this name already exists",
		Action:  "Choose a different name for the new column",
		Code:    "COL002",
	}},
	{as[*InvalidColumnNameError], UserMessage{
		Message: "Column name is empty",
		Action:  "Enter a name for the new column",
		Code:    "COL003",
	}},
	{is(ErrNoColumnsSelected), UserMessage{
		Message: "No columns are selected for export",
		Action:  "Select at least one column",
		Code:    "COL004",
	}},
	{as[*InvalidDelimiterError], UserMessage{
		Message: "The split delimiter is empty",
		Action:  "Enter the character or text to split on",
		Code:    "OP001",
	}},
	{is(ErrInvalidMode), UserMessage{
		Message: "Unknown processing mode",
		Action:  "Choose manual or template mode",
		Code:    "OP002",
	}},
	{as[*InvalidDirectionError], UserMessage{
		Message: "Columns can only move up or down",
		Action:  "Use the up or down control",
		Code:    "OP003",
	}},
	{is(ErrTemplateExists), UserMessage{
		Message: "A template with this name already exists",
		Action:  "Choose another name or delete the existing template",
		Code:    "TPL001",
	}},
	{is(ErrTemplateNotFound), UserMessage{
		Message: "The template does not exist",
		Action:  "Refresh the template list",
		Code:    "TPL002",
	}},
	{is(ErrInvalidTemplateName), UserMessage{
		Message: "Template name is empty",
		Action:  "Enter a name for the template",
		Code:    "TPL003",
	}},
	{is(ErrSessionNotFound), UserMessage{
		Message: "Your session has expired",
		Action:  "Reload the page to start a new session",
		Code:    "SES001",
	}},
	{is(ErrTooManySessions), UserMessage{
		Message: "The server is busy",
		Action:  "Please try again in a few minutes",
		Code:    "SES002",
	}},
	{is(ErrNoTable), UserMessage{
		Message: "No file has been loaded yet",
		Action:  "Upload a CSV or Excel file first",
		Code:    "FILE006",
	}},
	{is(ErrTooManyLoads), UserMessage{
		Message: "Too many files are being processed",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors that cross package boundaries as plain text.
var errorPatterns = []errorPattern{
	// Template documents
	{
		pattern: "decode template",
		msg: UserMessage{
			Message: "The template file could not be read",
			Action:  "Upload a template exported by this tool (YAML or JSON)",
			Code:    "TPL005",
		},
	},
	{
		pattern: "decode legacy template",
		msg: UserMessage{
			Message: "The template file could not be read",
			Action:  "Upload a template exported by this tool (YAML or JSON)",
			Code:    "TPL005",
		},
	},

	// Operator text forms
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "A referenced column does not exist",
			Action:  "Refresh the column list and pick existing columns",
			Code:    "COL001",
		},
	},
	{
		pattern: "duplicate column name",
		msg: UserMessage{
			Message: "A column with this name already exists",
			Action:  "Choose a different name for the new column",
			Code:    "COL002",
		},
	},
	{
		pattern: "invalid column name",
		msg: UserMessage{
			Message: "Column name is empty",
			Action:  "Enter a name for the new column",
			Code:    "COL003",
		},
	},
	{
		pattern: "invalid delimiter",
		msg: UserMessage{
			Message: "The split delimiter is empty",
			Action:  "Enter the character or text to split on",
			Code:    "OP001",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Remove unneeded rows or columns and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "This file format is not supported",
			Action:  "Upload a .csv, .tsv, .txt, .xlsx or .xlsm file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "The file contains characters that could not be decoded",
			Action:  "Pick the file's encoding explicitly or save it as UTF-8",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row",
			Code:    "FILE005",
		},
	},

	{
		pattern: "invalid header row",
		msg: UserMessage{
			Message: "The header row is out of range",
			Action:  "Pick a header row between 0 and 20",
			Code:    "FILE007",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the submitted fields and try again",
			Code:    "REQ001",
		},
	},

	// Request lifecycle
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL003",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, te := range typedErrors {
		if te.match(err) {
			return te.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
