package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "load error",
			err:         &LoadError{Row: 3, Reason: "row has 2 cells, header has 3"},
			wantCode:    "LOAD001",
			wantMessage: "The file could not be read as a table",
		},
		{
			name:        "wrapped column not found",
			err:         fmt.Errorf("merge: %w", &ColumnNotFoundError{Op: "merge", Column: "x"}),
			wantCode:    "COL001",
			wantMessage: "A referenced column does not exist",
		},
		{
			name:        "duplicate column name",
			err:         &DuplicateColumnNameError{Op: "split", Column: "a"},
			wantCode:    "COL002",
			wantMessage: "A column with this name already exists",
		},
		{
			name:        "invalid delimiter",
			err:         &InvalidDelimiterError{Op: "split"},
			wantCode:    "OP001",
			wantMessage: "The split delimiter is empty",
		},
		{
			name:        "template apply error wins over wrapped cause",
			err:         &TemplateApplyError{Template: "t", Kind: OpSplit, Err: &InvalidDelimiterError{Op: "split"}},
			wantCode:    "TPL004",
			wantMessage: "The template could not be applied completely",
		},
		{
			name:        "wrapped template exists",
			err:         fmt.Errorf("save template %q: %w", "t", ErrTemplateExists),
			wantCode:    "TPL001",
			wantMessage: "A template with this name already exists",
		},
		{
			name:        "no table",
			err:         ErrNoTable,
			wantCode:    "FILE006",
			wantMessage: "No file has been loaded yet",
		},
		{
			name:        "too many loads",
			err:         ErrTooManyLoads,
			wantCode:    "UPL002",
			wantMessage: "Too many files are being processed",
		},
		{
			name:        "text pattern for file size",
			err:         errors.New("file too large: 200MB exceeds limit"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "malformed request body",
			err:         errors.New("invalid request body: unexpected EOF"),
			wantCode:    "REQ001",
			wantMessage: "The request could not be understood",
		},
		{
			name:        "context canceled",
			err:         context.Canceled,
			wantCode:    "UPL001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("UNSUPPORTED FILE FORMAT: .xls"),
			wantCode:    "FILE002",
			wantMessage: "This file format is not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoColumnsSelected)

	expected := "No columns are selected for export (Code: COL004). Select at least one column"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "typed error is user facing", err: &InvalidColumnNameError{Op: "merge"}, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("get: %w", ErrTemplateNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "The template does not exist" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrTemplateNotFound) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}
