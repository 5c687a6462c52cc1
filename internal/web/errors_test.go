package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JonMunkholm/csvorganizer/internal/core"
	"github.com/JonMunkholm/csvorganizer/internal/ingest"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", core.ErrSessionNotFound, http.StatusNotFound},
		{"wrapped template exists", fmt.Errorf("save: %w", core.ErrTemplateExists), http.StatusConflict},
		{"too many loads", core.ErrTooManyLoads, http.StatusServiceUnavailable},
		{"too large", fmt.Errorf("file too large: %w", &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge},
		{"unsupported format", fmt.Errorf("decode: %w", ingest.ErrUnsupportedFormat), http.StatusUnsupportedMediaType},
		{"template apply", &core.TemplateApplyError{Err: errors.New("boom")}, http.StatusUnprocessableEntity},
		{"no table", core.ErrNoTable, http.StatusBadRequest},
		{"encoding", errors.New("decode a.csv: encoding error: unknown encoding"), http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTemplateFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"monthly", "monthly"},
		{"with memo", "with_memo"},
		{"../etc", "___etc"},
		{"月次", "template"},
	}
	for _, tt := range tests {
		if got := templateFileName(tt.in); got != tt.want {
			t.Errorf("templateFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
