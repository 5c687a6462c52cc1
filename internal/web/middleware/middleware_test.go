package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/csvorganizer/internal/config"
)

func echoRemote(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(r.RemoteAddr))
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:   "no trusted proxies ignores headers",
			remote: "10.0.0.2:5000",
			headers: map[string]string{
				"X-Real-IP": "203.0.113.9",
			},
			want: "10.0.0.2:5000",
		},
		{
			name:    "untrusted peer ignores headers",
			trusted: []string{"10.0.0.0/8"},
			remote:  "192.0.2.1:5000",
			headers: map[string]string{"X-Real-IP": "203.0.113.9"},
			want:    "192.0.2.1:5000",
		},
		{
			name:    "trusted peer uses X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.0.0.2:5000",
			headers: map[string]string{"X-Real-IP": "203.0.113.9"},
			want:    "203.0.113.9",
		},
		{
			name:    "forwarded chain skips trusted hops",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.0.0.2:5000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.7, 203.0.113.9, 10.0.0.3"},
			want:    "203.0.113.9",
		},
		{
			name:    "garbage header keeps socket address",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.0.0.2:5000",
			headers: map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:    "10.0.0.2:5000",
		},
		{
			name:    "invalid prefix is skipped",
			trusted: []string{"bogus"},
			remote:  "10.0.0.2:5000",
			headers: map[string]string{"X-Real-IP": "203.0.113.9"},
			want:    "10.0.0.2:5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(echoRemote))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}
	h := APIKeyAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{name: "missing key", want: http.StatusUnauthorized},
		{name: "wrong key", header: "X-API-Key", value: "nope", want: http.StatusForbidden},
		{name: "header key", header: "X-API-Key", value: "k2", want: http.StatusNoContent},
		{name: "bearer key", header: "Authorization", value: "Bearer k1", want: http.StatusNoContent},
		{name: "basic scheme ignored", header: "Authorization", value: "Basic k1", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	t.Run("disabled passes everything", func(t *testing.T) {
		open := APIKeyAuth(&config.SecurityConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
	})
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		route  string
		status int
		want   slog.Level
	}{
		{"/healthz", http.StatusOK, slog.LevelDebug},
		{"/api/status", http.StatusOK, slog.LevelInfo},
		{"/api/sessions/{sessionID}", http.StatusNotFound, slog.LevelWarn},
		{"/healthz", http.StatusInternalServerError, slog.LevelError},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.route, tt.status); got != tt.want {
			t.Errorf("requestLevel(%q, %d) = %v, want %v", tt.route, tt.status, got, tt.want)
		}
	}
}

func TestResponseWriterCountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, status: http.StatusOK}
	_, _ = ww.Write([]byte("hello"))
	ww.WriteHeader(http.StatusTeapot)
	if ww.bytes != 5 || ww.status != http.StatusOK {
		t.Errorf("bytes = %d status = %d, want 5 and 200", ww.bytes, ww.status)
	}
}
