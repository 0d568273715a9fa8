package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var testSecret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, "ops", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	subject, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if subject != "ops" {
		t.Fatalf("subject = %q, want ops", subject)
	}
}

func TestParseTokenRejects(t *testing.T) {
	good, _ := GenerateToken(testSecret, "ops", time.Hour)
	expired, _ := GenerateToken(testSecret, "ops", time.Nanosecond)
	time.Sleep(time.Second + 10*time.Millisecond)

	tests := []struct {
		name   string
		secret []byte
		token  string
	}{
		{"wrong secret", []byte("other"), good},
		{"garbage", testSecret, "not.a.token"},
		{"expired", testSecret, expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.secret, tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if _, err := GenerateToken(nil, "ops", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	var gotSubject string
	handler := New(testSecret).Wrap(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	token, _ := GenerateToken(testSecret, "ops", time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if gotSubject != "ops" {
		t.Fatalf("subject in context = %q", gotSubject)
	}
}
