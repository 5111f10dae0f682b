package logger

import (
	"context"
	"testing"
)

func TestNewReturnsSameLogger(t *testing.T) {
	first, err := New("development")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	second, err := New("production")
	if err != nil {
		t.Fatalf("second call errored: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same logger instance on repeat calls")
	}
}

func TestWithContextAnnotatesRequestID(t *testing.T) {
	if _, err := New("development"); err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}

	ctx := context.WithValue(context.Background(), RequestIDKey{}, "req-7f3a")
	if got := requestIDFromContext(ctx); got != "req-7f3a" {
		t.Fatalf("expected request id from context, got %q", got)
	}
	if requestIDFromContext(context.Background()) != "" {
		t.Fatalf("expected empty request id without the key")
	}

	if WithContext(ctx) == nil {
		t.Fatalf("expected a logger for an annotated context")
	}
	if WithContext(nil) == nil {
		t.Fatalf("expected the bare logger for a nil context")
	}
}

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"john.doe@example.com", "joh***@example.com"},
		{"jo@prostech.vn", "jo***@prostech.vn"},
		{"@example.com", "***@example.com"},
		{"not-an-email", "***"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskIP(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"192.168.1.100", "192.168.*.*"},
		{"10.0.0.1", "10.0.*.*"},
		{"2001:0db8:85a3:0000:0000:8a2e:0370:7334", "2001:0db8:85a3:0000:*:*:*:*"},
		{"localhost", "***"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := MaskIP(tc.in); got != tc.want {
			t.Errorf("MaskIP(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
