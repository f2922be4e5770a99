package helpers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level   string
		env     string
		want    logrus.Level
		wantErr bool
	}{
		{"", "development", logrus.DebugLevel, false},
		{"", "production", logrus.InfoLevel, false},
		{"trace", "production", logrus.TraceLevel, false},
		{"warn", "production", logrus.WarnLevel, false},
		{"fatal", "production", logrus.FatalLevel, false},
		{"panic", "production", logrus.InfoLevel, true},
		{"verbose", "production", logrus.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.level, tt.env)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) err = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNewLogger_JSONWithBaseFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "roel", "production", "info")
	buf.Reset()
	logger.Info("hello")
	out := buf.String()
	for _, want := range []string{`"app":"roel"`, `"env":"production"`, `"msg":"hello"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %s", out, want)
		}
	}
}

func TestNewLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "roel", "production", "error")
	buf.Reset()
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "correct horse" {
		t.Fatal("hash equals plain text")
	}
	if !CompareHashAndPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CompareHashAndPassword(hash, "wrong") {
		t.Error("expected mismatch")
	}
	if CompareHashAndPassword("", "anything") {
		t.Error("empty hash must never match")
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateToken(32)
	if a == b {
		t.Error("tokens should differ")
	}
	if len(a) != 43 {
		t.Errorf("len = %d, want 43", len(a))
	}
}

func TestSessionSigner_RoundTrip(t *testing.T) {
	s := NewSessionSigner(strings.Repeat("s", 32), 5*time.Minute)
	now := time.Now()
	tok, exp, err := s.Sign(SessionClaims{SessionID: "sess-1", UserID: "user-1", Email: "a@b.c", Name: "Ann",
		SessionExpiresAt: now.Add(time.Hour).Unix()}, now)
	if err != nil {
		t.Fatal(err)
	}
	if d := exp.Sub(now); d > 5*time.Minute || d < 4*time.Minute {
		t.Errorf("cookie expiry = %v, want ~5m", d)
	}
	claims, err := s.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.SessionID != "sess-1" || claims.UserID != "user-1" || claims.Subject != "user-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestSessionSigner_CappedBySessionExpiry(t *testing.T) {
	s := NewSessionSigner(strings.Repeat("s", 32), 5*time.Minute)
	now := time.Now()
	sessExp := now.Add(time.Minute)
	_, exp, err := s.Sign(SessionClaims{SessionID: "s", UserID: "u", SessionExpiresAt: sessExp.Unix()}, now)
	if err != nil {
		t.Fatal(err)
	}
	if exp.Unix() != sessExp.Unix() {
		t.Errorf("exp = %v, want %v", exp, sessExp)
	}
}

func TestSessionSigner_RejectsForeignSecret(t *testing.T) {
	now := time.Now()
	tok, _, _ := NewSessionSigner(strings.Repeat("a", 32), time.Minute).Sign(SessionClaims{SessionID: "s"}, now)
	if _, err := NewSessionSigner(strings.Repeat("b", 32), time.Minute).Parse(tok); err == nil {
		t.Error("expected signature error")
	}
}

func TestSessionSigner_RejectsExpired(t *testing.T) {
	s := NewSessionSigner(strings.Repeat("a", 32), time.Minute)
	tok, _, _ := s.Sign(SessionClaims{SessionID: "s"}, time.Now().Add(-2*time.Minute))
	if _, err := s.Parse(tok); err == nil {
		t.Error("expected expiry error")
	}
}
