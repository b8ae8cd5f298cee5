package model

import (
	"errors"
	"regexp"
	"testing"
)

// crockfordBase32 matches valid ULID strings (26 chars, Crockford Base32 alphabet).
var crockfordBase32 = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

func TestNewIDFormat(t *testing.T) {
	id := NewID()
	if !crockfordBase32.MatchString(id) {
		t.Errorf("NewID() = %q, does not match Crockford Base32 ULID format", id)
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("NewID() produced duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestStatusConstants(t *testing.T) {
	statuses := []struct {
		constant string
		expected string
	}{
		{StatusRunning, "running"},
		{StatusCompleted, "completed"},
		{StatusFailed, "failed"},
		{StatusTerminated, "terminated"},
	}
	for _, s := range statuses {
		if s.constant != s.expected {
			t.Errorf("status constant = %q, want %q", s.constant, s.expected)
		}
	}
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusTerminated, true},
		{StatusRunning, StatusRunning, false},
		{StatusCompleted, StatusFailed, false},
		{StatusTerminated, StatusCompleted, false},
		{"unknown", StatusCompleted, false},
	}
	for _, tt := range tests {
		if got := ValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestFinalStatus(t *testing.T) {
	tests := []struct {
		name       string
		terminated bool
		exitCode   int
		err        error
		want       string
	}{
		{"clean exit", false, 0, nil, StatusCompleted},
		{"non-zero exit", false, 1, nil, StatusFailed},
		{"corrupt payload", false, 0, errors.New("decode"), StatusFailed},
		{"terminated wins", true, 143, nil, StatusTerminated},
	}
	for _, tt := range tests {
		if got := FinalStatus(tt.terminated, tt.exitCode, tt.err); got != tt.want {
			t.Errorf("%s: FinalStatus = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(StatusRunning) {
		t.Error("running must not be terminal")
	}
	for _, s := range []string{StatusCompleted, StatusFailed, StatusTerminated} {
		if !IsTerminal(s) {
			t.Errorf("%q should be terminal", s)
		}
	}
}
