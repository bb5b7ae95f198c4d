package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestUUIDint64Unique(t *testing.T) {
	seen := map[int64]bool{}
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		if id <= 0 {
			t.Fatalf("id = %d, want positive", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret" {
		t.Fatal("password stored in plaintext")
	}
	if !CheckPassword(hash, "secret") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestFileExists(t *testing.T) {
	f := filepath.Join(t.TempDir(), "probe")
	if FileExists(f) {
		t.Fatal("missing file reported as existing")
	}
	if err := os.WriteFile(f, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if !FileExists(f) {
		t.Fatal("existing file reported as missing")
	}
}

func TestIsEmptyOrNA(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"N/A", true},
		{"n/a", true},
		{"value", false},
	}
	for _, tt := range tests {
		if got := IsEmptyOrNA(tt.in); got != tt.want {
			t.Errorf("IsEmptyOrNA(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFen2Yuan(t *testing.T) {
	if got := Fen2Yuan(12345); got != 123.45 {
		t.Fatalf("Fen2Yuan(12345) = %v, want 123.45", got)
	}
}

func TestNextTimeOfDay(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	next := NextTimeOfDay(now, 21, 0)
	if next.Day() != 1 || next.Hour() != 21 {
		t.Fatalf("future time of day = %v", next)
	}

	next = NextTimeOfDay(now, 9, 0)
	if next.Day() != 2 || next.Hour() != 9 {
		t.Fatalf("past time of day should roll to tomorrow, got %v", next)
	}
}
