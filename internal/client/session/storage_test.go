package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	s := NewMemoryStorage()

	if got, err := s.Load(); err != nil || got != "" {
		t.Fatalf("fresh storage: got (%q, %v), want empty", got, err)
	}
	if err := s.Save("cred"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(); got != "cred" {
		t.Fatalf("got %q after save", got)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(); got != "" {
		t.Fatalf("got %q after clear", got)
	}
}

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential")
	s := NewFileStorage(path)

	if got, err := s.Load(); err != nil || got != "" {
		t.Fatalf("missing file: got (%q, %v), want empty", got, err)
	}

	if err := s.Save("cred"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(); got != "cred" {
		t.Fatalf("got %q after save", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("credential file mode %o, want 600", perm)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(); got != "" {
		t.Fatalf("got %q after clear", got)
	}
	// Clearing twice must not fail.
	if err := s.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
