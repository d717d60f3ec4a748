package region

import (
	"os"
	"path/filepath"
	"testing"
)

// TestGetReadsAndTrims tests that the region file is read with surrounding
// whitespace stripped.
func TestGetReadsAndTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.txt")
	if err := os.WriteFile(path, []byte("  EUC\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := NewAccessor(path)
	got, ok := a.Get()
	if !ok || got != "EUC" {
		t.Errorf("Get() = %q, %v; want EUC, true", got, ok)
	}
}

// TestGetMissingFile tests that an absent region file reports unknown.
func TestGetMissingFile(t *testing.T) {
	a := NewAccessor(filepath.Join(t.TempDir(), "nope.txt"))
	if got, ok := a.Get(); ok {
		t.Errorf("Get() on missing file = %q, true; want unknown", got)
	}
}

// TestGetEmptyFile tests that a whitespace-only file reports unknown.
func TestGetEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.txt")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := NewAccessor(path)
	if got, ok := a.Get(); ok {
		t.Errorf("Get() on blank file = %q, true; want unknown", got)
	}
}

// TestGetCachesFirstRead tests that the first successful read sticks even if
// the file changes afterwards.
func TestGetCachesFirstRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.txt")
	if err := os.WriteFile(path, []byte("NAW\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := NewAccessor(path)
	if got, ok := a.Get(); !ok || got != "NAW" {
		t.Fatalf("first Get() = %q, %v", got, ok)
	}
	if err := os.WriteFile(path, []byte("EUC\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, ok := a.Get(); !ok || got != "NAW" {
		t.Errorf("cached Get() = %q, %v; want NAW, true", got, ok)
	}
}

// TestGetRetriesAfterFailure tests that a failed read does not poison the
// accessor once the file appears.
func TestGetRetriesAfterFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.txt")
	a := NewAccessor(path)
	if _, ok := a.Get(); ok {
		t.Fatal("expected unknown before file exists")
	}
	if err := os.WriteFile(path, []byte("SA\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, ok := a.Get(); !ok || got != "SA" {
		t.Errorf("Get() after file appears = %q, %v; want SA, true", got, ok)
	}
}
