package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "a.o")
	if err := os.WriteFile(out, []byte("object"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Write(out, 0xdeadbeef); err != nil {
		t.Fatalf("Write: %v", err)
	}

	digest, ok := Read(out)
	if !ok {
		t.Fatal("Read reported not ok after Write")
	}
	if digest != 0xdeadbeef {
		t.Errorf("digest = %#x, want 0xdeadbeef", digest)
	}
}

func TestReadMissingIsNotOK(t *testing.T) {
	dir := t.TempDir()
	_, ok := Read(filepath.Join(dir, "nope.o"))
	if ok {
		t.Error("Read of a missing cache file reported ok")
	}
}

func TestValidRequiresOutputOnDisk(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "a.o")
	if err := os.WriteFile(out, []byte("object"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := Write(out, 42); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if !Valid(out, 42) {
		t.Error("Valid should be true when output exists and digest matches")
	}

	if err := os.Remove(out); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if Valid(out, 42) {
		t.Error("Valid should be false once the output file is gone, even with a matching cached digest")
	}
}

func TestValidRejectsMismatch(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "a.o")
	if err := os.WriteFile(out, []byte("object"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := Write(out, 1); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if Valid(out, 2) {
		t.Error("Valid should be false when the cached digest does not match expected")
	}
}
