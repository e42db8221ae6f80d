package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOSExists(t *testing.T) {
	fsys := OS{}
	if !fsys.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fsys.Exists("no_such_file_xyz") {
		t.Error("expected missing file to not exist")
	}
}

func TestOSWriteAndRead(t *testing.T) {
	fsys := OS{}
	path := filepath.Join(t.TempDir(), "out.txt")

	if err := fsys.WriteFile(path, []byte("boundary data"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "boundary data" {
		t.Errorf("unexpected contents: %q", data)
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	if err := WriteAtomic(path, []byte(`{"ok":true}`), 0644); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("unexpected contents: %q", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 file in dir, found %d", len(entries))
	}
}

func TestMemoryWriteAndRead(t *testing.T) {
	m := NewMemory()
	if err := m.WriteFile("/data/wria.zip", []byte{1, 2, 3}, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := m.ReadFile("/data/wria.zip")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("expected 3 bytes, got %d", len(data))
	}
	if !m.Exists("/data/wria.zip") {
		t.Error("written file should exist")
	}
	if m.Exists("/data/other") {
		t.Error("unwritten file should not exist")
	}
}

func TestMemoryCreate(t *testing.T) {
	m := NewMemory()
	w, err := m.Create("/out.bin")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("abc")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	// Content lands on Close.
	if m.Exists("/out.bin") {
		t.Error("file should not exist before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, err := m.ReadFile("/out.bin")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("unexpected contents: %q", data)
	}
}

func TestMemoryRemove(t *testing.T) {
	m := NewMemory()
	if err := m.WriteFile("/data/wria.zip", []byte{1, 2, 3}, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := m.Remove("/data/wria.zip"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if m.Exists("/data/wria.zip") {
		t.Error("removed file should not exist")
	}
	if err := m.Remove("/data/wria.zip"); err == nil {
		t.Error("expected error removing missing file")
	}
}

func TestMemoryMkdirAll(t *testing.T) {
	m := NewMemory()
	if err := m.MkdirAll("/a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, dir := range []string{"/a", "/a/b", "/a/b/c"} {
		if !m.Exists(dir) {
			t.Errorf("expected %s to exist", dir)
		}
	}
}
