package ioutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project", "tiles_all")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() first call error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "14-100-200.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() second call error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "14-100-200.jpg" {
		t.Errorf("directory contents changed: %v", entries)
	}
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "tiles_all")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := EnsureDir(blocker); err == nil {
		t.Error("EnsureDir() over a regular file should fail")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "14-100-200.png")

	if err := WriteFile(context.Background(), path, []byte("first")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := WriteFile(context.Background(), path, []byte("second")); err != nil {
		t.Fatalf("WriteFile() overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
	if !FileExists(path) {
		t.Error("FileExists() = false after write")
	}
	if FileExists(dir) {
		t.Error("FileExists() = true for a directory")
	}
}

func TestWriteFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "tile.png")
	if err := WriteFile(ctx, path, []byte("x")); err == nil {
		t.Error("WriteFile() with cancelled context should fail")
	}
	if FileExists(path) {
		t.Error("cancelled write created the file")
	}
}
