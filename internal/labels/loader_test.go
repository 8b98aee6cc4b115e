package labels

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio/npz"
)

// writeArchive stores one small array per key as "<key>.npy", the way
// numpy's savez names archive entries.
func writeArchive(t *testing.T, path string, keys ...string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	w := npz.NewWriter(f)
	for _, k := range keys {
		if err := w.Write(k+".npy", []float64{0, 1, 0}); err != nil {
			t.Fatalf("write %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []string
	}{
		{"sorted", []string{"14-100-200", "14-101-200"}, []string{"14-100-200", "14-101-200"}},
		{"archive order", []string{"14-300-200", "14-100-200", "14-200-200"}, []string{"14-300-200", "14-100-200", "14-200-200"}},
		{"duplicates", []string{"14-101-200", "14-100-200", "14-101-200"}, []string{"14-101-200", "14-100-200"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeArchive(t, Path(dir), tt.keys...)

			tiles, err := Load(dir)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(tiles) != len(tt.want) {
				t.Fatalf("Load() = %v, want %v", tiles, tt.want)
			}
			for i, id := range tiles {
				if id.String() != tt.want[i] {
					t.Errorf("Load()[%d] = %q, want %q", i, id.String(), tt.want[i])
				}
				if _, err := id.Tile(); err != nil {
					t.Errorf("Load()[%d].Tile() error = %v", i, err)
				}
			}
		})
	}
}

func TestLoad_BareKeys(t *testing.T) {
	dir := t.TempDir()

	f, err := os.Create(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	w := npz.NewWriter(f)
	if err := w.Write("14-100-200", []float64{1}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tiles, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tiles) != 1 || tiles[0].String() != "14-100-200" {
		t.Errorf("Load() = %v, want [14-100-200]", tiles)
	}
}

func TestLoad_Missing(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Load() error type = %T, want *NotFoundError", err)
	}
	if nf.Path != filepath.Join(dir, FileName) {
		t.Errorf("NotFoundError.Path = %q", nf.Path)
	}

	// The loader never creates anything.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Load() left %d entries in %s", len(entries), dir)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("not a zip archive"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Load() error = %v, want ErrFormat", err)
	}
}

func TestLoadFile_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(Path(dir), 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(Path(dir)); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadFile(dir) error = %v, want ErrNotFound", err)
	}
}
