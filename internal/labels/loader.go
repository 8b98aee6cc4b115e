package labels

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/tilefetch/internal/model"
	"github.com/sbinet/npyio/npz"
)

// FileName is the archive label generation writes into the destination folder.
const FileName = "labels.npz"

const npyExt = ".npy"

// Path returns the label archive location for a destination folder.
func Path(destFolder string) string {
	return filepath.Join(destFolder, FileName)
}

// Load reads the tile set stored in <destFolder>/labels.npz.
func Load(destFolder string) (model.TileSet, error) {
	return LoadFile(Path(destFolder))
}

// LoadFile reads the tile identifiers stored as top-level keys of the npz
// archive at path, in archive order. numpy stores each key as "<key>.npy";
// the suffix is dropped. The arrays themselves are never read.
//
// Returns a *NotFoundError when path does not resolve to a regular file and a
// *FormatError when the file cannot be parsed as an npz archive.
func LoadFile(path string) (model.TileSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, &FormatError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &NotFoundError{Path: path}
	}

	r, err := npz.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	defer r.Close()

	keys := make([]string, 0, len(r.Keys()))
	for _, k := range r.Keys() {
		keys = append(keys, strings.TrimSuffix(k, npyExt))
	}
	return model.NewTileSet(keys), nil
}
