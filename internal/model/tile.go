package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// TileSize is the edge length in pixels of every tile written to the cache.
const TileSize = 256

// MaxZoom is the deepest zoom level a TileID may address.
const MaxZoom = 30

// TileID is the key of a labeled training tile.
//
// The dispatcher treats a TileID as opaque. By convention it encodes the tile
// coordinates as "z-x-y" (for example "14-100-200"), which acquisition
// strategies that need coordinates recover with Tile.
type TileID string

// String returns the identifier as stored in the label archive.
func (id TileID) String() string {
	return string(id)
}

// Tile parses the identifier into slippy-map tile coordinates.
//
// Returns an error if the identifier is not of the form "z-x-y" or if x or y
// lie outside the tile range of zoom z.
//
// Example:
//
//	t, err := TileID("14-100-200").Tile()
//	// t.Z == 14, t.X == 100, t.Y == 200
func (id TileID) Tile() (maptile.Tile, error) {
	parts := strings.Split(string(id), "-")
	if len(parts) != 3 {
		return maptile.Tile{}, fmt.Errorf("tile id %q: want z-x-y", string(id))
	}

	var nums [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return maptile.Tile{}, fmt.Errorf("tile id %q: %w", string(id), err)
		}
		nums[i] = n
	}

	z, x, y := nums[0], nums[1], nums[2]
	if z > MaxZoom {
		return maptile.Tile{}, fmt.Errorf("tile id %q: zoom %d exceeds %d", string(id), z, MaxZoom)
	}
	limit := uint64(1) << z
	if x >= limit || y >= limit {
		return maptile.Tile{}, fmt.Errorf("tile id %q: x/y outside zoom %d range", string(id), z)
	}

	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

// TileSet is the ordered collection of tile identifiers read from a label
// archive. Identifiers are unique; order is the archive's iteration order.
type TileSet []TileID

// NewTileSet builds a TileSet from raw keys, dropping duplicates while
// keeping the first occurrence's position.
func NewTileSet(keys []string) TileSet {
	seen := make(map[string]struct{}, len(keys))
	set := make(TileSet, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		set = append(set, TileID(k))
	}
	return set
}

// Len returns the number of tiles in the set.
func (s TileSet) Len() int {
	return len(s)
}

// TilePath returns the file path a tile image is written to inside dir.
//
// The identifier is embedded verbatim (after filename sanitization) so the
// array assembly step can recover it from the file name:
//
//	TilePath("/data/tiles_all", "14-100-200", ".jpg")
//	// "/data/tiles_all/14-100-200.jpg"
func TilePath(dir string, id TileID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(dir, sanitizeFileName(string(id))+ext)
}

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots     = regexp.MustCompile(`\.+$`)
	repeatedSpace    = regexp.MustCompile(`\s+`)
)

// sanitizeFileName removes or replaces characters that are invalid in file names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Trailing whitespace is removed
func sanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpace.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}
