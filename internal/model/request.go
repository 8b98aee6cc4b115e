package model

import (
	"fmt"
)

// Strategy identifies how imagery for a tile is acquired.
type Strategy int

const (
	// StrategyTileServer fetches tiles through templated network requests.
	StrategyTileServer Strategy = iota

	// StrategyRaster reads pixel windows out of a georeferenced raster file.
	StrategyRaster
)

// String returns the strategy tag, "TILE_SERVER" or "RASTER".
func (s Strategy) String() string {
	switch s {
	case StrategyRaster:
		return "RASTER"
	default:
		return "TILE_SERVER"
	}
}

// Offset is a pixel translation applied to every tile before fetching.
//
// Positive DX moves imagery right, negative DY moves it up, so an offset of
// {15, -5} shifts the picture 15 pixels right and 5 pixels up relative to the
// requested tile bounds. The zero value means no shift.
type Offset struct {
	DX      int
	DY      int
	Enabled bool
}

// NoOffset is the default, no-shift offset.
var NoOffset = Offset{}

// NewOffset returns an enabled offset of (dx, dy).
func NewOffset(dx, dy int) Offset {
	return Offset{DX: dx, DY: dy, Enabled: true}
}

// OffsetFromSlice converts a configured [dx, dy] pair into an Offset.
// An empty slice yields NoOffset.
func OffsetFromSlice(v []int) (Offset, error) {
	switch len(v) {
	case 0:
		return NoOffset, nil
	case 2:
		return NewOffset(v[0], v[1]), nil
	default:
		return NoOffset, fmt.Errorf("imagery offset needs 2 values, got %d", len(v))
	}
}

// IsZero reports whether the offset leaves imagery where it is.
func (o Offset) IsZero() bool {
	return !o.Enabled || (o.DX == 0 && o.DY == 0)
}

// String formats the offset as "dx,dy", or "none" when disabled.
func (o Offset) String() string {
	if !o.Enabled {
		return "none"
	}
	return fmt.Sprintf("%d,%d", o.DX, o.DY)
}

// Request carries everything one acquisition call needs.
type Request struct {
	// Tile is the identifier being fetched.
	Tile TileID

	// Locator is the imagery URL template or raster path.
	Locator string

	// Dir is the destination directory the tile image is written into.
	Dir string

	// Offset is the pixel correction, passed through unmodified.
	Offset Offset
}
