package geotiff

import (
	"errors"
	"fmt"
	"math"
)

// Supported coordinate reference systems.
const (
	EPSG4326 = 4326 // WGS 84 longitude/latitude
	EPSG3857 = 3857 // WGS 84 / Pseudo-Mercator
)

var (
	// ErrNotGeoreferenced is returned for rasters without GeoTIFF tags or a world file.
	ErrNotGeoreferenced = errors.New("raster is not georeferenced")

	// ErrRotated is returned for affine transforms with rotation or shear terms.
	ErrRotated = errors.New("rotated rasters are not supported")
)

// Georef maps raster pixel coordinates to world coordinates for a north-up
// raster.
//
// OriginX/OriginY locate the outer upper-left corner of pixel (0, 0).
// PixelHeight is negative for the usual north-up layout.
type Georef struct {
	OriginX     float64
	OriginY     float64
	PixelWidth  float64
	PixelHeight float64

	// EPSG is the raster's CRS code, 0 when the file does not declare one.
	EPSG int

	// Width and Height are the raster size in pixels when known from the
	// TIFF header, 0 otherwise.
	Width  int
	Height int
}

// WorldToPixel converts world coordinates in the raster CRS to fractional
// pixel coordinates.
func (g *Georef) WorldToPixel(x, y float64) (px, py float64) {
	return (x - g.OriginX) / g.PixelWidth, (y - g.OriginY) / g.PixelHeight
}

func (g *Georef) validate() error {
	if g.PixelWidth == 0 || g.PixelHeight == 0 ||
		math.IsNaN(g.PixelWidth) || math.IsNaN(g.PixelHeight) {
		return fmt.Errorf("%w: zero pixel size", ErrNotGeoreferenced)
	}
	return nil
}

// NormalizeEPSG folds the historical Web Mercator codes onto EPSG:3857.
func NormalizeEPSG(code int) int {
	switch code {
	case 3857, 3785, 900913, 102100, 102113:
		return EPSG3857
	default:
		return code
	}
}
