package imagery

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/handiism/tilefetch/internal/geotiff"
	ioutils "github.com/handiism/tilefetch/internal/io"
	"github.com/handiism/tilefetch/internal/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
	"gocloud.dev/blob"
)

// RasterImageFormat is the extension of tiles cut from rasters.
const RasterImageFormat = ".jpg"

// RasterConfig holds the settings of the raster strategy.
type RasterConfig struct {
	// DefaultEPSG is assumed for rasters that do not declare a CRS, such as
	// TIFFs georeferenced by a world file. Zero means EPSG:4326.
	DefaultEPSG int

	// OpenBucket opens buckets for s3://, gs:// and mem:// locators.
	// Nil means blob.OpenBucket.
	OpenBucket BucketOpener

	// BucketQuery is appended to bucket URLs, e.g.
	// "endpoint=http://localhost:9000&use_path_style=true&region=us-east-1"
	// for S3-compatible stores.
	BucketQuery string
}

// Raster acquires tiles by reading pixel windows out of a georeferenced
// TIFF, stored locally or in an object storage bucket. Each raster is decoded
// once and kept for the strategy's lifetime.
type Raster struct {
	images *ioutils.ImageService
	cfg    RasterConfig

	mu      sync.Mutex
	sources map[string]*rasterSource
}

type rasterSource struct {
	img image.Image
	geo *geotiff.Georef
}

// NewRaster creates a raster strategy.
func NewRaster(cfg RasterConfig) *Raster {
	if cfg.DefaultEPSG == 0 {
		cfg.DefaultEPSG = geotiff.EPSG4326
	}
	if cfg.OpenBucket == nil {
		cfg.OpenBucket = blob.OpenBucket
	}
	return &Raster{
		images:  ioutils.NewImageService(),
		cfg:     cfg,
		sources: make(map[string]*rasterSource),
	}
}

// OutputPath returns where Acquire writes the tile for req.
func (s *Raster) OutputPath(req model.Request) string {
	return model.TilePath(req.Dir, req.Tile, RasterImageFormat)
}

// Acquire cuts the tile's window out of the raster at req.Locator, resampled
// to 256x256, and writes it as JPEG into req.Dir. Parts of the window outside
// the raster are black.
func (s *Raster) Acquire(ctx context.Context, req model.Request) error {
	tile, err := req.Tile.Tile()
	if err != nil {
		return err
	}

	src, err := s.open(ctx, req.Locator)
	if err != nil {
		return err
	}

	window, err := PixelWindow(src.geo, tile, req.Offset)
	if err != nil {
		return err
	}

	data, err := s.images.Encode(s.images.Window(src.img, window, model.TileSize), RasterImageFormat)
	if err != nil {
		return err
	}

	return ioutils.WriteFile(ctx, s.OutputPath(req), data)
}

func (s *Raster) open(ctx context.Context, locator string) (*rasterSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if src, ok := s.sources[locator]; ok {
		return src, nil
	}

	data, geo, err := s.readRaster(ctx, locator)
	if err != nil {
		return nil, err
	}
	img, err := s.images.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", locator, err)
	}

	src := &rasterSource{img: img, geo: geo}
	s.sources[locator] = src
	return src, nil
}

// PixelWindow returns the raster pixel rectangle covering a tile.
//
// The tile bounds are projected into the raster CRS and shifted by the
// offset in destination-pixel units (1/256 of the tile per pixel) before
// being converted to raster pixels. The window is at least one pixel wide
// and tall.
func PixelWindow(geo *geotiff.Georef, tile maptile.Tile, offset model.Offset) (image.Rectangle, error) {
	b := tile.Bound()
	nw := orb.Point{b.Min.X(), b.Max.Y()}
	se := orb.Point{b.Max.X(), b.Min.Y()}

	switch geo.EPSG {
	case geotiff.EPSG4326:
	case geotiff.EPSG3857:
		nw = project.WGS84.ToMercator(nw)
		se = project.WGS84.ToMercator(se)
	default:
		return image.Rectangle{}, fmt.Errorf("unsupported raster CRS EPSG:%d", geo.EPSG)
	}

	west, north, east, south := nw.X(), nw.Y(), se.X(), se.Y()
	if !offset.IsZero() {
		perPixelX := (east - west) / model.TileSize
		perPixelY := (north - south) / model.TileSize
		west -= float64(offset.DX) * perPixelX
		east -= float64(offset.DX) * perPixelX
		north += float64(offset.DY) * perPixelY
		south += float64(offset.DY) * perPixelY
	}

	left, top := geo.WorldToPixel(west, north)
	right, bottom := geo.WorldToPixel(east, south)

	r := image.Rect(round(left), round(top), round(right), round(bottom))
	if r.Dx() == 0 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() == 0 {
		r.Max.Y = r.Min.Y + 1
	}
	return r, nil
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
