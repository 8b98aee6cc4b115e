package ioutils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// ErrUnsupportedFormat is returned when an image cannot be encoded to the
// requested file extension.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageService provides the pixel operations acquisition strategies share.
//
// ImageService is used to:
//   - Decode tile server responses (JPEG, PNG, WebP, TIFF)
//   - Cut a shifted window out of a stitched mosaic or a raster
//   - Encode the result to the tile's output format
//
// Example usage:
//
//	svc := NewImageService()
//	img, _ := svc.Decode(data)
//	tile := svc.Window(img, image.Rect(-15, 5, 241, 261), 256)
//	out, _ := svc.Encode(tile, ".jpg")
type ImageService struct {
	// Quality is the JPEG quality used by Encode.
	Quality int
}

// NewImageService creates a new ImageService encoding JPEG at quality 90.
func NewImageService() *ImageService {
	return &ImageService{Quality: 90}
}

// Decode decodes image data in any registered format.
func (s *ImageService) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Encode encodes img for a file with the given extension.
//
// ".jpg" and ".jpeg" produce JPEG, ".png" produces PNG. Any other extension
// returns ErrUnsupportedFormat.
func (s *ImageService) Encode(img image.Image, ext string) ([]byte, error) {
	var buf bytes.Buffer

	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.Quality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	return buf.Bytes(), nil
}

// Window reads the window rectangle out of src into a new size×size image.
//
// The read is boundless: parts of window outside src's bounds are left
// black. When window is larger or smaller than size×size the covered part is
// resampled with bilinear interpolation; an exact size×size window is copied
// pixel for pixel.
//
// Example:
//
//	// 256x256 window shifted 15 px left and 5 px down from the origin
//	tile := svc.Window(mosaic, image.Rect(-15, 5, 241, 261), 256)
func (s *ImageService) Window(src image.Image, window image.Rectangle, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	if window.Empty() {
		return dst
	}

	inter := window.Intersect(src.Bounds())
	if inter.Empty() {
		return dst
	}

	if window.Dx() == size && window.Dy() == size {
		r := inter.Sub(window.Min)
		draw.Draw(dst, r, src, inter.Min, draw.Src)
		return dst
	}

	// Map the covered part of the window onto the matching part of dst.
	dr := image.Rect(
		(inter.Min.X-window.Min.X)*size/window.Dx(),
		(inter.Min.Y-window.Min.Y)*size/window.Dy(),
		(inter.Max.X-window.Min.X)*size/window.Dx(),
		(inter.Max.Y-window.Min.Y)*size/window.Dy(),
	)
	if dr.Empty() {
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dr, src, inter, draw.Src, nil)

	return dst
}

// Stitch pastes equally sized tiles onto one canvas. tiles[row][col] lands at
// (col*size, row*size); nil entries stay black.
func (s *ImageService) Stitch(tiles [][]image.Image, size int) *image.RGBA {
	rows := len(tiles)
	cols := 0
	for _, row := range tiles {
		if len(row) > cols {
			cols = len(row)
		}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, cols*size, rows*size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for r, row := range tiles {
		for c, img := range row {
			if img == nil {
				continue
			}
			at := image.Rect(c*size, r*size, (c+1)*size, (r+1)*size)
			b := img.Bounds()
			if b.Dx() == size && b.Dy() == size {
				draw.Draw(canvas, at, img, b.Min, draw.Src)
			} else {
				draw.CatmullRom.Scale(canvas, at, img, b, draw.Src, nil)
			}
		}
	}

	return canvas
}
