// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Destination directory creation
//   - Atomic tile file writes
//   - Tile decoding, stitching, windowing and encoding
//
// # File Operations
//
//	// Ensure the tile cache exists (idempotent)
//	err := ioutils.EnsureDir("/data/project/tiles_all")
//
//	// Write a tile without exposing partial files
//	err := ioutils.WriteFile(ctx, "/data/project/tiles_all/14-100-200.jpg", data)
//
// # Image Processing
//
// The ImageService handles tile pixels:
//
//	svc := ioutils.NewImageService()
//
//	// Stitch a 2x2 block of neighbours and cut a shifted tile out of it
//	mosaic := svc.Stitch([][]image.Image{{a, b}, {c, d}}, 256)
//	tile := svc.Window(mosaic, image.Rect(15, 5, 271, 261), 256)
//
//	// Encode for the output file's extension
//	data, _ := svc.Encode(tile, ".jpg")
package ioutils
