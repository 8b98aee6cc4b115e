// Package geotiff reads the georeferencing of north-up raster files.
//
// The pixel data itself is decoded with golang.org/x/image/tiff, which does
// not expose GeoTIFF tags; this package reads ModelPixelScale,
// ModelTiepoint, ModelTransformation and the GeoKeyDirectory straight from
// the first IFD, and falls back to ESRI world files.
//
//	g, err := geotiff.ReadFile("/data/mosaic.tif", geotiff.EPSG4326)
//	px, py := g.WorldToPixel(lon, lat)
package geotiff
