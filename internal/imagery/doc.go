// Package imagery selects and implements the tile acquisition strategies.
//
// # Classification
//
// Classify maps an imagery locator to a strategy once per run:
//
//	imagery.Classify("/data/mosaic.TIF")                  // model.StrategyRaster
//	imagery.Classify("http://example.com/{z}/{x}/{y}.jpg") // model.StrategyTileServer
//
// # Strategies
//
// TileServer and Raster both implement the same single operation,
//
//	Acquire(ctx context.Context, req model.Request) error
//
// which writes one image named after req.Tile into req.Dir. Both apply
// req.Offset: the tile server by stitching neighbour tiles into a mosaic and
// cutting the shifted tile out of it, the raster by shifting the pixel window
// read from the GeoTIFF.
//
// # Raster Sources
//
// Raster locators are local paths or objects in a bucket:
//
//	/data/mosaic.tif
//	s3://imagery/2024/mosaic.tif
//	gs://imagery/mosaic.tif
//
// Bucket URLs get RasterConfig.BucketQuery appended, so S3-compatible stores
// can be reached with "endpoint=...&use_path_style=true". World file sidecars
// are looked up next to the object.
//
// # Retry Logic
//
// Tile server requests failing with network errors, 5xx or 429 are retried
// with exponential backoff (TileServerConfig.MaxRetries, RetryCooldown,
// RetryExponent). Other 4xx responses fail immediately.
package imagery
