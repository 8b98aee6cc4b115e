// Package download provides the dispatch logic that turns a label archive
// into a directory of training tiles.
//
// # Manager
//
// The Manager coordinates one run:
//
//  1. Read the tile set from <dest>/labels.npz
//  2. Create <dest>/tiles_all
//  3. Classify the imagery locator as a tile server or a GeoTIFF raster
//  4. Acquire every tile, in tile-set order, with the configured offset
//
// # Basic Usage
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	summary, err := manager.Download(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d/%d tiles\n", summary.Succeeded, summary.Total)
//
// Initialize and Run can be called separately when the caller wants to show
// the tile count before acquisition starts.
//
// # Errors
//
// Label loading and directory creation errors abort the run. A tile that
// fails to acquire is reported as a LevelError event and recorded in
// Summary.Failed; the remaining tiles are still attempted. Cancelling the
// context stops the run before the next tile.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// Exactly one LevelInfo event is emitted per run, naming the tile count and
// the output directory. GetProgress returns attempted/total counters that are
// safe to poll from another goroutine.
package download
