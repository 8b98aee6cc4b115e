// Package model defines the core data structures shared across tilefetch.
//
// # Tiles
//
// A TileID names one labeled training tile. It is opaque to the dispatcher
// but conventionally encodes "z-x-y", which strategies parse with Tile:
//
//	t, err := model.TileID("14-100-200").Tile()
//
// A TileSet is the ordered, de-duplicated list of ids read from labels.npz.
//
// # Acquisition Requests
//
// Every acquisition call receives a Request holding the tile, the imagery
// locator, the destination directory and the Offset:
//
//	req := model.Request{
//	    Tile:    "14-100-200",
//	    Locator: "http://example.com/{z}/{x}/{y}.jpg",
//	    Dir:     "/data/tiles_all",
//	    Offset:  model.NewOffset(15, -5),
//	}
//
// Output files are named with TilePath so the id survives in the file name.
package model
