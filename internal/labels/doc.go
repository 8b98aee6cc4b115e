// Package labels reads the tile set out of a label archive.
//
// Label generation persists one array per training tile in
// <dest_folder>/labels.npz, keyed by tile id. Only the keys are consumed here:
//
//	tiles, err := labels.Load("/data/project")
//	if errors.Is(err, labels.ErrNotFound) {
//	    // no labels.npz in /data/project
//	}
package labels
