package imagery

import (
	"path/filepath"
	"strings"

	"github.com/handiism/tilefetch/internal/model"
)

// rasterExtensions are the locator extensions read as georeferenced rasters.
var rasterExtensions = map[string]struct{}{
	".tif":  {},
	".tiff": {},
}

// Classify picks the acquisition strategy for an imagery locator.
//
// Locators whose extension is .tif or .tiff (any case) are rasters; every
// other locator, including URL templates and strings without an extension,
// is a tile server. The extension is taken from the whole string, so a URL
// ending in a query string is a tile server even if its path ends in .tif.
func Classify(locator string) model.Strategy {
	ext := strings.ToLower(filepath.Ext(locator))
	if _, ok := rasterExtensions[ext]; ok {
		return model.StrategyRaster
	}
	return model.StrategyTileServer
}
