package imagery

import (
	"testing"

	"github.com/handiism/tilefetch/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		locator string
		want    model.Strategy
	}{
		{"/data/mosaic.tif", model.StrategyRaster},
		{"/data/mosaic.TIF", model.StrategyRaster},
		{"/data/mosaic.tiff", model.StrategyRaster},
		{"/data/mosaic.TIFF", model.StrategyRaster},
		{"mosaic.Tif", model.StrategyRaster},
		{"http://example.com/{z}/{x}/{y}.jpg", model.StrategyTileServer},
		{"http://example.com/{z}/{x}/{y}.png?access_token=abc", model.StrategyTileServer},
		{"http://example.com/export.tif?bbox={x}", model.StrategyTileServer},
		{"/data/mosaic.jp2", model.StrategyTileServer},
		{"/data/mosaic", model.StrategyTileServer},
		{"/data/mosaic.tif.bak", model.StrategyTileServer},
		{"", model.StrategyTileServer},
	}

	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			if got := Classify(tt.locator); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.locator, got, tt.want)
			}
		})
	}
}
