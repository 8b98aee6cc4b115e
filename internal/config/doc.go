// Package config provides configuration management for tilefetch.
//
// This package handles:
//   - Loading settings from JSON or YAML files through viper
//   - TILEFETCH_* environment overrides (TILEFETCH_TILE_SERVER_MAX_RETRIES, ...)
//   - Default configuration values
//   - Conversion to the strategy configs used by the imagery package
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Tiles go to ./tiles_all, no offset, 3 attempts per tile request
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	// A missing file yields the defaults
//
// # Configuration Options
//
// Settings includes the label-generation project options (dest_folder,
// imagery, imagery_offset, and the classes/ml_type/background_ratio values
// that are carried but not interpreted here), plus:
//   - skip_existing for resumable runs
//   - tile_server request concurrency, retries, timeout and basic auth
//   - raster.crs for rasters without a declared CRS
//   - raster.bucket_query for rasters in S3-compatible object storage
//   - log file settings
//
// Save writes JSON, or YAML when the path ends in .yaml or .yml.
package config
