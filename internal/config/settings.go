package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/handiism/tilefetch/internal/imagery"
	"github.com/handiism/tilefetch/internal/labels"
	"github.com/handiism/tilefetch/internal/model"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// TilesDirName is the directory inside dest_folder that receives the tiles.
const TilesDirName = "tiles_all"

// EnvPrefix prefixes environment overrides, e.g. TILEFETCH_DEST_FOLDER.
const EnvPrefix = "TILEFETCH"

// Settings holds all configuration options.
type Settings struct {
	// Project settings shared with label generation
	DestFolder      string           `mapstructure:"dest_folder" json:"dest_folder" yaml:"dest_folder"`
	Imagery         string           `mapstructure:"imagery" json:"imagery" yaml:"imagery"`
	ImageryOffset   []int            `mapstructure:"imagery_offset" json:"imagery_offset,omitempty" yaml:"imagery_offset,omitempty"`
	Classes         []map[string]any `mapstructure:"classes" json:"classes,omitempty" yaml:"classes,omitempty"`
	MLType          string           `mapstructure:"ml_type" json:"ml_type" yaml:"ml_type"`
	BackgroundRatio float64          `mapstructure:"background_ratio" json:"background_ratio" yaml:"background_ratio"`

	// Download behaviour
	SkipExisting bool `mapstructure:"skip_existing" json:"skip_existing" yaml:"skip_existing"`

	TileServer TileServerSettings `mapstructure:"tile_server" json:"tile_server" yaml:"tile_server"`
	Raster     RasterSettings     `mapstructure:"raster" json:"raster" yaml:"raster"`
	Log        LogSettings        `mapstructure:"log" json:"log" yaml:"log"`
}

// TileServerSettings configures requests against tile servers.
type TileServerSettings struct {
	ImageFormat   string   `mapstructure:"image_format" json:"image_format" yaml:"image_format"`
	Concurrency   int      `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency"`
	MaxRetries    int      `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries"`
	RetryCooldown float64  `mapstructure:"retry_cooldown" json:"retry_cooldown" yaml:"retry_cooldown"`
	RetryExponent float64  `mapstructure:"retry_exponent" json:"retry_exponent" yaml:"retry_exponent"`
	Timeout       float64  `mapstructure:"timeout" json:"timeout" yaml:"timeout"` // seconds
	UserAgent     string   `mapstructure:"user_agent" json:"user_agent" yaml:"user_agent"`
	HTTPAuth      HTTPAuth `mapstructure:"http_auth" json:"http_auth" yaml:"http_auth"`
}

// HTTPAuth holds basic auth credentials for protected imagery.
type HTTPAuth struct {
	Username string `mapstructure:"username" json:"username" yaml:"username"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`
}

// RasterSettings configures GeoTIFF reads.
type RasterSettings struct {
	// CRS assumed for rasters that do not declare one: "EPSG:4326" or "EPSG:3857".
	CRS string `mapstructure:"crs" json:"crs" yaml:"crs"`
	// BucketQuery holds gocloud bucket URL options for s3:// and gs:// rasters.
	BucketQuery string `mapstructure:"bucket_query" json:"bucket_query,omitempty" yaml:"bucket_query,omitempty"`
}

// LogSettings configures the run log file.
type LogSettings struct {
	Path          string `mapstructure:"path" json:"path" yaml:"path"`
	Level         string `mapstructure:"level" json:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" json:"include_stdout" yaml:"include_stdout"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	ts := imagery.DefaultTileServerConfig()
	return &Settings{
		DestFolder:      ".",
		MLType:          "classification",
		BackgroundRatio: 0,
		SkipExisting:    false,

		TileServer: TileServerSettings{
			Concurrency:   ts.Concurrency,
			MaxRetries:    ts.MaxRetries,
			RetryCooldown: ts.RetryCooldown,
			RetryExponent: ts.RetryExponent,
			Timeout:       60,
		},

		Raster: RasterSettings{
			CRS: "EPSG:4326",
		},

		Log: LogSettings{
			Level: "info",
		},
	}
}

// Load reads settings from a JSON or YAML file, applying TILEFETCH_*
// environment overrides. A missing file yields the defaults (plus overrides).
func Load(path string) (*Settings, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings, withOffsetHook); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

func newViper() *viper.Viper {
	d := DefaultSettings()
	v := viper.New()

	v.SetDefault("dest_folder", d.DestFolder)
	v.SetDefault("imagery", d.Imagery)
	v.SetDefault("imagery_offset", d.ImageryOffset)
	v.SetDefault("ml_type", d.MLType)
	v.SetDefault("background_ratio", d.BackgroundRatio)
	v.SetDefault("skip_existing", d.SkipExisting)
	v.SetDefault("tile_server.image_format", d.TileServer.ImageFormat)
	v.SetDefault("tile_server.concurrency", d.TileServer.Concurrency)
	v.SetDefault("tile_server.max_retries", d.TileServer.MaxRetries)
	v.SetDefault("tile_server.retry_cooldown", d.TileServer.RetryCooldown)
	v.SetDefault("tile_server.retry_exponent", d.TileServer.RetryExponent)
	v.SetDefault("tile_server.timeout", d.TileServer.Timeout)
	v.SetDefault("tile_server.user_agent", d.TileServer.UserAgent)
	v.SetDefault("tile_server.http_auth.username", "")
	v.SetDefault("tile_server.http_auth.password", "")
	v.SetDefault("raster.crs", d.Raster.CRS)
	v.SetDefault("raster.bucket_query", d.Raster.BucketQuery)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.include_stdout", d.Log.IncludeStdout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

var (
	intSliceType  = reflect.TypeOf([]int(nil))
	errOffsetTrue = errors.New("imagery_offset must be [dx, dy] or false, got true")
)

// withOffsetHook runs offsetHook ahead of viper's own decode hooks.
func withOffsetHook(c *mapstructure.DecoderConfig) {
	if c.DecodeHook == nil {
		c.DecodeHook = offsetHook
		return
	}
	c.DecodeHook = mapstructure.ComposeDecodeHookFunc(offsetHook, c.DecodeHook)
}

// offsetHook accepts imagery_offset: false as "no offset". Weak decoding
// would otherwise turn false into []int{0}.
func offsetHook(from, to reflect.Type, data any) (any, error) {
	if to != intSliceType {
		return data, nil
	}

	switch from.Kind() {
	case reflect.Bool:
		if reflect.ValueOf(data).Bool() {
			return nil, errOffsetTrue
		}
		return []int{}, nil
	case reflect.String:
		switch strings.ToLower(strings.TrimSpace(reflect.ValueOf(data).String())) {
		case "", "false":
			return []int{}, nil
		case "true":
			return nil, errOffsetTrue
		}
	}
	return data, nil
}

// Validate checks option values that would otherwise fail mid-run.
func (s *Settings) Validate() error {
	if s.DestFolder == "" {
		return errors.New("dest_folder is required")
	}
	if _, err := s.Offset(); err != nil {
		return err
	}
	if _, err := ParseEPSG(s.Raster.CRS); err != nil {
		return err
	}
	if s.TileServer.Concurrency < 0 {
		return fmt.Errorf("tile_server.concurrency must not be negative, got %d", s.TileServer.Concurrency)
	}
	if s.TileServer.MaxRetries < 0 {
		return fmt.Errorf("tile_server.max_retries must not be negative, got %d", s.TileServer.MaxRetries)
	}
	return nil
}

// Save writes settings to path, as YAML for .yaml/.yml files and JSON
// otherwise.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	default:
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LabelsPath returns the label archive location.
func (s *Settings) LabelsPath() string {
	return labels.Path(s.DestFolder)
}

// TilesDir returns the directory tiles are written into.
func (s *Settings) TilesDir() string {
	return filepath.Join(s.DestFolder, TilesDirName)
}

// Offset converts imagery_offset to a model.Offset.
func (s *Settings) Offset() (model.Offset, error) {
	return model.OffsetFromSlice(s.ImageryOffset)
}

// ToTileServerConfig converts settings to the tile-server strategy config.
func (s *Settings) ToTileServerConfig() imagery.TileServerConfig {
	return imagery.TileServerConfig{
		ImageFormat:   s.TileServer.ImageFormat,
		Concurrency:   s.TileServer.Concurrency,
		MaxRetries:    s.TileServer.MaxRetries,
		RetryCooldown: s.TileServer.RetryCooldown,
		RetryExponent: s.TileServer.RetryExponent,
	}
}

// ToRasterConfig converts settings to the raster strategy config.
func (s *Settings) ToRasterConfig() imagery.RasterConfig {
	code, _ := ParseEPSG(s.Raster.CRS)
	return imagery.RasterConfig{DefaultEPSG: code, BucketQuery: s.Raster.BucketQuery}
}

// RequestTimeout returns the per-request timeout of the tile server client.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.TileServer.Timeout * float64(time.Second))
}

// ParseEPSG parses "EPSG:3857", "epsg:4326" or a bare code. Empty means 0.
func ParseEPSG(crs string) (int, error) {
	crs = strings.TrimSpace(crs)
	if crs == "" {
		return 0, nil
	}
	code, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(crs), "EPSG:"))
	if err != nil {
		return 0, fmt.Errorf("raster.crs %q: want EPSG:<code>", crs)
	}
	switch code {
	case 4326, 3857, 900913, 3785:
		return code, nil
	default:
		return 0, fmt.Errorf("raster.crs %q: only EPSG:4326 and EPSG:3857 are supported", crs)
	}
}
