package imagery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/handiism/tilefetch/internal/http"
	ioutils "github.com/handiism/tilefetch/internal/io"
	"github.com/handiism/tilefetch/internal/model"
	"github.com/paulmach/orb/maptile"
	"golang.org/x/sync/errgroup"
)

// DefaultImageFormat is used when neither the configuration nor the URL
// template names an image extension.
const DefaultImageFormat = ".png"

// TileServerConfig holds the request settings of the tile-server strategy.
type TileServerConfig struct {
	// ImageFormat forces the output extension (".jpg", "png", ...). Empty
	// means: take it from the URL template path.
	ImageFormat string

	// Concurrency bounds parallel neighbour requests while building an
	// offset mosaic.
	Concurrency int

	// MaxRetries is the number of attempts per tile request.
	MaxRetries int

	// RetryCooldown is the first retry delay in seconds; each further retry
	// waits RetryExponent times longer.
	RetryCooldown float64
	RetryExponent float64
}

// DefaultTileServerConfig returns the request settings used when none are
// configured. config.DefaultSettings starts from these values.
func DefaultTileServerConfig() TileServerConfig {
	return TileServerConfig{
		Concurrency:   4,
		MaxRetries:    3,
		RetryCooldown: 0.2,
		RetryExponent: 4.0,
	}
}

// TileServer acquires tiles through templated HTTP requests.
//
// The URL template may contain {z}, {x} and {y} (and {-y} for TMS row
// order). Without an offset the server's response is written verbatim. With
// an offset the neighbouring tiles covering the shifted window are fetched,
// stitched into a mosaic and the shifted 256x256 tile is cut out of it.
type TileServer struct {
	client *http.Client
	images *ioutils.ImageService
	cfg    TileServerConfig

	// OnRetry, when set, is called before each retry of a failed request.
	OnRetry func(tile model.TileID, attempt, attempts int, err error)
}

// NewTileServer creates a tile-server strategy using client for requests.
func NewTileServer(client *http.Client, cfg TileServerConfig) *TileServer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &TileServer{
		client: client,
		images: ioutils.NewImageService(),
		cfg:    cfg,
	}
}

// Extension returns the output file extension for a URL template.
func (s *TileServer) Extension(locator string) string {
	if f := s.cfg.ImageFormat; f != "" {
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		return strings.ToLower(f)
	}

	u := locator
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if _, rest, ok := strings.Cut(u, "://"); ok {
		u = rest
	}
	if ext := path.Ext(u); ext != "" && !strings.ContainsAny(ext, "{}") {
		return strings.ToLower(ext)
	}
	return DefaultImageFormat
}

// OutputPath returns where Acquire writes the tile for req.
func (s *TileServer) OutputPath(req model.Request) string {
	return model.TilePath(req.Dir, req.Tile, s.Extension(req.Locator))
}

// Acquire fetches one tile and writes it into req.Dir.
func (s *TileServer) Acquire(ctx context.Context, req model.Request) error {
	tile, err := req.Tile.Tile()
	if err != nil {
		return err
	}

	var data []byte
	if req.Offset.IsZero() {
		data, err = s.fetch(ctx, req.Tile, TileURL(req.Locator, tile))
	} else {
		data, err = s.mosaic(ctx, req, tile)
	}
	if err != nil {
		return err
	}

	return ioutils.WriteFile(ctx, s.OutputPath(req), data)
}

// mosaic builds the offset tile from every neighbour the shifted window touches.
func (s *TileServer) mosaic(ctx context.Context, req model.Request, tile maptile.Tile) ([]byte, error) {
	// The window's upper-left corner, in pixels relative to the tile's own.
	wx, wy := -req.Offset.DX, -req.Offset.DY

	col0, col1 := floorDiv(wx, model.TileSize), floorDiv(wx+model.TileSize-1, model.TileSize)
	row0, row1 := floorDiv(wy, model.TileSize), floorDiv(wy+model.TileSize-1, model.TileSize)

	n := int64(1) << uint(tile.Z)
	grid := make([][]image.Image, row1-row0+1)
	for r := range grid {
		grid[r] = make([]image.Image, col1-col0+1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for r := range grid {
		ty := int64(tile.Y) + int64(row0+r)
		if ty < 0 || ty >= n {
			continue
		}
		for c := range grid[r] {
			tx := (int64(tile.X) + int64(col0+c)) % n
			if tx < 0 {
				tx += n
			}
			r, c := r, c
			neighbour := maptile.New(uint32(tx), uint32(ty), tile.Z)
			g.Go(func() error {
				data, err := s.fetch(gctx, req.Tile, TileURL(req.Locator, neighbour))
				if err != nil {
					return fmt.Errorf("neighbour %d/%d/%d: %w", neighbour.Z, neighbour.X, neighbour.Y, err)
				}
				img, err := s.images.Decode(data)
				if err != nil {
					return fmt.Errorf("neighbour %d/%d/%d: %w", neighbour.Z, neighbour.X, neighbour.Y, err)
				}
				grid[r][c] = img
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	canvas := s.images.Stitch(grid, model.TileSize)
	origin := image.Pt(wx-col0*model.TileSize, wy-row0*model.TileSize)
	window := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(model.TileSize, model.TileSize))}

	return s.images.Encode(s.images.Window(canvas, window, model.TileSize), s.Extension(req.Locator))
}

// fetch GETs url, retrying temporary failures with exponential cooldown.
func (s *TileServer) fetch(ctx context.Context, id model.TileID, url string) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	for tries := 0; tries < s.cfg.MaxRetries; tries++ {
		data, err = s.client.Get(ctx, url)
		if err == nil {
			return data, nil
		}

		var se *http.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if tries+1 == s.cfg.MaxRetries {
			break
		}

		if s.OnRetry != nil {
			s.OnRetry(id, tries+1, s.cfg.MaxRetries, err)
		}
		s.waitForRetry(ctx, tries)
	}

	return nil, err
}

func (s *TileServer) waitForRetry(ctx context.Context, tries int) {
	cooldown := s.cfg.RetryCooldown * math.Pow(s.cfg.RetryExponent, float64(tries))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
	}
}

// TileURL fills a URL template with the tile's coordinates.
//
//	TileURL("http://example.com/{z}/{x}/{y}.jpg", maptile.New(100, 200, 14))
//	// "http://example.com/14/100/200.jpg"
func TileURL(template string, t maptile.Tile) string {
	flipped := (uint64(1) << uint(t.Z)) - 1 - uint64(t.Y)
	r := strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(t.Z), 10),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{-y}", strconv.FormatUint(flipped, 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	)
	return r.Replace(template)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
