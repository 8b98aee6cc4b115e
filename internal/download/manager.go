package download

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/handiism/tilefetch/internal/config"
	"github.com/handiism/tilefetch/internal/http"
	"github.com/handiism/tilefetch/internal/imagery"
	ioutils "github.com/handiism/tilefetch/internal/io"
	"github.com/handiism/tilefetch/internal/labels"
	"github.com/handiism/tilefetch/internal/model"
	"github.com/segmentio/ksuid"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Acquirer fetches one tile and writes its image into the request's directory.
type Acquirer interface {
	Acquire(ctx context.Context, req model.Request) error
}

// OutputPather is implemented by acquirers that can tell where a tile will be
// written. The manager needs it to skip tiles that already exist.
type OutputPather interface {
	OutputPath(req model.Request) string
}

// Manager dispatches tile acquisitions for one label archive.
type Manager struct {
	settings  *config.Settings
	acquirers map[model.Strategy]Acquirer

	tiles    model.TileSet
	strategy model.Strategy
	tilesDir string
	offset   model.Offset

	phase     Phase
	total     int32
	attempted int32

	onProgress func(ProgressEvent)
	mu         sync.RWMutex
}

// NewManager creates a Manager with the tile-server and raster strategies
// configured from settings.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent)) *Manager {
	m := &Manager{
		settings:   settings,
		acquirers:  make(map[model.Strategy]Acquirer),
		onProgress: onProgress,
	}

	client := http.NewClient(
		http.WithTimeout(settings.RequestTimeout()),
		http.WithUserAgent(settings.TileServer.UserAgent),
		http.WithBasicAuth(settings.TileServer.HTTPAuth.Username, settings.TileServer.HTTPAuth.Password),
	)
	tileServer := imagery.NewTileServer(client, settings.ToTileServerConfig())
	tileServer.OnRetry = func(tile model.TileID, attempt, attempts int, err error) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d for %s: %v", attempt, attempts, tile, err), Level: LevelWarning})
	}

	m.acquirers[model.StrategyTileServer] = tileServer
	m.acquirers[model.StrategyRaster] = imagery.NewRaster(settings.ToRasterConfig())

	return m
}

// SetAcquirer replaces the acquirer used for a strategy.
func (m *Manager) SetAcquirer(strategy model.Strategy, a Acquirer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquirers[strategy] = a
}

// Download runs Initialize followed by Run.
func (m *Manager) Download(ctx context.Context) (*Summary, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}
	return m.Run(ctx)
}

// Initialize loads the tile set, creates the destination directory and picks
// the acquisition strategy.
//
// A missing or unreadable label archive aborts before the directory is
// created; a directory that cannot be created aborts before any tile.
// State from an earlier Initialize is dropped first, so a failed call leaves
// nothing for Run to dispatch.
func (m *Manager) Initialize(ctx context.Context) error {
	m.reset()

	if err := ctx.Err(); err != nil {
		return err
	}

	offset, err := m.settings.Offset()
	if err != nil {
		return err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Reading labels: %s", m.settings.LabelsPath()), Level: LevelVerbose})
	tiles, err := labels.Load(m.settings.DestFolder)
	if err != nil {
		return err
	}

	tilesDir := m.settings.TilesDir()
	if err := ioutils.EnsureDir(tilesDir); err != nil {
		return &FilesystemError{Path: tilesDir, Err: err}
	}

	strategy := imagery.Classify(m.settings.Imagery)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Using %s imagery: %s", strategy, m.settings.Imagery), Level: LevelVerbose})

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.acquirers[strategy]; !ok {
		return fmt.Errorf("no acquirer for %s imagery", strategy)
	}

	m.tiles = tiles
	m.strategy = strategy
	m.tilesDir = tilesDir
	m.offset = offset
	atomic.StoreInt32(&m.total, int32(len(tiles)))
	atomic.StoreInt32(&m.attempted, 0)

	return nil
}

// Run acquires every tile of the initialized tile set, in order.
//
// A failed tile is reported and recorded in the summary; the remaining tiles
// are still attempted. Run returns early only when ctx is cancelled, with the
// partial summary and ctx's error.
func (m *Manager) Run(ctx context.Context) (*Summary, error) {
	m.mu.RLock()
	tiles, strategy, dir, offset := m.tiles, m.strategy, m.tilesDir, m.offset
	acq, ok := m.acquirers[strategy]
	m.mu.RUnlock()

	if !ok || tiles == nil || m.Phase() != PhaseLoading {
		return nil, ErrNotInitialized
	}

	m.setPhase(PhaseDispatching)

	summary := &Summary{
		RunID:    ksuid.New().String(),
		Strategy: strategy,
		Dir:      dir,
		Offset:   offset,
		Total:    len(tiles),
		Started:  time.Now(),
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloading all %d tiles to %s", len(tiles), dir), Level: LevelInfo})

	pather, canSkip := acq.(OutputPather)
	for _, tile := range tiles {
		if err := ctx.Err(); err != nil {
			summary.Finished = time.Now()
			return summary, err
		}

		req := model.Request{
			Tile:    tile,
			Locator: m.settings.Imagery,
			Dir:     dir,
			Offset:  offset,
		}

		if m.settings.SkipExisting && canSkip && ioutils.FileExists(pather.OutputPath(req)) {
			summary.Skipped++
			atomic.AddInt32(&m.attempted, 1)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping existing: %s", tile), Level: LevelVerbose})
			continue
		}

		err := acq.Acquire(ctx, req)
		atomic.AddInt32(&m.attempted, 1)
		if err != nil {
			aerr := &AcquisitionError{Tile: tile, Err: err}
			summary.Failed = append(summary.Failed, TileResult{Tile: tile, Err: aerr})
			m.progress(ProgressEvent{Message: aerr.Error(), Level: LevelError})
			continue
		}

		summary.Succeeded++
	}

	summary.Finished = time.Now()
	m.setPhase(PhaseDone)

	return summary, nil
}

// GetProgress returns how many tiles have been attempted out of the total.
func (m *Manager) GetProgress() (attempted, total int32) {
	return atomic.LoadInt32(&m.attempted), atomic.LoadInt32(&m.total)
}

// Phase returns the current phase of the run.
func (m *Manager) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Strategy returns the strategy selected by Initialize.
func (m *Manager) Strategy() model.Strategy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.strategy
}

// Tiles returns the loaded tile set.
func (m *Manager) Tiles() model.TileSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tiles
}

func (m *Manager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseLoading
	m.tiles = nil
	m.strategy = model.StrategyTileServer
	m.tilesDir = ""
	m.offset = model.NoOffset
	atomic.StoreInt32(&m.total, 0)
	atomic.StoreInt32(&m.attempted, 0)
}

func (m *Manager) setPhase(p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = p
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
