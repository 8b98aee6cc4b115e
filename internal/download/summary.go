package download

import (
	"errors"
	"time"

	"github.com/handiism/tilefetch/internal/model"
)

// Phase is the dispatcher's position in a run.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseLoading
	PhaseDispatching
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "LOADING"
	case PhaseDispatching:
		return "DISPATCHING"
	case PhaseDone:
		return "DONE"
	default:
		return "INIT"
	}
}

// TileResult records a tile that did not download.
type TileResult struct {
	Tile model.TileID
	Err  error
}

// Summary describes a finished (or interrupted) run.
type Summary struct {
	// RunID identifies the run in logs.
	RunID string

	Strategy model.Strategy
	Dir      string
	Offset   model.Offset

	Total     int
	Succeeded int
	Skipped   int
	Failed    []TileResult

	Started  time.Time
	Finished time.Time
}

// Attempted returns how many tiles the run got to.
func (s *Summary) Attempted() int {
	return s.Succeeded + s.Skipped + len(s.Failed)
}

// Complete reports whether every tile was attempted, regardless of outcome.
func (s *Summary) Complete() bool {
	return s.Attempted() == s.Total
}

// Err joins the per-tile failures, or returns nil when there were none.
func (s *Summary) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(s.Failed))
	for i, f := range s.Failed {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}
