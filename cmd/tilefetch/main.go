package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/handiism/tilefetch/internal/config"
	"github.com/handiism/tilefetch/internal/download"
	"github.com/handiism/tilefetch/internal/logger"
	"github.com/spf13/cobra"
)

type options struct {
	configPath   string
	dest         string
	imagery      string
	offset       string
	skipExisting bool
	verbose      bool
	dryRun       bool
}

// exitError carries a process exit code out of RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tilefetch",
		Short: "Download imagery tiles for a label archive",
		Long: `tilefetch reads the tile IDs stored in <dest>/labels.npz and writes one
image per tile into <dest>/tiles_all, taken either from a tile server URL
template or from a local GeoTIFF.`,
		Example: `  tilefetch --config config.json
  tilefetch --dest data --imagery 'https://tiles.example/{z}/{x}/{y}.png' --offset 15,-5`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "config.json", "Path to config file (JSON or YAML)")
	f.StringVarP(&opts.dest, "dest", "d", "", "Destination folder holding labels.npz (overrides config)")
	f.StringVarP(&opts.imagery, "imagery", "i", "", "Tile server URL template or GeoTIFF path (overrides config)")
	f.StringVar(&opts.offset, "offset", "", "Imagery offset in pixels as dx,dy (overrides config)")
	f.BoolVar(&opts.skipExisting, "skip-existing", false, "Skip tiles whose image already exists")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Show verbose output")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Read labels and prepare the directory without downloading")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	settings, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return err
	}

	// Apply flags
	flags := cmd.Flags()
	if flags.Changed("dest") {
		settings.DestFolder = opts.dest
	}
	if flags.Changed("imagery") {
		settings.Imagery = opts.imagery
	}
	if flags.Changed("offset") {
		offset, err := parseOffset(opts.offset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
		settings.ImageryOffset = offset
	}
	if flags.Changed("skip-existing") {
		settings.SkipExisting = opts.skipExisting
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if settings.Imagery == "" {
		err := errors.New("imagery is required (set it in the config or pass --imagery)")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	log := logger.Discard()
	if settings.Log.Path != "" {
		log, err = logger.New(settings.Log.Path, logger.ParseLevel(settings.Log.Level), settings.Log.IncludeStdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
			return err
		}
	}
	defer log.Close()

	// Handle interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := download.NewManager(settings, func(event download.ProgressEvent) {
		logEvent(log, event)

		if event.Level == download.LevelVerbose && !opts.verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case download.LevelError:
			prefix = "❌ "
		case download.LevelWarning:
			prefix = "⚠️  "
		case download.LevelSuccess:
			prefix = "✅ "
		case download.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	})

	fmt.Println("🛰  Tile Fetch")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	if err := manager.Initialize(ctx); err != nil {
		log.Error("initialize: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		if ctx.Err() != nil {
			return &exitError{code: 130, err: err}
		}
		return err
	}

	if opts.dryRun {
		fmt.Printf("\n[Dry run - %d %s tiles, not downloading]\n", len(manager.Tiles()), manager.Strategy())
		return nil
	}

	summary, err := manager.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			if summary != nil {
				log.Warn("run %s cancelled after %d/%d tiles", summary.RunID, summary.Attempted(), summary.Total)
			}
			fmt.Println("\nDownload cancelled.")
			return &exitError{code: 130, err: err}
		}
		fmt.Fprintf(os.Stderr, "Error during download: %v\n", err)
		return err
	}

	log.Info("run %s finished: %d ok, %d skipped, %d failed in %s",
		summary.RunID, summary.Succeeded, summary.Skipped, len(summary.Failed), summary.Duration())

	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("✨ Complete! Downloaded %d/%d tiles", summary.Succeeded, summary.Total)
	if summary.Skipped > 0 {
		fmt.Printf(" (%d skipped)", summary.Skipped)
	}
	fmt.Println()

	if len(summary.Failed) > 0 {
		fmt.Printf("   %d tiles failed\n", len(summary.Failed))
		return &exitError{code: 1, err: summary.Err()}
	}
	return nil
}

func logEvent(log *logger.Logger, event download.ProgressEvent) {
	switch event.Level {
	case download.LevelError:
		log.Error("%s", event.Message)
	case download.LevelWarning:
		log.Warn("%s", event.Message)
	case download.LevelVerbose:
		log.Debug("%s", event.Message)
	default:
		log.Info("%s", event.Message)
	}
}

// parseOffset parses "dx,dy". An empty value clears the offset.
func parseOffset(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("--offset %q: want dx,dy", s)
	}
	out := make([]int, 2)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("--offset %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}
