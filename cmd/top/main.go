// Command top runs a session in the terminal and shows its population,
// energy and largest groups as it evolves.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/game"
	"github.com/pthm-cable/terrarium/preview"
)

const frameInterval = 50 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed override (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	flag.Parse()

	// The screen owns stdout, so logs go to stderr.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := run(*configPath, *seed, *outputDir); err != nil {
		slog.Error("top failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, outputDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seed > 0 {
		cfg.Seed = uint32(seed)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := game.NewSession(cfg, game.Options{OutputDir: outputDir})
	if err != nil {
		return err
	}
	defer s.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	m := newMonitor(s, preview.NewDriver(cfg.DT, 8))

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go screen.ChannelEvents(events, quit)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	last := time.Now()
	m.draw(screen)
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !m.handleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}
			m.draw(screen)
		case now := <-ticker.C:
			m.advance(float32(now.Sub(last).Seconds()))
			last = now
			m.draw(screen)
		}
	}
}
