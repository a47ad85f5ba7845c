package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/lyricviz/internal/cache"
	"github.com/olivier-w/lyricviz/internal/media"
	"github.com/olivier-w/lyricviz/internal/settings"
	"github.com/olivier-w/lyricviz/internal/ui"
)

type options struct {
	lyrics    string
	settings  string
	style     string
	export    string
	fps       int
	size      string
	cachePath string
	debug     bool
}

func main() {
	var o options
	flag.StringVar(&o.lyrics, "lyrics", "", "lyrics JSON for the first track (default: <audio>.lyrics.json or <audio>.json)")
	flag.StringVar(&o.settings, "settings", "", "visual settings JSON")
	flag.StringVar(&o.style, "style", "", "visualizer style: "+styleList())
	flag.StringVar(&o.export, "export", "", "render the first track to this mp4 instead of playing")
	flag.IntVar(&o.fps, "fps", 0, "frame rate override")
	flag.StringVar(&o.size, "size", "", "canvas size override, e.g. 1920x1080")
	flag.StringVar(&o.cachePath, "cache", defaultCachePath(), "waveform cache database (\"off\" disables)")
	flag.BoolVar(&o.debug, "debug", false, "write logs (lyricviz.log while playing, stderr while exporting)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: lyricviz [flags] <audio|playlist>...\n\nsupported audio: %s\n\n", media.SupportedExtsList())
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(o, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(o options, args []string) error {
	cfg, err := loadSettings(o)
	if err != nil {
		return err
	}
	q, err := buildQueue(args, o.lyrics)
	if err != nil {
		return err
	}

	if o.export != "" {
		if o.debug {
			log.SetOutput(os.Stderr)
		} else {
			log.SetOutput(io.Discard)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return runExport(ctx, *q.Current(), cfg, o.style, o.export, os.Stderr)
	}

	if o.debug {
		f, err := tea.LogToFile("lyricviz.log", "debug")
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	store := openCache(o.cachePath)
	if store != nil {
		defer store.Close()
	}

	model := ui.New(q, ui.Options{Settings: cfg, Style: o.style, Cache: store})
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// loadSettings reads the settings file and applies command-line overrides.
func loadSettings(o options) (settings.Visual, error) {
	cfg, err := settings.Load(o.settings)
	if err != nil {
		return cfg, err
	}
	if o.fps > 0 {
		cfg.FPS = o.fps
	}
	if o.size != "" {
		w, h, err := parseSize(o.size)
		if err != nil {
			return cfg, err
		}
		cfg.Width, cfg.Height = w, h
	}
	cfg.Sanitize()
	return cfg, nil
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lyricviz", "cache.db")
}

// openCache opens the waveform cache. A cache that can't be opened only
// costs recomputing overviews, so failures are logged and ignored.
func openCache(path string) *cache.Store {
	if path == "" || path == "off" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("[cache] %v", err)
		return nil
	}
	store, err := cache.Open(path, cache.DefaultTTL, cache.DefaultMaxSize)
	if err != nil {
		log.Printf("[cache] %v", err)
		return nil
	}
	return store
}
